// Package store provides the repository interfaces backing the matching
// engine, with Postgres and in-memory implementations plus a Redis cache for
// stored match lists.
package store

import (
	"context"
	"time"

	"github.com/opencrew/matchengine/internal/history"
	"github.com/opencrew/matchengine/internal/match"
)

// ContributorStore provides read access to contributor profiles and write
// access to their computed match power.
type ContributorStore interface {
	// GetContributor retrieves a contributor profile by ID.
	// Returns match.ErrContributorNotFound if absent.
	GetContributor(ctx context.Context, id string) (*match.ContributorProfile, error)

	// ListEligibleContributors returns the matchable population: verified
	// contributors who are looking for work.
	ListEligibleContributors(ctx context.Context) ([]match.ContributorProfile, error)

	// ListContributors returns the full contributor population, used for
	// skill rarity estimation.
	ListContributors(ctx context.Context) ([]match.ContributorProfile, error)

	// UpdateMatchPower persists a recomputed match power for a contributor.
	UpdateMatchPower(ctx context.Context, id string, power int) error
}

// MissionStore provides read access to missions.
type MissionStore interface {
	// GetMission retrieves a mission by ID.
	// Returns match.ErrMissionNotFound if absent.
	GetMission(ctx context.Context, id string) (*match.Mission, error)

	// ListOpenMissions returns up to limit missions open for matching.
	ListOpenMissions(ctx context.Context, limit int) ([]match.Mission, error)
}

// SkillStore provides the skill taxonomy. It satisfies catalog.Source.
type SkillStore interface {
	ListSkillNames(ctx context.Context) (map[string]string, error)
}

// HistoryStore provides raw work records. It satisfies history.Source and
// additionally answers recent-hire queries for diversity re-ranking.
type HistoryStore interface {
	ListEngagements(ctx context.Context, contributorID string) ([]history.Engagement, error)
	ListReviews(ctx context.Context, contributorID string) ([]history.Review, error)
	ListDisputes(ctx context.Context, contributorID string) ([]history.Dispute, error)

	// RecentHires returns the set of contributor IDs the initiator engaged
	// at or after the cutoff.
	RecentHires(ctx context.Context, initiatorID string, since time.Time) (map[string]bool, error)
}

// MatchStore persists computed match results. The stored set for a mission
// is always replaced wholesale.
type MatchStore interface {
	// ReplaceMissionMatches atomically swaps the mission's stored match set.
	ReplaceMissionMatches(ctx context.Context, missionID string, matches []match.Result) error

	// ListMissionMatches returns the stored match set ordered by rank.
	ListMissionMatches(ctx context.Context, missionID string) ([]match.Result, error)
}

// Store bundles all repositories behind one value for injection.
type Store interface {
	ContributorStore
	MissionStore
	SkillStore
	HistoryStore
	MatchStore
}
