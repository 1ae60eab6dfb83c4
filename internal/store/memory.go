package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opencrew/matchengine/internal/history"
	"github.com/opencrew/matchengine/internal/match"
)

// Memory is an in-memory Store for tests and development.
// Thread-safe via RWMutex.
type Memory struct {
	mu           sync.RWMutex
	contributors map[string]match.ContributorProfile
	missions     map[string]match.Mission
	skills       map[string]string
	engagements  map[string][]history.Engagement // contributor ID -> records
	reviews      map[string][]history.Review
	disputes     map[string][]history.Dispute
	matches      map[string][]match.Result // mission ID -> ranked results
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		contributors: make(map[string]match.ContributorProfile),
		missions:     make(map[string]match.Mission),
		skills:       make(map[string]string),
		engagements:  make(map[string][]history.Engagement),
		reviews:      make(map[string][]history.Review),
		disputes:     make(map[string][]history.Dispute),
		matches:      make(map[string][]match.Result),
	}
}

// PutContributor stores a contributor profile, assigning an ID if empty.
// Returns the contributor ID.
func (m *Memory) PutContributor(p match.ContributorProfile) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	m.contributors[p.ID] = p
	return p.ID
}

// PutMission stores a mission, assigning an ID if empty. Returns the ID.
func (m *Memory) PutMission(ms match.Mission) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ms.ID == "" {
		ms.ID = uuid.New().String()
	}
	m.missions[ms.ID] = ms
	return ms.ID
}

// PutSkill registers a skill name in the taxonomy.
func (m *Memory) PutSkill(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skills[id] = name
}

// AddEngagement appends a raw engagement record for a contributor.
func (m *Memory) AddEngagement(contributorID string, e history.Engagement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engagements[contributorID] = append(m.engagements[contributorID], e)
}

// AddReview appends a review record for a contributor.
func (m *Memory) AddReview(contributorID string, r history.Review) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[contributorID] = append(m.reviews[contributorID], r)
}

// AddDispute appends a dispute record for a contributor.
func (m *Memory) AddDispute(contributorID string, d history.Dispute) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disputes[contributorID] = append(m.disputes[contributorID], d)
}

func (m *Memory) GetContributor(ctx context.Context, id string) (*match.ContributorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.contributors[id]
	if !ok {
		return nil, match.ErrContributorNotFound
	}
	return &p, nil
}

func (m *Memory) ListEligibleContributors(ctx context.Context) ([]match.ContributorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]match.ContributorProfile, 0, len(m.contributors))
	for _, p := range m.contributors {
		if p.Verified && p.LookingForWork {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) ListContributors(ctx context.Context) ([]match.ContributorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]match.ContributorProfile, 0, len(m.contributors))
	for _, p := range m.contributors {
		out = append(out, p)
	}
	return out, nil
}

func (m *Memory) UpdateMatchPower(ctx context.Context, id string, power int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.contributors[id]
	if !ok {
		return match.ErrContributorNotFound
	}
	p.MatchPower = power
	m.contributors[id] = p
	return nil
}

func (m *Memory) GetMission(ctx context.Context, id string) (*match.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms, ok := m.missions[id]
	if !ok {
		return nil, match.ErrMissionNotFound
	}
	return &ms, nil
}

func (m *Memory) ListOpenMissions(ctx context.Context, limit int) ([]match.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]match.Mission, 0, limit)
	for _, ms := range m.missions {
		if ms.Status != match.MissionStatusOpen {
			continue
		}
		out = append(out, ms)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) ListSkillNames(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.skills))
	for id, name := range m.skills {
		out[id] = name
	}
	return out, nil
}

func (m *Memory) ListEngagements(ctx context.Context, contributorID string) ([]history.Engagement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]history.Engagement(nil), m.engagements[contributorID]...), nil
}

func (m *Memory) ListReviews(ctx context.Context, contributorID string) ([]history.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]history.Review(nil), m.reviews[contributorID]...), nil
}

func (m *Memory) ListDisputes(ctx context.Context, contributorID string) ([]history.Dispute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]history.Dispute(nil), m.disputes[contributorID]...), nil
}

func (m *Memory) RecentHires(ctx context.Context, initiatorID string, since time.Time) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hires := make(map[string]bool)
	for contributorID, records := range m.engagements {
		for _, e := range records {
			if e.InitiatorID != initiatorID {
				continue
			}
			if !e.InvitedAt.IsZero() && !e.InvitedAt.Before(since) {
				hires[contributorID] = true
				break
			}
		}
	}
	return hires, nil
}

func (m *Memory) ReplaceMissionMatches(ctx context.Context, missionID string, matches []match.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[missionID] = append([]match.Result(nil), matches...)
	return nil
}

func (m *Memory) ListMissionMatches(ctx context.Context, missionID string) ([]match.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]match.Result(nil), m.matches[missionID]...), nil
}

var _ Store = (*Memory)(nil)
