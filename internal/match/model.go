// Package match provides the pure scoring core for contributor-to-mission
// matching: sub-score calculators, rarity weighting, feature vectors,
// diversity re-ranking, time decay, and confidence labeling. Nothing in this
// package performs I/O.
package match

import (
	"errors"
	"time"
)

// Common errors for match operations.
var (
	ErrMissionNotFound     = errors.New("mission not found")
	ErrContributorNotFound = errors.New("contributor not found")
)

// Proficiency levels for a contributor skill.
const (
	LevelBeginner     = 1
	LevelIntermediate = 2
	LevelAdvanced     = 3
	LevelExpert       = 4
)

// Mission status values relevant to matching.
const (
	MissionStatusOpen      = "open"
	MissionStatusMatching  = "matching"
	MissionStatusActive    = "active"
	MissionStatusCompleted = "completed"
)

// ContributorSkill is a single skill held by a contributor.
type ContributorSkill struct {
	SkillID         string  `json:"skill_id"`
	Level           int     `json:"level"` // 1 (beginner) .. 4 (expert)
	Verified        bool    `json:"verified"`
	YearsExperience float64 `json:"years_experience"`
}

// ContributorProfile holds the profile fields the scoring core reads.
// Optional fields left at their zero value are treated as absent.
type ContributorProfile struct {
	ID                string             `json:"id"`
	Headline          string             `json:"headline"`
	Bio               string             `json:"bio"`
	GitHubURL         string             `json:"github_url,omitempty"`
	LinkedInURL       string             `json:"linkedin_url,omitempty"`
	PortfolioURL      string             `json:"portfolio_url,omitempty"`
	Skills            []ContributorSkill `json:"skills"`
	Verified          bool               `json:"verified"`
	BackgroundChecked bool               `json:"background_checked"`
	LookingForWork    bool               `json:"looking_for_work"`
	AvailableHours    int                `json:"available_hours_per_week"`
	Timezone          string             `json:"timezone,omitempty"`
	MatchPower        int                `json:"match_power"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Mission is the matching view of a mission. RequiredSkillIDs is ordered;
// position encodes priority for skill-gap severity.
type Mission struct {
	ID                string    `json:"id"`
	InitiatorID       string    `json:"initiator_id"`
	Title             string    `json:"title"`
	RequiredSkillIDs  []string  `json:"required_skill_ids"`
	BudgetMin         float64   `json:"budget_min"`
	BudgetMax         float64   `json:"budget_max"`
	Complexity        string    `json:"complexity"`
	EstimatedDuration int       `json:"estimated_duration_days"`
	Timezone          string    `json:"timezone,omitempty"`
	Status            string    `json:"status"`
	Featured          bool      `json:"featured"`
	CreatedAt         time.Time `json:"created_at"`
}

// WorkHistory is the derived aggregate of a contributor's past work. It is
// computed on demand from transaction, review, and dispute records and never
// stored as its own entity.
type WorkHistory struct {
	CompletedMissions int     `json:"completed_missions"`
	CompletionRate    float64 `json:"completion_rate"`  // 0..1
	AverageRating     float64 `json:"average_rating"`   // 0..5
	DisputeRate       float64 `json:"dispute_rate"`     // 0..1
	RepeatClients     int     `json:"repeat_clients"`
	ResponseHours     float64 `json:"response_hours"`
	OnTimeRate        float64 `json:"on_time_rate"` // 0..1
}

// HasActivity reports whether the history contains any completed work.
func (h WorkHistory) HasActivity() bool {
	return h.CompletedMissions > 0
}

// SkillScore is the per-skill component of a skill match.
type SkillScore struct {
	SkillID string `json:"skill_id"`
	Name    string `json:"name,omitempty"`
	Score   int    `json:"score"`
	Held    bool   `json:"held"`
}

// SkillMatchResult is the outcome of matching a contributor's skills against
// a mission's required skills.
type SkillMatchResult struct {
	Score       int          `json:"score"`
	Coverage    int          `json:"coverage"`
	RequiredMet bool         `json:"required_met"`
	PerSkill    []SkillScore `json:"per_skill,omitempty"`
}

// Breakdown carries the five sub-scores plus supporting detail for one
// contributor-mission pairing.
type Breakdown struct {
	SkillScore        int          `json:"skill_score"`
	TrustScore        int          `json:"trust_score"`
	AvailabilityScore int          `json:"availability_score"`
	BudgetFitScore    int          `json:"budget_fit_score"`
	TimezoneFitScore  int          `json:"timezone_fit_score"`
	SkillCoverage     int          `json:"skill_coverage"`
	RequiredMet       bool         `json:"required_met"`
	PerSkill          []SkillScore `json:"per_skill,omitempty"`
}

// Result is the computed match artifact for one contributor and one mission.
// The stored set for a mission is wholly replaced on every refresh.
type Result struct {
	ContributorID string    `json:"contributor_id"`
	MissionID     string    `json:"mission_id"`
	OverallScore  int       `json:"overall_score"`
	Breakdown     Breakdown `json:"breakdown"`
	HasHistory    bool      `json:"has_history"`
	Rank          int       `json:"rank"`
	ComputedAt    time.Time `json:"computed_at"`
}

// clampScore limits an integer score to the [0,100] range.
func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// clamp01 limits a float to the [0,1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
