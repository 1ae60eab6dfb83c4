// Package history derives a contributor's WorkHistory on demand from raw
// engagement, review, and dispute records. The aggregate is recomputed per
// request and never persisted.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/opencrew/matchengine/internal/match"
)

// Engagement statuses the aggregator distinguishes. Anything else (active,
// pending) is ignored as non-terminal.
const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Engagement is one contributor-mission transaction record.
type Engagement struct {
	MissionID   string    `json:"mission_id"`
	InitiatorID string    `json:"initiator_id"`
	Status      string    `json:"status"`
	InvitedAt   time.Time `json:"invited_at"`
	RespondedAt time.Time `json:"responded_at"`
	DueAt       time.Time `json:"due_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Review is one rating left for the contributor on a completed mission.
type Review struct {
	MissionID string  `json:"mission_id"`
	Rating    float64 `json:"rating"` // 1..5
}

// Dispute is one dispute filed against the contributor's work.
type Dispute struct {
	MissionID string `json:"mission_id"`
}

// Aggregate folds raw records into a WorkHistory:
//
//   - completed missions and completion rate over terminal engagements;
//   - mean review rating;
//   - dispute rate over terminal engagements, capped at 1;
//   - repeat clients: initiators with two or more completed missions;
//   - mean response hours over engagements with a recorded response;
//   - on-time rate over completed engagements that carried a due date.
//
// All rates default to zero when their denominator is empty.
func Aggregate(engagements []Engagement, reviews []Review, disputes []Dispute) match.WorkHistory {
	var h match.WorkHistory

	terminal := 0
	onTimeDone := 0
	onTimeTotal := 0
	responseTotal := 0.0
	responses := 0
	completedByInitiator := make(map[string]int)

	for _, e := range engagements {
		switch e.Status {
		case StatusCompleted:
			terminal++
			h.CompletedMissions++
			completedByInitiator[e.InitiatorID]++
			if !e.DueAt.IsZero() && !e.CompletedAt.IsZero() {
				onTimeTotal++
				if !e.CompletedAt.After(e.DueAt) {
					onTimeDone++
				}
			}
		case StatusCancelled:
			terminal++
		}
		if !e.InvitedAt.IsZero() && e.RespondedAt.After(e.InvitedAt) {
			responseTotal += e.RespondedAt.Sub(e.InvitedAt).Hours()
			responses++
		}
	}

	if terminal > 0 {
		h.CompletionRate = float64(h.CompletedMissions) / float64(terminal)
		rate := float64(len(disputes)) / float64(terminal)
		if rate > 1 {
			rate = 1
		}
		h.DisputeRate = rate
	}
	if len(reviews) > 0 {
		sum := 0.0
		for _, r := range reviews {
			sum += r.Rating
		}
		h.AverageRating = sum / float64(len(reviews))
	}
	for _, n := range completedByInitiator {
		if n >= 2 {
			h.RepeatClients++
		}
	}
	if responses > 0 {
		h.ResponseHours = responseTotal / float64(responses)
	}
	if onTimeTotal > 0 {
		h.OnTimeRate = float64(onTimeDone) / float64(onTimeTotal)
	}

	return h
}

// Source loads a contributor's raw records from the backing store.
type Source interface {
	ListEngagements(ctx context.Context, contributorID string) ([]Engagement, error)
	ListReviews(ctx context.Context, contributorID string) ([]Review, error)
	ListDisputes(ctx context.Context, contributorID string) ([]Dispute, error)
}

// Aggregator loads and folds a contributor's records.
type Aggregator struct {
	source Source
}

// NewAggregator builds an Aggregator over the given record source.
func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// ForContributor computes the contributor's current WorkHistory.
func (a *Aggregator) ForContributor(ctx context.Context, contributorID string) (match.WorkHistory, error) {
	engagements, err := a.source.ListEngagements(ctx, contributorID)
	if err != nil {
		return match.WorkHistory{}, fmt.Errorf("failed to load engagements: %w", err)
	}
	reviews, err := a.source.ListReviews(ctx, contributorID)
	if err != nil {
		return match.WorkHistory{}, fmt.Errorf("failed to load reviews: %w", err)
	}
	disputes, err := a.source.ListDisputes(ctx, contributorID)
	if err != nil {
		return match.WorkHistory{}, fmt.Errorf("failed to load disputes: %w", err)
	}
	return Aggregate(engagements, reviews, disputes), nil
}
