package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/opencrew/matchengine/internal/match"
)

// Recommendation pairs an open mission with the contributor's score against
// it and a short human-readable reason.
type Recommendation struct {
	Mission match.Mission `json:"mission"`
	Score   int           `json:"score"`
	Reason  string        `json:"reason"`
}

// Recommendation tuning.
const (
	recommendationSampleSize = 50
	recommendationMinScore   = 40
)

// MissionRecommendations scores the contributor against a bounded sample of
// open missions and returns the strongest fits, best first. The contributor's
// history is aggregated once for the whole pass.
func (e *Engine) MissionRecommendations(ctx context.Context, contributorID string, limit int) ([]Recommendation, error) {
	contributor, err := e.store.GetContributor(ctx, contributorID)
	if err != nil {
		return nil, err
	}
	h, err := e.history.ForContributor(ctx, contributorID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate work history: %w", err)
	}

	missions, err := e.store.ListOpenMissions(ctx, recommendationSampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load open missions: %w", err)
	}

	names := e.skillNames(ctx)

	recs := make([]Recommendation, 0, len(missions))
	for _, m := range missions {
		r := match.Score(m, *contributor, h, names, e.weights)
		if r.OverallScore < recommendationMinScore {
			continue
		}
		recs = append(recs, Recommendation{
			Mission: m,
			Score:   r.OverallScore,
			Reason:  recommendationReason(r),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Mission.ID < recs[j].Mission.ID
	})

	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	e.metrics.IncRecommendationsServed()
	return recs, nil
}

// recommendationReason picks the strongest signal in the breakdown as the
// headline reason.
func recommendationReason(r match.Result) string {
	b := r.Breakdown
	switch {
	case b.SkillCoverage == 100 && b.SkillScore >= 85:
		return "your skills cover everything this mission needs"
	case b.SkillScore >= 70 && b.RequiredMet:
		return "strong skill fit for the required stack"
	case b.TrustScore >= 70:
		return "your track record stands out for this mission"
	case b.TimezoneFitScore >= 85 && b.AvailabilityScore >= 60:
		return "good working-hours overlap with this mission"
	case b.BudgetFitScore >= 75:
		return "the budget lines up with your profile"
	default:
		return "a reasonable overall fit worth a look"
	}
}
