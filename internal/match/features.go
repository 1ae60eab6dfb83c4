package match

import "math"

// FeatureVector is the normalized [0,1] representation of all raw matching
// signals for one contributor-mission pairing, for downstream ranking or
// model consumption. Every field is clamped to [0,1].
type FeatureVector struct {
	SkillScore     float64 `json:"skill_score"`
	SkillCoverage  float64 `json:"skill_coverage"`
	TrustScore     float64 `json:"trust_score"`
	Availability   float64 `json:"availability"`
	BudgetFit      float64 `json:"budget_fit"`
	TimezoneFit    float64 `json:"timezone_fit"`
	MatchPower     float64 `json:"match_power"`
	Engagement     float64 `json:"engagement"`
	CompletionRate float64 `json:"completion_rate"`
	AverageRating  float64 `json:"average_rating"`
	DisputeFree    float64 `json:"dispute_free"`
	OnTimeRate     float64 `json:"on_time_rate"`
	HistoryDepth   float64 `json:"history_depth"`
	RepeatClients  float64 `json:"repeat_clients"`
	Verified       float64 `json:"verified"`
	Featured       float64 `json:"featured"`
}

// historyDepthScale controls the log damping of completed-mission counts;
// around 50 completed missions the feature saturates near 1.
const historyDepthScale = 50.0

// BuildFeatureVector normalizes a computed result plus its raw inputs into a
// bounded feature vector. Score-type signals divide by 100, rates pass
// through, the dispute rate is inverted so larger is better, and unbounded
// counts are log-damped.
func BuildFeatureVector(m Mission, p ContributorProfile, h WorkHistory, r Result) FeatureVector {
	fv := FeatureVector{
		SkillScore:     float64(r.Breakdown.SkillScore) / 100,
		SkillCoverage:  float64(r.Breakdown.SkillCoverage) / 100,
		TrustScore:     float64(r.Breakdown.TrustScore) / 100,
		Availability:   float64(r.Breakdown.AvailabilityScore) / 100,
		BudgetFit:      float64(r.Breakdown.BudgetFitScore) / 100,
		TimezoneFit:    float64(r.Breakdown.TimezoneFitScore) / 100,
		MatchPower:     float64(p.MatchPower) / 100,
		Engagement:     float64(Engagement(p, r.ComputedAt)) / 100,
		CompletionRate: h.CompletionRate,
		AverageRating:  h.AverageRating / 5,
		DisputeFree:    1 - h.DisputeRate,
		OnTimeRate:     h.OnTimeRate,
		HistoryDepth:   logDamp(float64(h.CompletedMissions), historyDepthScale),
		RepeatClients:  logDamp(float64(h.RepeatClients), 10),
	}
	if p.Verified {
		fv.Verified = 1
	}
	if m.Featured {
		fv.Featured = 1
	}

	fv.SkillScore = clamp01(fv.SkillScore)
	fv.SkillCoverage = clamp01(fv.SkillCoverage)
	fv.TrustScore = clamp01(fv.TrustScore)
	fv.Availability = clamp01(fv.Availability)
	fv.BudgetFit = clamp01(fv.BudgetFit)
	fv.TimezoneFit = clamp01(fv.TimezoneFit)
	fv.MatchPower = clamp01(fv.MatchPower)
	fv.Engagement = clamp01(fv.Engagement)
	fv.CompletionRate = clamp01(fv.CompletionRate)
	fv.AverageRating = clamp01(fv.AverageRating)
	fv.DisputeFree = clamp01(fv.DisputeFree)
	fv.OnTimeRate = clamp01(fv.OnTimeRate)
	fv.HistoryDepth = clamp01(fv.HistoryDepth)
	fv.RepeatClients = clamp01(fv.RepeatClients)
	return fv
}

// logDamp maps a non-negative count into [0,1) with logarithmic saturation
// around the given scale.
func logDamp(v, scale float64) float64 {
	if v <= 0 {
		return 0
	}
	return clamp01(math.Log1p(v) / math.Log1p(scale))
}
