package match

import (
	"math"
	"time"
)

// Match power factor weights. The five factors are computed on a 0-100 scale
// and combined as a weighted sum.
var matchPowerWeights = map[string]float64{
	"completeness": 0.20,
	"skill_depth":  0.25,
	"verification": 0.20,
	"performance":  0.25,
	"engagement":   0.10,
}

// Trust signal weights. Each signal is normalized to 0-100 before weighting.
var trustWeights = map[string]float64{
	"completion":     0.25,
	"rating":         0.25,
	"disputes":       0.15,
	"responsiveness": 0.10,
	"on_time":        0.15,
	"repeat_clients": 0.10,
}

// Baseline skill match for missions that declare no required skills.
// A mission with no stated requirements accepts anyone.
const (
	openSkillBaselineScore    = 80
	openSkillBaselineCoverage = 100
)

// MatchPower computes the composite 0-100 platform-strength score for a
// contributor: profile completeness (20%), skill depth (25%), verification
// level (20%), historical performance (25%), and engagement (10%).
// The result is rounded to the nearest integer and clamped to [0,100].
func MatchPower(p ContributorProfile, h WorkHistory) int {
	sum := matchPowerWeights["completeness"]*float64(profileCompleteness(p)) +
		matchPowerWeights["skill_depth"]*float64(skillDepth(p.Skills)) +
		matchPowerWeights["verification"]*float64(verificationLevel(p)) +
		matchPowerWeights["performance"]*float64(TrustScore(h)) +
		matchPowerWeights["engagement"]*float64(Engagement(p, time.Now()))
	return clampScore(int(math.Round(sum)))
}

// profileCompleteness awards fixed points per filled profile field, capped
// at 100: headline 10, bio 15, github/linkedin/portfolio 10/8/7, up to 25
// for listed skills, timezone 10, available hours 15.
func profileCompleteness(p ContributorProfile) int {
	pts := 0
	if len(p.Headline) > 10 {
		pts += 10
	}
	if len(p.Bio) > 50 {
		pts += 15
	}
	if p.GitHubURL != "" {
		pts += 10
	}
	if p.LinkedInURL != "" {
		pts += 8
	}
	if p.PortfolioURL != "" {
		pts += 7
	}
	skillPts := len(p.Skills) * 5
	if skillPts > 25 {
		skillPts = 25
	}
	pts += skillPts
	if p.Timezone != "" {
		pts += 10
	}
	if p.AvailableHours > 0 {
		pts += 15
	}
	return clampScore(pts)
}

// skillDepth scores the contributor's skill set by proficiency, verification,
// and tenure: mean over skills of level*15 + 20 (verified) + min(years*4, 20),
// each skill capped at 100. An empty skill set scores 0.
func skillDepth(skills []ContributorSkill) int {
	if len(skills) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range skills {
		d := float64(s.Level) * 15
		if s.Verified {
			d += 20
		}
		d += math.Min(s.YearsExperience*4, 20)
		if d > 100 {
			d = 100
		}
		total += d
	}
	return clampScore(int(math.Round(total / float64(len(skills)))))
}

// verificationLevel awards 60 points for identity verification and 40 for a
// completed background check.
func verificationLevel(p ContributorProfile) int {
	pts := 0
	if p.Verified {
		pts += 60
	}
	if p.BackgroundChecked {
		pts += 40
	}
	return pts
}

// TrustScore computes the composite 0-100 reliability score from six history
// signals:
//
//	completionRate*100 (25%), (avgRating/5)*100 (25%), (1-disputeRate)*100 (15%),
//	max(0, 100-2*responseHours) (10%), onTimeRate*100 (15%),
//	min(repeatClients*10, 100) (10%).
//
// The function is total: zero-valued histories produce a valid score.
func TrustScore(h WorkHistory) int {
	responsiveness := 100 - 2*h.ResponseHours
	if responsiveness < 0 {
		responsiveness = 0
	}
	repeat := float64(h.RepeatClients) * 10
	if repeat > 100 {
		repeat = 100
	}

	sum := trustWeights["completion"]*(clamp01(h.CompletionRate)*100) +
		trustWeights["rating"]*(h.AverageRating/5*100) +
		trustWeights["disputes"]*((1-clamp01(h.DisputeRate))*100) +
		trustWeights["responsiveness"]*responsiveness +
		trustWeights["on_time"]*(clamp01(h.OnTimeRate)*100) +
		trustWeights["repeat_clients"]*repeat
	return clampScore(int(math.Round(sum)))
}

// skillScoreFor scores one held skill against a requirement:
// 70 + level*7.5 + 5 if verified + min(years*2, 10), capped at 100.
func skillScoreFor(s ContributorSkill) int {
	score := 70 + float64(s.Level)*7.5
	if s.Verified {
		score += 5
	}
	score += math.Min(s.YearsExperience*2, 10)
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

// SkillMatch evaluates the contributor's skills against the mission's
// required skill IDs. Missing skills score 0; coverage is the percentage of
// required skills held; the overall score is the arithmetic mean of per-skill
// scores. RequiredMet means coverage reached 50%.
//
// A mission with no required skills returns the fixed open baseline
// (score 80, coverage 100, requiredMet true).
func SkillMatch(required []string, have []ContributorSkill, names map[string]string) SkillMatchResult {
	if len(required) == 0 {
		return SkillMatchResult{
			Score:       openSkillBaselineScore,
			Coverage:    openSkillBaselineCoverage,
			RequiredMet: true,
		}
	}

	bySkill := make(map[string]ContributorSkill, len(have))
	for _, s := range have {
		bySkill[s.SkillID] = s
	}

	perSkill := make([]SkillScore, 0, len(required))
	matched := 0
	total := 0
	for _, id := range required {
		entry := SkillScore{SkillID: id, Name: names[id]}
		if s, ok := bySkill[id]; ok {
			entry.Score = skillScoreFor(s)
			entry.Held = true
			matched++
		}
		total += entry.Score
		perSkill = append(perSkill, entry)
	}

	coverage := int(math.Round(float64(matched) / float64(len(required)) * 100))
	return SkillMatchResult{
		Score:       clampScore(int(math.Round(float64(total) / float64(len(required))))),
		Coverage:    coverage,
		RequiredMet: coverage >= 50,
		PerSkill:    perSkill,
	}
}

// requiredHoursPerWeek estimates the weekly commitment a mission needs from
// its duration: short engagements are assumed intensive, long ones sustained
// part-time.
func requiredHoursPerWeek(durationDays int) float64 {
	switch {
	case durationDays <= 14:
		return 30
	case durationDays <= 60:
		return 20
	default:
		return 10
	}
}

// Availability scores how available the contributor is for a mission of the
// given duration. Contributors not looking for work hard-floor at 25.
// Otherwise: 40 base + up to 40 proportional to available hours against the
// estimated requirement + 20 if a timezone is set.
func Availability(p ContributorProfile, durationDays int) int {
	if !p.LookingForWork {
		return 25
	}
	score := 40.0
	req := requiredHoursPerWeek(durationDays)
	ratio := float64(p.AvailableHours) / req
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}
	score += 40 * ratio
	if p.Timezone != "" {
		score += 20
	}
	return clampScore(int(math.Round(score)))
}

// BudgetFit scores mission budget against contributor strength, tiered by
// the budget midpoint: >=5000 scales with the contributor score, mid-range
// budgets are a flat 75, small budgets a flat 70.
func BudgetFit(budgetMin, budgetMax float64, contributorScore int) int {
	mid := (budgetMin + budgetMax) / 2
	switch {
	case mid >= 5000:
		s := 50 + float64(contributorScore)*0.5
		if s > 100 {
			s = 100
		}
		return int(math.Round(s))
	case mid >= 1000:
		return 75
	default:
		return 70
	}
}

// Engagement scores recency of profile activity: 50 base, bonus for a recent
// update (+30 within 7 days, +20 within 14, +10 within 30), a -20 penalty for
// staler profiles, and +20 for actively looking.
func Engagement(p ContributorProfile, now time.Time) int {
	score := 50
	if !p.UpdatedAt.IsZero() {
		age := now.Sub(p.UpdatedAt)
		switch {
		case age <= 7*24*time.Hour:
			score += 30
		case age <= 14*24*time.Hour:
			score += 20
		case age <= 30*24*time.Hour:
			score += 10
		default:
			score -= 20
		}
	} else {
		score -= 20
	}
	if p.LookingForWork {
		score += 20
	}
	return clampScore(score)
}

// Score computes the full breakdown and overall score for one contributor
// against one mission using the supplied weights (nil uses defaults).
// The overall score is the weighted sum of the five sub-scores, rounded and
// clamped to [0,100].
func Score(m Mission, p ContributorProfile, h WorkHistory, names map[string]string, w *Weights) Result {
	if w == nil {
		w = DefaultWeights()
	}

	sm := SkillMatch(m.RequiredSkillIDs, p.Skills, names)
	trust := TrustScore(h)
	avail := Availability(p, m.EstimatedDuration)
	budget := BudgetFit(m.BudgetMin, m.BudgetMax, p.MatchPower)
	tz := TimezoneFit(m.Timezone, p.Timezone)

	overall := w.Skill*float64(sm.Score) +
		w.Trust*float64(trust) +
		w.Availability*float64(avail) +
		w.Budget*float64(budget) +
		w.Timezone*float64(tz)

	return Result{
		ContributorID: p.ID,
		MissionID:     m.ID,
		OverallScore:  clampScore(int(math.Round(overall))),
		Breakdown: Breakdown{
			SkillScore:        sm.Score,
			TrustScore:        trust,
			AvailabilityScore: avail,
			BudgetFitScore:    budget,
			TimezoneFitScore:  tz,
			SkillCoverage:     sm.Coverage,
			RequiredMet:       sm.RequiredMet,
			PerSkill:          sm.PerSkill,
		},
		HasHistory: h.HasActivity(),
		ComputedAt: time.Now().UTC(),
	}
}
