package match

import (
	"fmt"
	"strings"
)

// Confidence labels for a computed match.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Confidence is a rule-based estimate of how much to trust a match result.
type Confidence struct {
	Level   string `json:"level"`
	Factors string `json:"factors"`
}

// CalculateMatchConfidence labels a result high, medium, or low confidence.
// High requires strong coverage, real work history, and solid trust; medium
// requires either moderate coverage or moderate trust; everything else is
// low. The factors string lists the contributing observations.
func CalculateMatchConfidence(r Result) Confidence {
	coverage := r.Breakdown.SkillCoverage
	trust := r.Breakdown.TrustScore

	var factors []string
	if coverage >= 80 {
		factors = append(factors, "strong skill coverage")
	} else if coverage >= 50 {
		factors = append(factors, "partial skill coverage")
	} else {
		factors = append(factors, "limited skill coverage")
	}
	if r.HasHistory {
		factors = append(factors, "proven work history")
	} else {
		factors = append(factors, "no completed missions yet")
	}
	if trust >= 60 {
		factors = append(factors, "high trust score")
	} else if trust >= 40 {
		factors = append(factors, "moderate trust score")
	} else {
		factors = append(factors, "unestablished trust")
	}

	level := ConfidenceLow
	switch {
	case coverage >= 80 && r.HasHistory && trust >= 60:
		level = ConfidenceHigh
	case coverage >= 50 || trust >= 40:
		level = ConfidenceMedium
	}

	return Confidence{
		Level:   level,
		Factors: strings.Join(factors, ", "),
	}
}

// GenerateMatchExplanation produces an ordered list of short labeled
// statements describing each sub-score, using fixed score bands.
func GenerateMatchExplanation(r Result) []string {
	b := r.Breakdown
	explanation := make([]string, 0, 5)

	explanation = append(explanation, bandLabel("Skills", b.SkillScore,
		90, "excellent fit", 70, "strong fit", 50, "moderate fit", "limited fit"))
	explanation = append(explanation, bandLabel("Trust", b.TrustScore,
		80, "highly reliable", 60, "reliable", 40, "building reputation", "unproven"))
	explanation = append(explanation, bandLabel("Availability", b.AvailabilityScore,
		80, "highly available", 60, "available", 40, "limited availability", "largely unavailable"))
	explanation = append(explanation, bandLabel("Budget", b.BudgetFitScore,
		85, "excellent budget alignment", 75, "good budget alignment", 60, "workable budget", "budget mismatch"))
	explanation = append(explanation, bandLabel("Timezone", b.TimezoneFitScore,
		85, "overlapping hours", 70, "good overlap", 50, "partial overlap", "little overlap"))

	return explanation
}

// bandLabel formats one explanation line by slotting the score into one of
// four fixed bands.
func bandLabel(name string, score, hi int, hiLabel string, mid int, midLabel string, lo int, loLabel, floorLabel string) string {
	var label string
	switch {
	case score >= hi:
		label = hiLabel
	case score >= mid:
		label = midLabel
	case score >= lo:
		label = loLabel
	default:
		label = floorLabel
	}
	return fmt.Sprintf("%s: %s (%d)", name, label, score)
}

// Skill gap classifications.
const (
	GapMissing           = "missing"
	GapUnderqualified    = "underqualified"
	GapNeedsVerification = "needs_verification"
)

// Skill gap severities, assigned by position in the mission's required list:
// the first skill is critical, the next two important, the rest nice to have.
const (
	SeverityCritical   = "critical"
	SeverityImportant  = "important"
	SeverityNiceToHave = "nice_to_have"
)

// SkillGap describes one shortfall between a required skill and the
// contributor's profile.
type SkillGap struct {
	SkillID  string `json:"skill_id"`
	Name     string `json:"name,omitempty"`
	Gap      string `json:"gap"`
	Severity string `json:"severity"`
}

// AnalyzeSkillGaps classifies each required skill the contributor falls
// short on: missing entirely, held only at beginner proficiency, or held but
// unverified where the mission considers it critical. Severity follows list
// position in the mission's required skills.
func AnalyzeSkillGaps(required []string, have []ContributorSkill, names map[string]string) []SkillGap {
	bySkill := make(map[string]ContributorSkill, len(have))
	for _, s := range have {
		bySkill[s.SkillID] = s
	}

	var gaps []SkillGap
	for i, id := range required {
		severity := severityForPosition(i)
		gap := SkillGap{SkillID: id, Name: names[id], Severity: severity}

		s, held := bySkill[id]
		switch {
		case !held:
			gap.Gap = GapMissing
		case s.Level <= LevelBeginner:
			gap.Gap = GapUnderqualified
		case !s.Verified && severity == SeverityCritical:
			gap.Gap = GapNeedsVerification
		default:
			continue
		}
		gaps = append(gaps, gap)
	}
	return gaps
}

// severityForPosition maps a required-skill index to its severity.
func severityForPosition(i int) string {
	switch {
	case i == 0:
		return SeverityCritical
	case i <= 2:
		return SeverityImportant
	default:
		return SeverityNiceToHave
	}
}
