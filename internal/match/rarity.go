package match

import "math"

// Rarity weight bounds. A skill held by everyone weighs 1; a skill held by
// almost nobody weighs up to 3.
const (
	minRarityWeight = 1.0
	maxRarityWeight = 3.0
	maxRarityLog    = 2.0
)

// SkillRarityWeights derives an importance weight per skill from how rare it
// is across the contributor population:
//
//	weight = 1 + min(ln(N/frequency), 2), clamped to [1,3]
//
// where N is the population size and frequency the number of contributors
// holding the skill. Skills held by nobody are absent from the result.
func SkillRarityWeights(population []ContributorProfile) map[string]float64 {
	weights := make(map[string]float64)
	n := len(population)
	if n == 0 {
		return weights
	}

	freq := make(map[string]int)
	for _, p := range population {
		seen := make(map[string]bool, len(p.Skills))
		for _, s := range p.Skills {
			if seen[s.SkillID] {
				continue
			}
			seen[s.SkillID] = true
			freq[s.SkillID]++
		}
	}

	for id, f := range freq {
		w := 1 + math.Min(math.Log(float64(n)/float64(f)), maxRarityLog)
		if w < minRarityWeight {
			w = minRarityWeight
		}
		if w > maxRarityWeight {
			w = maxRarityWeight
		}
		weights[id] = w
	}
	return weights
}

// WeightedSkillMatch is the rarity-weighted alternative to SkillMatch: the
// per-skill scores are identical, but the overall score is the weighted mean
// using the supplied rarity weights (missing weights default to 1).
//
// This is an independent scoring path; callers choose either this or the
// flat SkillMatch, never a blend of the two.
func WeightedSkillMatch(required []string, have []ContributorSkill, names map[string]string, rarity map[string]float64) SkillMatchResult {
	flat := SkillMatch(required, have, names)
	if len(required) == 0 {
		return flat
	}

	var weightedSum, weightTotal float64
	for _, ps := range flat.PerSkill {
		w, ok := rarity[ps.SkillID]
		if !ok {
			w = minRarityWeight
		}
		weightedSum += w * float64(ps.Score)
		weightTotal += w
	}
	if weightTotal > 0 {
		flat.Score = clampScore(int(math.Round(weightedSum / weightTotal)))
	}
	return flat
}
