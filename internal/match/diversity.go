package match

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// DiversityConfig controls the post-scoring re-ranking pass.
type DiversityConfig struct {
	// MaxFromSameTimezone caps how many entries may share one timezone
	// bucket. Zero means no cap.
	MaxFromSameTimezone int
	// BoostNewContributors adds a small cold-start bonus to low-trust
	// contributors so newcomers surface.
	BoostNewContributors bool
	// PenalizeRecentHires demotes contributors the mission's initiator
	// hired recently, spreading work across the population.
	PenalizeRecentHires bool
}

// Diversity adjustment magnitudes.
const (
	recentHirePenalty     = 10
	coldStartBoost        = 5
	coldStartTrustCeiling = 40
)

// ApplyDiversityRanking re-ranks a sorted match list for fairness: recent
// hires of the same initiator lose 10 points (floored at 0), low-trust
// contributors gain a 5-point cold-start boost (capped at 100), the list is
// re-sorted, and each timezone bucket is capped at MaxFromSameTimezone
// entries. Excess entries in an over-represented bucket are dropped, not
// redistributed.
//
// The bucket key is the stringified timezone-fit score, so candidates with
// coincidentally equal fit scores share a bucket. This mirrors the observed
// production behavior; see DESIGN.md before changing it.
func ApplyDiversityRanking(matches []Result, recentHires map[string]bool, cfg DiversityConfig) []Result {
	adjusted := make([]Result, len(matches))
	copy(adjusted, matches)

	for i := range adjusted {
		if cfg.PenalizeRecentHires && recentHires[adjusted[i].ContributorID] {
			adjusted[i].OverallScore -= recentHirePenalty
			if adjusted[i].OverallScore < 0 {
				adjusted[i].OverallScore = 0
			}
		}
		if cfg.BoostNewContributors && adjusted[i].Breakdown.TrustScore < coldStartTrustCeiling {
			adjusted[i].OverallScore += coldStartBoost
			if adjusted[i].OverallScore > 100 {
				adjusted[i].OverallScore = 100
			}
		}
	}

	sort.SliceStable(adjusted, func(i, j int) bool {
		if adjusted[i].OverallScore != adjusted[j].OverallScore {
			return adjusted[i].OverallScore > adjusted[j].OverallScore
		}
		return adjusted[i].ContributorID < adjusted[j].ContributorID
	})

	if cfg.MaxFromSameTimezone <= 0 {
		reassignRanks(adjusted)
		return adjusted
	}

	bucketCounts := make(map[string]int)
	capped := adjusted[:0]
	for _, r := range adjusted {
		key := strconv.Itoa(r.Breakdown.TimezoneFitScore)
		if bucketCounts[key] >= cfg.MaxFromSameTimezone {
			continue
		}
		bucketCounts[key]++
		capped = append(capped, r)
	}
	reassignRanks(capped)
	return capped
}

// reassignRanks renumbers a sorted slice with dense ranks 1..N.
func reassignRanks(results []Result) {
	for i := range results {
		results[i].Rank = i + 1
	}
}

// Half-life for stored match scores.
const decayHalfLife = 72 * time.Hour

// ApplyTimeDecay exponentially reduces a stored score by its age with a
// 72-hour half-life: score * e^(-ln2/72 * hoursElapsed), rounded. A match
// computed at or after now passes through unchanged.
func ApplyTimeDecay(score int, matchedAt, now time.Time) int {
	elapsed := now.Sub(matchedAt)
	if elapsed <= 0 {
		return score
	}
	hours := elapsed.Hours()
	factor := math.Exp(-math.Ln2 / decayHalfLife.Hours() * hours)
	return clampScore(int(math.Round(float64(score) * factor)))
}
