package match

import (
	"testing"
	"time"
)

func result(contributorID string, score, trust, tzFit int) Result {
	return Result{
		ContributorID: contributorID,
		OverallScore:  score,
		Breakdown: Breakdown{
			TrustScore:       trust,
			TimezoneFitScore: tzFit,
		},
	}
}

func TestApplyDiversityRankingRecentHirePenalty(t *testing.T) {
	matches := []Result{
		result("repeat", 80, 70, 100),
		result("fresh", 75, 70, 100),
	}
	recentHires := map[string]bool{"repeat": true}

	out := ApplyDiversityRanking(matches, recentHires, DiversityConfig{PenalizeRecentHires: true})

	if out[0].ContributorID != "fresh" {
		t.Errorf("expected penalized repeat hire to drop below fresh, got %q first", out[0].ContributorID)
	}
	if out[1].OverallScore != 70 {
		t.Errorf("expected 80-10=70 for repeat hire, got %d", out[1].OverallScore)
	}

	// Penalty floors at zero.
	low := ApplyDiversityRanking([]Result{result("repeat", 5, 70, 100)}, recentHires,
		DiversityConfig{PenalizeRecentHires: true})
	if low[0].OverallScore != 0 {
		t.Errorf("expected penalty floored at 0, got %d", low[0].OverallScore)
	}
}

func TestApplyDiversityRankingColdStartBoost(t *testing.T) {
	matches := []Result{
		result("veteran", 62, 80, 100),
		result("newcomer", 60, 30, 100),
	}

	out := ApplyDiversityRanking(matches, nil, DiversityConfig{BoostNewContributors: true})

	if out[0].OverallScore != 65 && out[1].OverallScore != 65 {
		t.Error("expected newcomer boosted by 5")
	}
	var newcomer Result
	for _, r := range out {
		if r.ContributorID == "newcomer" {
			newcomer = r
		}
	}
	if newcomer.OverallScore != 65 {
		t.Errorf("expected newcomer at 65, got %d", newcomer.OverallScore)
	}

	// Boost caps at 100 and never applies at or above the trust ceiling.
	capped := ApplyDiversityRanking([]Result{result("newcomer", 98, 10, 100)}, nil,
		DiversityConfig{BoostNewContributors: true})
	if capped[0].OverallScore != 100 {
		t.Errorf("expected boost capped at 100, got %d", capped[0].OverallScore)
	}
	unboosted := ApplyDiversityRanking([]Result{result("trusted", 60, 40, 100)}, nil,
		DiversityConfig{BoostNewContributors: true})
	if unboosted[0].OverallScore != 60 {
		t.Errorf("expected no boost at trust 40, got %d", unboosted[0].OverallScore)
	}
}

func TestApplyDiversityRankingBucketCap(t *testing.T) {
	matches := []Result{
		result("a", 95, 70, 100),
		result("b", 90, 70, 100),
		result("c", 85, 70, 100),
		result("d", 80, 70, 85),
		result("e", 75, 70, 100),
	}

	out := ApplyDiversityRanking(matches, nil, DiversityConfig{MaxFromSameTimezone: 2})

	counts := make(map[int]int)
	for _, r := range out {
		counts[r.Breakdown.TimezoneFitScore]++
	}
	for key, n := range counts {
		if n > 2 {
			t.Errorf("bucket %d has %d entries, cap is 2", key, n)
		}
	}

	// Highest-scored entries in the over-represented bucket survive; the
	// excess is dropped, not redistributed.
	if len(out) != 3 {
		t.Fatalf("expected 3 survivors, got %d", len(out))
	}
	for i, want := range []string{"a", "b", "d"} {
		if out[i].ContributorID != want {
			t.Errorf("position %d: expected %q, got %q", i, want, out[i].ContributorID)
		}
	}
}

func TestApplyDiversityRankingRanksAndStability(t *testing.T) {
	matches := []Result{
		result("b", 80, 70, 100),
		result("a", 80, 70, 85),
		result("c", 90, 70, 50),
	}

	out := ApplyDiversityRanking(matches, nil, DiversityConfig{})

	for i, r := range out {
		if r.Rank != i+1 {
			t.Errorf("position %d: expected rank %d, got %d", i, i+1, r.Rank)
		}
	}
	// Ties break on contributor ID ascending.
	if out[1].ContributorID != "a" || out[2].ContributorID != "b" {
		t.Errorf("expected tie broken a before b, got %q then %q",
			out[1].ContributorID, out[2].ContributorID)
	}

	// Input slice is not mutated.
	if matches[0].Rank != 0 {
		t.Error("input slice was mutated")
	}
}

func TestApplyTimeDecay(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		score     int
		matchedAt time.Time
		expected  int
		tolerance int
	}{
		{
			name:      "no elapsed time",
			score:     90,
			matchedAt: now,
			expected:  90,
		},
		{
			name:      "future timestamp passes through",
			score:     90,
			matchedAt: now.Add(time.Hour),
			expected:  90,
		},
		{
			name:      "one half-life",
			score:     90,
			matchedAt: now.Add(-72 * time.Hour),
			expected:  45,
			tolerance: 1,
		},
		{
			name:      "two half-lives",
			score:     80,
			matchedAt: now.Add(-144 * time.Hour),
			expected:  20,
			tolerance: 1,
		},
		{
			name:      "very old match decays toward zero",
			score:     100,
			matchedAt: now.Add(-30 * 24 * time.Hour),
			expected:  1,
			tolerance: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyTimeDecay(tt.score, tt.matchedAt, now)
			if diff := got - tt.expected; diff < -tt.tolerance || diff > tt.tolerance {
				t.Errorf("expected %d (±%d), got %d", tt.expected, tt.tolerance, got)
			}
		})
	}
}

func TestApplyTimeDecayMonotonic(t *testing.T) {
	now := time.Now()
	prev := 100
	for hours := 1; hours <= 240; hours += 12 {
		got := ApplyTimeDecay(100, now.Add(-time.Duration(hours)*time.Hour), now)
		if got > prev {
			t.Fatalf("decayed score rose from %d to %d at %d hours", prev, got, hours)
		}
		if got < 0 || got > 100 {
			t.Fatalf("decayed score %d out of range at %d hours", got, hours)
		}
		prev = got
	}
}
