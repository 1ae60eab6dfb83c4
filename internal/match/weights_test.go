package match

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultWeightsSumToOne(t *testing.T) {
	w := DefaultWeights()
	sum := w.Skill + w.Trust + w.Availability + w.Budget + w.Timezone
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("default weights sum to %f, expected 1.0", sum)
	}
}

func TestMergeCalibration(t *testing.T) {
	tests := []struct {
		name     string
		base     *Weights
		override *Weights
		expected Weights
	}{
		{
			name:     "nil override keeps base",
			base:     &Weights{Skill: 0.5, Trust: 0.5},
			override: nil,
			expected: Weights{Skill: 0.5, Trust: 0.5},
		},
		{
			name:     "nil base falls back to defaults",
			base:     nil,
			override: &Weights{Skill: 0.9},
			expected: *DefaultWeights(),
		},
		{
			name:     "partial override",
			base:     DefaultWeights(),
			override: &Weights{Trust: 0.40},
			expected: Weights{Skill: 0.35, Trust: 0.40, Availability: 0.15, Budget: 0.15, Timezone: 0.10},
		},
		{
			name:     "zero override values are ignored",
			base:     DefaultWeights(),
			override: &Weights{},
			expected: *DefaultWeights(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeCalibration(tt.base, tt.override)
			if *got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, *got)
			}
		})
	}
}

func TestLoadCalibration(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty path returns defaults", func(t *testing.T) {
		w, err := LoadCalibration("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *w != *DefaultWeights() {
			t.Errorf("expected defaults, got %+v", *w)
		}
	})

	t.Run("missing file returns defaults with error", func(t *testing.T) {
		w, err := LoadCalibration(filepath.Join(dir, "nope.json"))
		if err == nil {
			t.Error("expected error for missing file")
		}
		if *w != *DefaultWeights() {
			t.Errorf("expected defaults, got %+v", *w)
		}
	})

	t.Run("malformed file returns defaults with error", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}
		w, err := LoadCalibration(path)
		if err == nil {
			t.Error("expected error for malformed file")
		}
		if *w != *DefaultWeights() {
			t.Errorf("expected defaults, got %+v", *w)
		}
	})

	t.Run("partial file merges over defaults", func(t *testing.T) {
		path := filepath.Join(dir, "calibration.json")
		content := `{"version":"2026-02","weights":{"skill":0.40,"trust":0.30}}`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		w, err := LoadCalibration(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := Weights{Skill: 0.40, Trust: 0.30, Availability: 0.15, Budget: 0.15, Timezone: 0.10}
		if *w != want {
			t.Errorf("expected %+v, got %+v", want, *w)
		}
	})
}
