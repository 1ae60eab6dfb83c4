package match

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Weights defines how the five sub-scores combine into the overall match
// score. Values are fractions that should sum to 1.0.
type Weights struct {
	Skill        float64 `json:"skill"`        // Weight for skill match (default: 0.35)
	Trust        float64 `json:"trust"`        // Weight for trust score (default: 0.25)
	Availability float64 `json:"availability"` // Weight for availability (default: 0.15)
	Budget       float64 `json:"budget"`       // Weight for budget fit (default: 0.15)
	Timezone     float64 `json:"timezone"`     // Weight for timezone fit (default: 0.10)
}

// CalibrationConfig is the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"`
	Weights Weights `json:"weights"`
}

// DefaultWeights returns the default overall-score weighting.
// Skill match dominates, trust is the strongest secondary signal, and the
// three logistics scores (availability, budget, timezone) share the rest.
func DefaultWeights() *Weights {
	return &Weights{
		Skill:        0.35,
		Trust:        0.25,
		Availability: 0.15,
		Budget:       0.15,
		Timezone:     0.10,
	}
}

// LoadCalibration loads overall-score weights from a JSON calibration file.
// Partial configurations are merged over defaults so a file may override a
// single weight. On any read or parse error the defaults are returned along
// with the error, so callers degrade gracefully.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read match calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse match calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	merged := MergeCalibration(DefaultWeights(), &config.Weights)
	logWeightOverrides(DefaultWeights(), merged)
	return merged, nil
}

// MergeCalibration merges override weights over base weights. Only non-zero
// override values are applied, allowing partial calibration files.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}
	result := *base
	if override == nil {
		return &result
	}
	if override.Skill != 0 {
		result.Skill = override.Skill
	}
	if override.Trust != 0 {
		result.Trust = override.Trust
	}
	if override.Availability != 0 {
		result.Availability = override.Availability
	}
	if override.Budget != 0 {
		result.Budget = override.Budget
	}
	if override.Timezone != 0 {
		result.Timezone = override.Timezone
	}
	return &result
}

// logWeightOverrides logs which weights differ from the defaults.
func logWeightOverrides(defaults, loaded *Weights) {
	var overrides []string
	add := func(name string, d, l float64) {
		if l != d {
			overrides = append(overrides, fmt.Sprintf("%s: %.2f -> %.2f", name, d, l))
		}
	}
	add("skill", defaults.Skill, loaded.Skill)
	add("trust", defaults.Trust, loaded.Trust)
	add("availability", defaults.Availability, loaded.Availability)
	add("budget", defaults.Budget, loaded.Budget)
	add("timezone", defaults.Timezone, loaded.Timezone)

	if len(overrides) > 0 {
		slog.Info("loaded match calibration with overrides", "overrides", overrides)
	} else {
		slog.Info("loaded match calibration (using all defaults)")
	}
}
