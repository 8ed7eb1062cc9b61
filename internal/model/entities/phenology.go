package entities

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGrowthStage is returned when parsing an unrecognized stage name.
var ErrInvalidGrowthStage = errors.New("invalid growth stage")

// GrowthStage is the closed FAO-56 stage enumeration.
type GrowthStage string

const (
	StageInitial     GrowthStage = "initial"
	StageDevelopment GrowthStage = "development"
	StageMidSeason   GrowthStage = "mid-season"
	StageLateSeason  GrowthStage = "late-season"
)

// ParseGrowthStage maps a stage string (case-insensitive, tolerating the
// midSeason / mid_season spellings seen in upstream payloads) onto the enum.
func ParseGrowthStage(s string) (GrowthStage, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-")) {
	case "initial":
		return StageInitial, nil
	case "development":
		return StageDevelopment, nil
	case "mid-season", "midseason":
		return StageMidSeason, nil
	case "late-season", "lateseason":
		return StageLateSeason, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGrowthStage, s)
	}
}

// GrowthStageSpan is one stage of a crop calendar: its duration and the Kc
// that applies while the crop is in it.
type GrowthStageSpan struct {
	Stage        GrowthStage `json:"stage"`
	DurationDays int         `json:"duration_days"`
	Kc           float64     `json:"kc"`
}

// CropParameters is the static per-crop record backing both the stage table
// and the adaptive Kc predictor.
type CropParameters struct {
	ID                        string            `json:"id"`
	Name                      string            `json:"name"`
	Type                      string            `json:"type"` // cereal, vegetable, ...
	KcInit                    float64           `json:"kc_init"`
	KcMid                     float64           `json:"kc_mid"`
	KcEnd                     float64           `json:"kc_end"`
	RootDepthCm               float64           `json:"root_depth_cm"`
	CriticalDepletionFraction float64           `json:"depletion_fraction"`
	GrowthStages              []GrowthStageSpan `json:"growth_stages"`
}

// SeasonLengthDays is the sum of all stage durations.
func (c CropParameters) SeasonLengthDays() int {
	total := 0
	for _, s := range c.GrowthStages {
		total += s.DurationDays
	}
	return total
}
