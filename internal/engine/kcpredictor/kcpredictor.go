// Package kcpredictor produces an adjusted crop coefficient from baseline
// growth-stage Kc plus recent weather and soil signals. Unlike the planning
// lookups in fieldparams this path is fail-fast: an unknown crop invalidates
// every downstream threshold, so it returns ErrUnknownCrop instead of a
// default.
package kcpredictor

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/agrofog/irrigation-engine/internal/model/entities"
)

// ErrUnknownCrop is returned for crop types absent from the predictor database.
var ErrUnknownCrop = errors.New("unknown crop type")

// Inputs drives one prediction.
type Inputs struct {
	CropType          string
	DaysSincePlanting int
	ET0Mm             float64
	RecentTemperature float64 // °C
	RecentHumidity    float64 // %
	SoilMoisture      float64 // %
	HistoricalYield   float64 // kg/ha, 0 = unavailable
}

// AdjustmentFactors records the multiplicative corrections applied to the
// stage baseline.
type AdjustmentFactors struct {
	Climate float64 `json:"climate"`
	Stress  float64 `json:"stress"`
	Anchor  float64 `json:"anchor"`
}

// Result is the adjusted coefficient with its provenance.
type Result struct {
	Kc          float64              `json:"kc"`
	ETcMm       float64              `json:"etc_mm"`
	GrowthStage entities.GrowthStage `json:"growth_stage"`
	Confidence  float64              `json:"confidence"` // 0..1
	Factors     AdjustmentFactors    `json:"factors"`
	Explanation string               `json:"explanation"`
}

const (
	kcFloor = 0.1
	kcCeil  = 1.5

	optimalTempC       = 22.5
	optimalHumidityPct = 65

	baseConfidence = 0.85
	minConfidence  = 0.5
	maxConfidence  = 0.99
)

// PredictKc computes the adjusted crop coefficient and a confidence score.
func PredictKc(in Inputs) (Result, error) {
	crop, err := GetCropData(in.CropType)
	if err != nil {
		return Result{}, err
	}

	stage, baseKc := stageForDay(crop.GrowthStages, in.DaysSincePlanting)

	climate := climateAdjustment(in.RecentTemperature, in.RecentHumidity, in.ET0Mm)
	stress := stressAdjustment(in.SoilMoisture, crop.CriticalDepletionFraction)
	anchor := yieldAnchor(in.HistoricalYield)

	kc := baseKc * climate * stress * anchor
	kc = math.Max(kcFloor, math.Min(kcCeil, kc))

	conf := confidence(in, climate, stress)

	return Result{
		Kc:          kc,
		ETcMm:       in.ET0Mm * kc,
		GrowthStage: stage,
		Confidence:  conf,
		Factors:     AdjustmentFactors{Climate: climate, Stress: stress, Anchor: anchor},
		Explanation: fmt.Sprintf("%s stage baseline %.2f, climate x%.3f, moisture x%.3f, yield anchor x%.3f",
			stage, baseKc, climate, stress, anchor),
	}, nil
}

// GetCropData returns the predictor's parameter record for a crop type.
func GetCropData(cropType string) (entities.CropParameters, error) {
	crop, ok := cropDatabase[strings.ToLower(strings.TrimSpace(cropType))]
	if !ok {
		return entities.CropParameters{}, fmt.Errorf("%w: %q", ErrUnknownCrop, cropType)
	}
	return crop, nil
}

// stageForDay selects the stage whose cumulative duration window contains the
// given day, clamping to the final stage once the season is exceeded.
func stageForDay(stages []entities.GrowthStageSpan, daysSincePlanting int) (entities.GrowthStage, float64) {
	cumulative := 0
	for _, s := range stages {
		cumulative += s.DurationDays
		if daysSincePlanting <= cumulative {
			return s.Stage, s.Kc
		}
	}
	last := stages[len(stages)-1]
	return last.Stage, last.Kc
}

// climateAdjustment raises Kc under hot/dry/high-demand conditions and lowers
// it in cool humid ones. Bounded by its linear coefficients.
func climateAdjustment(tempC, humidityPct, et0 float64) float64 {
	tempFactor := 1 + (tempC-optimalTempC)*0.01
	humidityFactor := 1 + (optimalHumidityPct-humidityPct)*0.005
	et0Factor := 1.0
	if et0 > 5 {
		et0Factor = 1.05
	}
	return tempFactor * humidityFactor * et0Factor
}

// stressAdjustment lowers Kc under sustained moisture deficit (stomatal
// closure). Never below 0.5.
func stressAdjustment(soilMoisture, criticalDepletionFraction float64) float64 {
	criticalMoisture := criticalDepletionFraction * 100
	if criticalMoisture <= 0 || soilMoisture >= criticalMoisture {
		return 1.0
	}
	return math.Max(0.5, soilMoisture/criticalMoisture)
}

// yieldAnchor nudges Kc when historical yield data exists as a sanity anchor.
func yieldAnchor(historicalYield float64) float64 {
	if historicalYield <= 0 {
		return 1.0
	}
	return 1.0 + math.Min(historicalYield/5000, 1.0)*0.05
}

// confidence starts from the base, gains from available anchors and adequate
// moisture, and loses as the adjustment signals deviate from neutral.
func confidence(in Inputs, climate, stress float64) float64 {
	c := baseConfidence
	if in.HistoricalYield > 0 {
		c += 0.05
	}
	if in.SoilMoisture > 20 {
		c += 0.05
	}
	if in.RecentTemperature > 40 || in.RecentTemperature < 5 {
		c -= 0.15
	}
	// Wide corrections mean the baseline is being trusted less.
	deviation := math.Abs(climate-1) + math.Abs(stress-1)
	c -= math.Min(0.1, deviation*0.2)
	return math.Max(minConfidence, math.Min(maxConfidence, c))
}
