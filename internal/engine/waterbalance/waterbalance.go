// Package waterbalance implements the daily bucket-model soil water balance:
// moisture(t+1) = moisture(t) + P + I - ETc - RO - DP, bounded by the profile's
// field capacity and wilting point.
package waterbalance

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/agrofog/irrigation-engine/internal/model/entities"
)

// ErrInvalidMoisture marks a moisture input outside [0,100] or not a number.
var ErrInvalidMoisture = errors.New("invalid moisture value")

const (
	// rawDepletionFraction is the readily-available-water fraction of the
	// capacity-to-wilting range: depletion beyond it induces stress.
	// Heuristic constant carried over unchanged; do not re-tune.
	rawDepletionFraction = 0.6

	// DaysToWiltingSentinel means moisture is non-decreasing under current
	// assumptions and the wilting point will not be reached.
	DaysToWiltingSentinel = 999

	// DefaultIrrigationEfficiency is the assumed application efficiency when
	// the caller supplies none.
	DefaultIrrigationEfficiency = 0.85
)

// Inputs drives one daily balance step.
type Inputs struct {
	Profile           entities.SoilProfile
	CurrentMoisture   float64 // %
	ETcMm             float64 // crop evapotranspiration, mm/day
	PrecipitationMm   float64
	IrrigationMm      float64
	RunoffMm          float64
	DeepPercolationMm float64
	Date              time.Time
}

// DayResult is the outcome of one evaluation step.
type DayResult struct {
	Date               time.Time `json:"date"`
	SoilMoisture       float64   `json:"soil_moisture"` // %, post-update
	ETcMm              float64   `json:"etc_mm"`
	PrecipitationMm    float64   `json:"precipitation_mm"`
	IrrigationMm       float64   `json:"irrigation_mm"`
	DrainageMm         float64   `json:"drainage_mm"`
	Stress             float64   `json:"stress"` // 0..100
	DaysToWiltingPoint int       `json:"days_to_wilting_point"`
}

// Trajectory is a date-ordered sequence of daily results. A simulation run
// always produces a fresh trajectory; existing ones are never mutated.
type Trajectory []DayResult

// CalculateDailyBalance advances soil moisture by one day.
//
// The moisture percentage is converted to an equivalent depth over the root
// zone, water in/out is applied, excess above field capacity becomes drainage,
// and the result is floored at the wilting point (the model lets no water be
// drawn below it; further stress shows up in the stress figure, not the level).
func CalculateDailyBalance(in Inputs) (DayResult, error) {
	if err := in.Profile.Validate(); err != nil {
		return DayResult{}, err
	}
	if math.IsNaN(in.CurrentMoisture) || in.CurrentMoisture < 0 || in.CurrentMoisture > 100 {
		return DayResult{}, fmt.Errorf("%w: %.2f", ErrInvalidMoisture, in.CurrentMoisture)
	}

	p := in.Profile
	rootZoneMm := p.RootDepthCm * 10
	moistureMm := in.CurrentMoisture / 100 * rootZoneMm
	capacityMm := p.FieldCapacity / 100 * rootZoneMm
	wiltingMm := p.WiltingPoint / 100 * rootZoneMm

	waterIn := in.PrecipitationMm + in.IrrigationMm
	waterOut := in.ETcMm + in.RunoffMm + in.DeepPercolationMm
	newMm := moistureMm + waterIn - waterOut

	// Anything above field capacity drains; conservation of water, no oversaturation.
	drainage := in.DeepPercolationMm
	if newMm > capacityMm {
		drainage += newMm - capacityMm
		newMm = capacityMm
	}
	if newMm < wiltingMm {
		newMm = wiltingMm
	}

	newMoisture := newMm / rootZoneMm * 100

	return DayResult{
		Date:               in.Date,
		SoilMoisture:       newMoisture,
		ETcMm:              in.ETcMm,
		PrecipitationMm:    in.PrecipitationMm,
		IrrigationMm:       in.IrrigationMm,
		DrainageMm:         drainage,
		Stress:             CalculateWaterStress(newMoisture, p.FieldCapacity, p.WiltingPoint),
		DaysToWiltingPoint: PredictDaysToWiltingPoint(newMoisture, p.WiltingPoint, in.ETcMm, 0),
	}, nil
}

// CalculateWaterStress maps a moisture level onto 0..100 stress. At or above
// the readily-available-water threshold stress is 0; at or below the wilting
// point it is 100; linear in between.
func CalculateWaterStress(moisture, fieldCapacity, wiltingPoint float64) float64 {
	rawThreshold := fieldCapacity - (fieldCapacity-wiltingPoint)*rawDepletionFraction
	switch {
	case moisture >= rawThreshold:
		return 0
	case moisture <= wiltingPoint:
		return 100
	default:
		stressRange := rawThreshold - wiltingPoint
		return (rawThreshold - moisture) / stressRange * 100
	}
}

// PredictDaysToWiltingPoint estimates days until the wilting point assuming
// constant daily ETc, the given expected rainfall and linear depletion. Floors
// at 0; returns DaysToWiltingSentinel when net daily loss is non-positive.
func PredictDaysToWiltingPoint(moisture, wiltingPoint, dailyETcMm, expectedRainMm float64) int {
	if moisture <= wiltingPoint {
		return 0
	}
	netLoss := dailyETcMm - expectedRainMm
	if netLoss <= 0 {
		return DaysToWiltingSentinel
	}
	deficit := moisture - wiltingPoint
	return int(math.Ceil(deficit / (netLoss / 10)))
}

// CalculateIrrigationRequirement returns the gross irrigation depth in mm
// needed to lift moisture from current to target over the root zone,
// accounting for application losses. Zero when current >= target.
// efficiency <= 0 selects DefaultIrrigationEfficiency.
func CalculateIrrigationRequirement(currentMoisture, targetMoisture, rootDepthCm, efficiency float64) float64 {
	if efficiency <= 0 {
		efficiency = DefaultIrrigationEfficiency
	}
	deficit := targetMoisture - currentMoisture
	if deficit <= 0 {
		return 0
	}
	deficitMm := deficit / 100 * rootDepthCm
	return math.Ceil(deficitMm / efficiency)
}

// SimulateFuture rolls the daily balance forward, feeding each day's output
// moisture into the next day's input. Forecast slices shorter than days are
// padded with zeros: degraded accuracy, not a failure.
func SimulateFuture(initial Inputs, days int, forecastRainMm, plannedIrrigationMm []float64) (Trajectory, error) {
	traj := make(Trajectory, 0, days)
	moisture := initial.CurrentMoisture
	date := initial.Date

	for i := 0; i < days; i++ {
		day := initial
		day.CurrentMoisture = moisture
		day.PrecipitationMm = at(forecastRainMm, i)
		day.IrrigationMm = at(plannedIrrigationMm, i)
		if !date.IsZero() {
			day.Date = date.AddDate(0, 0, i)
		}

		res, err := CalculateDailyBalance(day)
		if err != nil {
			return nil, err
		}
		traj = append(traj, res)
		moisture = res.SoilMoisture
	}
	return traj, nil
}

func at(xs []float64, i int) float64 {
	if i < len(xs) {
		return xs[i]
	}
	return 0
}
