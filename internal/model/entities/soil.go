package entities

import (
	"errors"
	"fmt"
)

// ErrInvalidSoilProfile marks a profile that violates the
// wiltingPoint < stressThreshold < fieldCapacity ordering.
var ErrInvalidSoilProfile = errors.New("invalid soil profile")

// SoilProfile holds the static hydraulic parameters of a (crop, soil) pair.
// Values are volumetric percentages except where noted. Immutable after creation.
type SoilProfile struct {
	FieldCapacity             float64 `json:"field_capacity"`       // %
	WiltingPoint              float64 `json:"wilting_point"`        // %
	RootDepthCm               float64 `json:"root_depth_cm"`        // cm
	StressThreshold           float64 `json:"stress_threshold"`     // % moisture, irrigation trigger
	CriticalDepletionFraction float64 `json:"depletion_fraction"`   // 0..1
	InfiltrationRateMmH       float64 `json:"infiltration_rate,omitempty"` // mm/hour
}

// Validate checks the profile ordering invariant and value ranges.
func (p SoilProfile) Validate() error {
	if p.FieldCapacity < 0 || p.FieldCapacity > 100 {
		return fmt.Errorf("%w: field capacity %.1f%% out of [0,100]", ErrInvalidSoilProfile, p.FieldCapacity)
	}
	if p.WiltingPoint < 0 || p.WiltingPoint > 100 {
		return fmt.Errorf("%w: wilting point %.1f%% out of [0,100]", ErrInvalidSoilProfile, p.WiltingPoint)
	}
	if !(p.WiltingPoint < p.StressThreshold && p.StressThreshold < p.FieldCapacity) {
		return fmt.Errorf("%w: need wilting point (%.1f) < stress threshold (%.1f) < field capacity (%.1f)",
			ErrInvalidSoilProfile, p.WiltingPoint, p.StressThreshold, p.FieldCapacity)
	}
	if p.RootDepthCm <= 0 || p.RootDepthCm > 300 {
		return fmt.Errorf("%w: root depth %.0fcm out of (0,300]", ErrInvalidSoilProfile, p.RootDepthCm)
	}
	if p.CriticalDepletionFraction < 0 || p.CriticalDepletionFraction > 1 {
		return fmt.Errorf("%w: depletion fraction %.2f out of [0,1]", ErrInvalidSoilProfile, p.CriticalDepletionFraction)
	}
	return nil
}

// AvailableWaterCapacityMm is the plant-available water between field capacity
// and wilting point over the root zone, in mm.
func (p SoilProfile) AvailableWaterCapacityMm() float64 {
	return (p.FieldCapacity - p.WiltingPoint) / 100 * p.RootDepthCm * 10
}
