// Package scheduler turns a do-nothing moisture trajectory into a single
// irrigation recommendation: when to act first, how much to apply and how sure
// the engine is. Each call is a fresh decision from current inputs; no backlog
// is kept.
package scheduler

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/agrofog/irrigation-engine/internal/engine/stress"
	"github.com/agrofog/irrigation-engine/internal/engine/waterbalance"
)

const (
	// minPracticalDoseMm is the smallest dose worth running an irrigation
	// system for.
	minPracticalDoseMm = 15

	// Confidence decays with trigger distance and with the magnitude of the
	// predicted stress, a stand-in for forecast uncertainty the scheduler
	// cannot observe directly.
	baseConfidence       = 0.95
	confidencePerDay     = 0.05
	confidencePerStress  = 0.001
	minConfidence        = 0.6
	litersPerHaMm        = 10000 // 1 mm over 1 ha = 10,000 L
)

// Params is one scheduling request.
type Params struct {
	Trajectory      waterbalance.Trajectory
	StressThreshold float64 // % moisture
	FieldCapacity   float64 // %
	WiltingPoint    float64 // %
	RootDepthCm     float64
	FieldAreaHa     float64 // 0 = unknown, liters not computed
}

// Recommendation is the scheduling decision. When Needed is false the time and
// volume fields are zero values, which is a valid outcome, not an error.
type Recommendation struct {
	Needed          bool           `json:"needed"`
	ScheduledTime   time.Time      `json:"scheduled_time,omitempty"`
	DayIndex        int            `json:"day_index"`
	AmountMm        float64        `json:"amount_mm"`
	AmountLiters    float64        `json:"amount_liters,omitempty"`
	Urgency         stress.Urgency `json:"urgency"`
	DaysUntilStress int            `json:"days_until_stress"` // -1 when no stress predicted
	Confidence      float64        `json:"confidence"`
	Reason          string         `json:"reason"`
}

// Scheduler stamps recommendations against an injectable clock so tests can
// freeze time.
type Scheduler struct {
	clock clockwork.Clock
}

// New builds a Scheduler. A nil clock selects the real one.
func New(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{clock: clock}
}

// Schedule scans the trajectory in date order for the first day whose moisture
// falls to the stress threshold, schedules irrigation for the day before it
// (or immediately when already stressed on day 0), and sizes the dose to
// refill the root zone to field capacity.
func (s *Scheduler) Schedule(p Params) Recommendation {
	criticalDay := stress.DaysUntilStress(p.Trajectory, p.StressThreshold)
	if criticalDay < 0 {
		return Recommendation{
			Needed:          false,
			DayIndex:        -1,
			DaysUntilStress: -1,
			Urgency:         stress.UrgencyNone,
			Confidence:      0.85,
			Reason:          "soil moisture is expected to remain adequate throughout the forecast period",
		}
	}

	urgency := urgencyFor(criticalDay)

	// Act the day before stress when there is room to wait.
	dayIndex := criticalDay - 1
	if dayIndex < 0 {
		dayIndex = 0
	}
	day := p.Trajectory[dayIndex]

	amount := waterbalance.CalculateIrrigationRequirement(
		day.SoilMoisture, p.FieldCapacity, p.RootDepthCm, waterbalance.DefaultIrrigationEfficiency)
	if amount < minPracticalDoseMm {
		amount = minPracticalDoseMm
	}

	var liters float64
	if p.FieldAreaHa > 0 {
		liters = amount * p.FieldAreaHa * litersPerHaMm
	}

	criticalStress := p.Trajectory[criticalDay].Stress
	conf := baseConfidence - confidencePerDay*float64(criticalDay) - confidencePerStress*criticalStress
	if conf < minConfidence {
		conf = minConfidence
	}

	return Recommendation{
		Needed:          true,
		ScheduledTime:   s.timeForDay(day, dayIndex),
		DayIndex:        dayIndex,
		AmountMm:        amount,
		AmountLiters:    liters,
		Urgency:         urgency,
		DaysUntilStress: criticalDay,
		Confidence:      conf,
		Reason:          reasonFor(criticalDay, p.Trajectory[criticalDay].SoilMoisture, p.WiltingPoint),
	}
}

func (s *Scheduler) timeForDay(day waterbalance.DayResult, idx int) time.Time {
	if !day.Date.IsZero() {
		return day.Date
	}
	return s.clock.Now().UTC().AddDate(0, 0, idx)
}

func urgencyFor(criticalDay int) stress.Urgency {
	switch {
	case criticalDay == 0:
		return stress.UrgencyCritical
	case criticalDay == 1:
		return stress.UrgencyHigh
	case criticalDay <= 2:
		return stress.UrgencyMedium
	default:
		return stress.UrgencyLow
	}
}

func reasonFor(criticalDay int, predictedMoisture, wiltingPoint float64) string {
	switch criticalDay {
	case 0:
		return fmt.Sprintf("soil moisture is at or below the stress threshold (%.1f%%); immediate irrigation required", predictedMoisture)
	case 1:
		return fmt.Sprintf("soil moisture is predicted to drop below the stress threshold tomorrow (%.1f%%); irrigate today", predictedMoisture)
	default:
		severity := "moderate"
		if predictedMoisture < wiltingPoint+5 {
			severity = "severe"
		}
		return fmt.Sprintf("soil moisture is predicted to drop below the stress threshold in %d days, reaching %.1f%%; schedule irrigation to prevent %s water stress",
			criticalDay, predictedMoisture, severity)
	}
}
