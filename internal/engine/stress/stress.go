// Package stress converts a point-in-time moisture value into a crop water
// stress assessment and an irrigation-need verdict. Stateless; recomputed on
// demand using the same readily-available-water formula as the water balance.
package stress

import (
	"fmt"

	"github.com/agrofog/irrigation-engine/internal/engine/waterbalance"
)

// Status buckets a stress index.
type Status string

const (
	StatusOptimal  Status = "optimal"
	StatusMild     Status = "mild_stress"
	StatusModerate Status = "moderate_stress"
	StatusSevere   Status = "severe_stress"
	StatusCritical Status = "critical"
)

// Urgency ranks how soon irrigation is required.
type Urgency string

const (
	UrgencyNone     Urgency = "none"
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Assessment is a point-in-time stress reading. CurrentIndex follows the
// water-balance convention: 0 = no stress, 100 = at or below wilting point.
type Assessment struct {
	CurrentIndex float64 `json:"current_index"`
	Status       Status  `json:"status"`
	Description  string  `json:"description"`
}

// Verdict is the irrigation-need decision for one moisture value.
type Verdict struct {
	Needed  bool    `json:"needed"`
	Urgency Urgency `json:"urgency"`
	Reason  string  `json:"reason"`
}

// AnalyzeStress computes the stress index of a moisture value and classifies it.
func AnalyzeStress(moisture, wiltingPoint, fieldCapacity float64) Assessment {
	idx := waterbalance.CalculateWaterStress(moisture, fieldCapacity, wiltingPoint)
	st := statusFor(idx)
	return Assessment{
		CurrentIndex: idx,
		Status:       st,
		Description:  descriptions[st],
	}
}

// NeedsIrrigation reports whether moisture at or below the stress threshold
// calls for irrigation, and how urgently. Urgency escalates as moisture
// approaches the wilting point.
func NeedsIrrigation(moisture, stressThreshold, wiltingPoint, fieldCapacity float64) Verdict {
	if moisture > stressThreshold {
		return Verdict{Needed: false, Urgency: UrgencyNone, Reason: "soil moisture is adequate"}
	}
	idx := waterbalance.CalculateWaterStress(moisture, fieldCapacity, wiltingPoint)
	switch {
	case idx >= 80:
		return Verdict{true, UrgencyCritical,
			"soil moisture is critically low; irrigate immediately to prevent crop damage"}
	case idx >= 60:
		return Verdict{true, UrgencyHigh,
			"soil moisture is well below the stress threshold; irrigate as soon as possible"}
	case idx >= 40:
		return Verdict{true, UrgencyMedium,
			"soil moisture is approaching critical levels; plan irrigation within 1-2 days"}
	default:
		return Verdict{true, UrgencyLow,
			"soil moisture is slightly below optimal; schedule irrigation soon"}
	}
}

// DaysUntilStress returns the index of the first trajectory day at or below
// the stress threshold (0 = today), or -1 when the threshold is never reached.
func DaysUntilStress(traj waterbalance.Trajectory, stressThreshold float64) int {
	for i, d := range traj {
		if d.SoilMoisture <= stressThreshold {
			return i
		}
	}
	return -1
}

// AnalyzeTrend assesses every day of a trajectory, returning the assessment of
// the first day plus per-day indices.
func AnalyzeTrend(traj waterbalance.Trajectory, wiltingPoint, fieldCapacity float64) (Assessment, []Assessment, error) {
	if len(traj) == 0 {
		return Assessment{}, nil, fmt.Errorf("empty trajectory")
	}
	all := make([]Assessment, len(traj))
	for i, d := range traj {
		all[i] = AnalyzeStress(d.SoilMoisture, wiltingPoint, fieldCapacity)
	}
	return all[0], all, nil
}

func statusFor(idx float64) Status {
	switch {
	case idx < 20:
		return StatusOptimal
	case idx < 40:
		return StatusMild
	case idx < 60:
		return StatusModerate
	case idx < 80:
		return StatusSevere
	default:
		return StatusCritical
	}
}

var descriptions = map[Status]string{
	StatusOptimal:  "Soil moisture is optimal. No irrigation needed.",
	StatusMild:     "Mild water stress. Monitor closely, irrigation may be needed soon.",
	StatusModerate: "Moderate water stress. Irrigation recommended within 1-2 days.",
	StatusSevere:   "Severe water stress. Immediate irrigation required.",
	StatusCritical: "Critical water stress. Crop damage likely without immediate irrigation.",
}
