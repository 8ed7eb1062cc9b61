// Package anomaly validates moisture sensor readings before the rest of the
// pipeline trusts them. Rules are evaluated independently against a sliding
// window of prior readings; the verdict carries the worst-case severity, not
// the sum. Severity weights are inherited heuristics; do not re-tune.
package anomaly

import (
	"math"
	"strings"
	"time"
)

// Reading is one sensor sample.
type Reading struct {
	Value     float64   `json:"value"` // moisture %
	Timestamp time.Time `json:"timestamp"`
}

// Range is the caller-expected plausible band for a sensor.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Verdict is the per-reading validation outcome.
type Verdict struct {
	IsAnomaly      bool    `json:"is_anomaly"`
	Severity       float64 `json:"severity"` // 0..100
	Reason         string  `json:"reason"`
	Recommendation string  `json:"recommendation"`
}

// Flagged pairs an anomalous reading with its severity.
type Flagged struct {
	Reading  Reading `json:"reading"`
	Severity float64 `json:"severity"`
	Reason   string  `json:"reason"`
}

const (
	severityOutOfRange   = 70
	severityDrop         = 80
	severitySpike        = 60
	severityInvalid      = 100
	zScoreFlagThreshold  = 2.0
	zScoreSeverityScale  = 30
	dropThresholdPts     = 20 // sudden drop beyond this many points
	spikeThresholdPts    = 30
	clusterSeverityScale = 40

	// Neutral prior used when no history exists; proceeding beats failing,
	// and the wide stdev keeps the z-rule quiet until real data arrives.
	priorMean  = 50
	priorStdev = 10
)

// DetectMoistureAnomaly checks one reading against its history and expected
// range. All fired rule explanations are concatenated into the reason.
func DetectMoistureAnomaly(current Reading, history []Reading, expected Range) Verdict {
	mean, stdev := statistics(history)

	var reasons []string
	var severity float64

	// 1. Outside the caller's expected band.
	if current.Value < expected.Min || current.Value > expected.Max {
		reasons = append(reasons, "value outside expected range")
		severity = math.Max(severity, severityOutOfRange)
	}

	// 2. Statistical outlier against the window.
	z := math.Abs((current.Value - mean) / stdev)
	if z > zScoreFlagThreshold {
		reasons = append(reasons, "statistical outlier detected")
		severity = math.Max(severity, math.Min(100, z*zScoreSeverityScale))
	}

	// 3/4. Step change against the immediately preceding reading.
	if len(history) > 0 {
		change := current.Value - history[len(history)-1].Value
		if change < -dropThresholdPts {
			reasons = append(reasons, "sudden moisture drop - possible leak or sensor malfunction")
			severity = math.Max(severity, severityDrop)
		} else if change > spikeThresholdPts {
			reasons = append(reasons, "unusual moisture spike - check sensor calibration")
			severity = math.Max(severity, severitySpike)
		}
	}

	// 5. Physically impossible values.
	if current.Value < 0 || current.Value > 100 {
		reasons = append(reasons, "invalid sensor reading")
		severity = severityInvalid
	}

	// 6. Distance from the nearest moisture regime cluster.
	if fired, sev, reason := clusterAnomaly(current.Value, mean, stdev); fired {
		reasons = append(reasons, reason)
		severity = math.Max(severity, sev)
	}

	if len(reasons) == 0 {
		return Verdict{IsAnomaly: false, Severity: 0, Reason: "normal reading", Recommendation: "continue monitoring"}
	}
	return Verdict{
		IsAnomaly:      true,
		Severity:       severity,
		Reason:         strings.Join(reasons, "; "),
		Recommendation: recommend(reasons, current.Value),
	}
}

// DetectBatchAnomalies evaluates each reading against only the readings
// strictly before it, so results are stable under streaming evaluation. The
// first reading has no history and is never flagged.
func DetectBatchAnomalies(readings []Reading, expected Range) []Flagged {
	var flagged []Flagged
	for i := 1; i < len(readings); i++ {
		v := DetectMoistureAnomaly(readings[i], readings[:i], expected)
		if v.IsAnomaly {
			flagged = append(flagged, Flagged{Reading: readings[i], Severity: v.Severity, Reason: v.Reason})
		}
	}
	return flagged
}

// statistics returns mean and standard deviation of the window, or the fixed
// neutral prior with zero history.
func statistics(history []Reading) (mean, stdev float64) {
	if len(history) == 0 {
		return priorMean, priorStdev
	}
	var sum float64
	for _, r := range history {
		sum += r.Value
	}
	mean = sum / float64(len(history))

	var sq float64
	for _, r := range history {
		d := r.Value - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(history)))
}

// clusterAnomaly is a fixed-center nearest-cluster test: low (~25), normal
// (running mean) and high (~75) moisture regimes, each with its own distance
// threshold. Flagged when the reading sits beyond twice the nearest threshold.
func clusterAnomaly(value, mean, stdev float64) (bool, float64, string) {
	type cluster struct {
		center, threshold float64
	}
	clusters := []cluster{
		{center: 25, threshold: 15},
		{center: mean, threshold: stdev * 1.5},
		{center: 75, threshold: 15},
	}

	nearest := clusters[0]
	nearestDist := math.Abs(value - clusters[0].center)
	for _, c := range clusters[1:] {
		if d := math.Abs(value - c.center); d < nearestDist {
			nearest, nearestDist = c, d
		}
	}

	if nearestDist > nearest.threshold*2 {
		sev := math.Min(100, nearestDist/math.Max(nearest.threshold, 1e-9)*clusterSeverityScale)
		return true, sev, "value does not fit typical moisture patterns"
	}
	return false, 0, ""
}

// recommend assembles action text from the matched rule categories, always
// ending with the generic trend review.
func recommend(reasons []string, value float64) string {
	var recs []string
	joined := strings.Join(reasons, " ")

	if strings.Contains(joined, "sensor") || strings.Contains(joined, "invalid") {
		recs = append(recs, "check sensor connections and calibration")
	}
	if strings.Contains(joined, "leak") {
		recs = append(recs, "inspect irrigation system for leaks")
	}
	if strings.Contains(joined, "spike") {
		recs = append(recs, "verify recent irrigation events")
	}
	if value < 20 {
		recs = append(recs, "consider emergency irrigation")
	} else if value > 80 {
		recs = append(recs, "check drainage system")
	}
	recs = append(recs, "review historical data trends")
	return strings.Join(recs, "; ")
}
