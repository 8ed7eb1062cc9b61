package fieldparams

import "github.com/agrofog/irrigation-engine/internal/model/entities"

// stageKc holds the four FAO-56 stage coefficients of one crop.
type stageKc struct {
	initial     float64
	development float64
	midSeason   float64
	lateSeason  float64
}

type cropRecord struct {
	name            string
	kc              stageKc
	depletionFactor float64 // critical depletion fraction p, 0..1
	rootDepthCm     float64
}

// cropTable carries FAO Irrigation and Drainage Paper 56 values.
// Heuristic table carried over unchanged; do not re-tune.
var cropTable = map[string]cropRecord{
	"rice":      {"Rice", stageKc{1.05, 1.10, 1.20, 0.90}, 0.20, 50},
	"wheat":     {"Wheat", stageKc{0.30, 0.75, 1.15, 0.40}, 0.55, 100},
	"maize":     {"Maize", stageKc{0.40, 0.80, 1.20, 0.60}, 0.55, 100},
	"sugarcane": {"Sugarcane", stageKc{0.40, 0.75, 1.25, 0.75}, 0.65, 120},
	"tomato":    {"Tomato", stageKc{0.60, 0.90, 1.15, 0.80}, 0.40, 70},
	"soybean":   {"Soybean", stageKc{0.40, 0.70, 1.15, 0.50}, 0.50, 80},
	"groundnut": {"Groundnut", stageKc{0.40, 0.70, 1.15, 0.60}, 0.50, 60},
	"cotton":    {"Cotton", stageKc{0.35, 0.70, 1.15, 0.70}, 0.65, 120},
	"banana":    {"Banana", stageKc{0.50, 0.80, 1.10, 1.00}, 0.35, 60},
	"potato":    {"Potato", stageKc{0.50, 0.75, 1.15, 0.75}, 0.35, 60},
	"onion":     {"Onion", stageKc{0.50, 0.75, 1.05, 0.85}, 0.30, 40},
	"cabbage":   {"Cabbage", stageKc{0.40, 0.75, 1.05, 0.95}, 0.45, 50},
	"mustard":   {"Mustard", stageKc{0.35, 0.70, 1.10, 0.60}, 0.55, 70},
	"sunflower": {"Sunflower", stageKc{0.35, 0.75, 1.15, 0.60}, 0.60, 100},
}

func (r cropRecord) kcFor(stage entities.GrowthStage) float64 {
	switch stage {
	case entities.StageInitial:
		return r.kc.initial
	case entities.StageDevelopment:
		return r.kc.development
	case entities.StageMidSeason:
		return r.kc.midSeason
	default:
		return r.kc.lateSeason
	}
}

// AvailableCrops lists the crop identifiers the table resolves directly.
func AvailableCrops() []string {
	out := make([]string, 0, len(cropTable))
	for k := range cropTable {
		out = append(out, k)
	}
	return out
}
