package kcpredictor

import "github.com/agrofog/irrigation-engine/internal/model/entities"

// cropDatabase holds the crops the predictor has stage calendars for.
// Durations and coefficients follow FAO-56 planting tables.
var cropDatabase = map[string]entities.CropParameters{
	"wheat": {
		ID: "wheat", Name: "Wheat", Type: "cereal",
		KcInit: 0.3, KcMid: 1.15, KcEnd: 0.4,
		RootDepthCm: 150, CriticalDepletionFraction: 0.55,
		GrowthStages: []entities.GrowthStageSpan{
			{Stage: entities.StageInitial, DurationDays: 20, Kc: 0.3},
			{Stage: entities.StageDevelopment, DurationDays: 30, Kc: 0.7},
			{Stage: entities.StageMidSeason, DurationDays: 50, Kc: 1.15},
			{Stage: entities.StageLateSeason, DurationDays: 30, Kc: 0.4},
		},
	},
	"rice": {
		ID: "rice", Name: "Rice", Type: "cereal",
		KcInit: 1.05, KcMid: 1.20, KcEnd: 0.75,
		RootDepthCm: 50, CriticalDepletionFraction: 0.20,
		GrowthStages: []entities.GrowthStageSpan{
			{Stage: entities.StageInitial, DurationDays: 30, Kc: 1.05},
			{Stage: entities.StageDevelopment, DurationDays: 30, Kc: 1.10},
			{Stage: entities.StageMidSeason, DurationDays: 60, Kc: 1.20},
			{Stage: entities.StageLateSeason, DurationDays: 30, Kc: 0.75},
		},
	},
	"maize": {
		ID: "maize", Name: "Maize", Type: "cereal",
		KcInit: 0.3, KcMid: 1.20, KcEnd: 0.6,
		RootDepthCm: 180, CriticalDepletionFraction: 0.55,
		GrowthStages: []entities.GrowthStageSpan{
			{Stage: entities.StageInitial, DurationDays: 25, Kc: 0.3},
			{Stage: entities.StageDevelopment, DurationDays: 40, Kc: 0.8},
			{Stage: entities.StageMidSeason, DurationDays: 45, Kc: 1.20},
			{Stage: entities.StageLateSeason, DurationDays: 30, Kc: 0.6},
		},
	},
	"tomato": {
		ID: "tomato", Name: "Tomato", Type: "vegetable",
		KcInit: 0.6, KcMid: 1.15, KcEnd: 0.8,
		RootDepthCm: 150, CriticalDepletionFraction: 0.40,
		GrowthStages: []entities.GrowthStageSpan{
			{Stage: entities.StageInitial, DurationDays: 30, Kc: 0.6},
			{Stage: entities.StageDevelopment, DurationDays: 40, Kc: 1.0},
			{Stage: entities.StageMidSeason, DurationDays: 50, Kc: 1.15},
			{Stage: entities.StageLateSeason, DurationDays: 30, Kc: 0.8},
		},
	},
}

func init() {
	// "corn" is accepted as an alias for maize.
	cropDatabase["corn"] = cropDatabase["maize"]
}

// AvailableCrops lists the crops the predictor resolves.
func AvailableCrops() []string {
	out := make([]string, 0, len(cropDatabase))
	for k := range cropDatabase {
		out = append(out, k)
	}
	return out
}
