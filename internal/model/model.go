package model

import (
	"github.com/agrofog/irrigation-engine/internal/model/entities"
	"github.com/agrofog/irrigation-engine/internal/model/messages"
)

// Aliases exposing common types to the services.

type (
	SensorData                    = messages.SensorData
	IrrigationRecommendationEvent = messages.IrrigationRecommendationEvent
	MoistureAnomalyEvent          = messages.MoistureAnomalyEvent
	Field                         = entities.Field
	SoilProfile                   = entities.SoilProfile
	CropParameters                = entities.CropParameters
	DailyWeather                  = entities.DailyWeather
	GrowthStage                   = entities.GrowthStage
)
