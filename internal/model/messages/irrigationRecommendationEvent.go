package messages

import "time"

// IrrigationRecommendationEvent is published by the decision service to record
// WHAT the engine recommended and WHY. It is a recommendation, not a command.
type IrrigationRecommendationEvent struct {
	FieldID      string    `json:"field_id"`
	SensorID     string    `json:"sensor_id"`
	Needed       bool      `json:"needed"`
	ScheduledAt  time.Time `json:"scheduled_at,omitempty"`
	AmountMm     float64   `json:"amount_mm"`
	AmountLiters float64   `json:"amount_liters,omitempty"`
	Urgency      string    `json:"urgency"`
	Confidence   float64   `json:"confidence"`
	StressIndex  float64   `json:"stress_index"`
	Reason       string    `json:"reason"`
	Timestamp    time.Time `json:"timestamp"`
}
