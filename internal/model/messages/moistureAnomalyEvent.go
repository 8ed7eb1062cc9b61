package messages

import "time"

// MoistureAnomalyEvent is published when a sensor reading fails validation.
type MoistureAnomalyEvent struct {
	FieldID        string    `json:"field_id"`
	SensorID       string    `json:"sensor_id"`
	Value          float64   `json:"value"`
	Severity       float64   `json:"severity"` // 0..100
	Reason         string    `json:"reason"`
	Recommendation string    `json:"recommendation"`
	Timestamp      time.Time `json:"timestamp"`
}
