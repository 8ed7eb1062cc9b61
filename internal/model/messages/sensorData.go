package messages

import (
	"time"
)

// SensorData carries one soil-moisture reading, raw or aggregated.
type SensorData struct {
	FieldID    string    `json:"field_id"`
	SensorID   string    `json:"sensor_id"`
	Moisture   float64   `json:"moisture"` // volumetric %
	Aggregated bool      `json:"aggregated"`
	Timestamp  time.Time `json:"timestamp"`
}
