package entities

import "time"

// Field represents a tract of land growing a particular crop,
// monitored by one or more moisture sensors.
type Field struct {
	ID           string    `json:"id"`
	CropType     string    `json:"crop_type"` // e.g. "wheat", "maize"
	SoilType     string    `json:"soil_type"` // "sandy" | "loamy" | "clay"
	AreaHa       float64   `json:"area_ha,omitempty"`
	PlantingDate time.Time `json:"planting_date"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Sensors      []string  `json:"sensors"` // sensor IDs reporting for this field
}

// HasSensor reports whether sensorID belongs to this field.
func (f *Field) HasSensor(sensorID string) bool {
	for _, id := range f.Sensors {
		if id == sensorID {
			return true
		}
	}
	return false
}

// DaysSincePlanting at a given instant; negative values clamp to 0.
func (f *Field) DaysSincePlanting(now time.Time) int {
	if f.PlantingDate.IsZero() || now.Before(f.PlantingDate) {
		return 0
	}
	return int(now.Sub(f.PlantingDate).Hours() / 24)
}
