package entities

import "time"

// DailyWeather is one forecast day. ET0Mm may be zero when only temperatures
// are available; the engine derives it with Hargreaves in that case.
type DailyWeather struct {
	Date            time.Time `json:"date"`
	PrecipitationMm float64   `json:"precipitation_mm"`
	ET0Mm           float64   `json:"et0_mm"`
	TempMinC        float64   `json:"temp_min_c"`
	TempMaxC        float64   `json:"temp_max_c"`
	Humidity        float64   `json:"humidity"` // %, 0 means unknown
}
