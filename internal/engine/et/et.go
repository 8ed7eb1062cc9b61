// Package et estimates reference evapotranspiration from temperature data.
package et

import (
	"math"

	"github.com/agrofog/irrigation-engine/internal/model/entities"
)

// Hargreaves returns ET0 in mm/day from min/max air temperature using the
// simplified Hargreaves equation:
//
//	ET0 = 0.0023 * (Tmean + 17.8) * sqrt(Tmax - Tmin) * Ra
//
// Ra is the extraterrestrial-radiation term; RaSimplified gives usable
// mm/day without latitude data.
func Hargreaves(tminC, tmaxC, ra float64) float64 {
	tmean := (tminC + tmaxC) / 2
	et0 := 0.0023 * (tmean + 17.8) * math.Sqrt(math.Max(tmaxC-tminC, 0)) * ra
	return math.Max(0, et0)
}

// RaSimplified is the constant radiation factor used when no latitude/date is
// available. Same approximation the weather client applies.
const RaSimplified = 0.408

// HumidityAdjust damps ET0 for humid air. The factor is clamped to [0.8, 1.2];
// humidity 0 is treated as unknown and leaves ET0 untouched.
func HumidityAdjust(et0, humidityPct float64) float64 {
	if humidityPct <= 0 {
		return et0
	}
	f := 1 - (humidityPct-50)*0.001
	f = math.Max(0.8, math.Min(1.2, f))
	return et0 * f
}

// ForDay resolves the reference ET0 of a forecast day: the supplied ET0Mm when
// present, otherwise Hargreaves from the day's temperatures with the humidity
// adjustment applied.
func ForDay(day entities.DailyWeather) float64 {
	if day.ET0Mm > 0 {
		return day.ET0Mm
	}
	if day.TempMaxC == 0 && day.TempMinC == 0 {
		return 0
	}
	return HumidityAdjust(Hargreaves(day.TempMinC, day.TempMaxC, RaSimplified), day.Humidity)
}

// Crop converts reference ET0 to crop evapotranspiration: ETc = ET0 * Kc.
func Crop(et0, kc float64) float64 {
	return et0 * kc
}
