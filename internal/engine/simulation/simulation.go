// Package simulation rolls the daily water balance over a weather-forecast
// horizon to produce a do-nothing soil-moisture trajectory: what happens if we
// do not irrigate. The scheduler decides from that whether action is required.
package simulation

import (
	"math"
	"time"

	"github.com/agrofog/irrigation-engine/internal/engine/et"
	"github.com/agrofog/irrigation-engine/internal/engine/waterbalance"
	"github.com/agrofog/irrigation-engine/internal/model/entities"
)

// Input describes one simulation run.
type Input struct {
	CurrentMoisture float64 // %
	Profile         entities.SoilProfile
	Forecast        []entities.DailyWeather // earliest first; fixes the horizon
	CropKc          float64
}

// Summary aggregates a trajectory for reporting.
type Summary struct {
	AvgMoisture     float64 `json:"avg_moisture"`
	MinMoisture     float64 `json:"min_moisture"`
	MaxMoisture     float64 `json:"max_moisture"`
	TotalETcMm      float64 `json:"total_etc_mm"`
	TotalRainMm     float64 `json:"total_rain_mm"`
	TotalDrainageMm float64 `json:"total_drainage_mm"`
}

// Result is a trajectory plus its summary. CriticalDate is the first simulated
// day whose moisture reaches the profile's stress threshold, nil if none.
type Result struct {
	Trajectory   waterbalance.Trajectory `json:"trajectory"`
	Summary      Summary                 `json:"summary"`
	CriticalDate *time.Time              `json:"critical_date,omitempty"`
}

// Simulate advances the water balance one forecast day at a time. Each day's
// ETc is ET0(day) x CropKc; irrigation is zero for every simulated day. The
// simulator never extrapolates past the supplied forecast.
func Simulate(in Input) (Result, error) {
	moisture := in.CurrentMoisture
	traj := make(waterbalance.Trajectory, 0, len(in.Forecast))
	var critical *time.Time

	for _, day := range in.Forecast {
		etc := et.Crop(et.ForDay(day), in.CropKc)
		res, err := waterbalance.CalculateDailyBalance(waterbalance.Inputs{
			Profile:         in.Profile,
			CurrentMoisture: moisture,
			ETcMm:           etc,
			PrecipitationMm: day.PrecipitationMm,
			Date:            day.Date,
		})
		if err != nil {
			return Result{}, err
		}
		traj = append(traj, res)
		moisture = res.SoilMoisture

		if critical == nil && res.SoilMoisture <= in.Profile.StressThreshold {
			d := day.Date
			critical = &d
		}
	}

	return Result{
		Trajectory:   traj,
		Summary:      summarize(traj),
		CriticalDate: critical,
	}, nil
}

func summarize(traj waterbalance.Trajectory) Summary {
	if len(traj) == 0 {
		return Summary{}
	}
	s := Summary{MinMoisture: math.MaxFloat64}
	var sum float64
	for _, d := range traj {
		sum += d.SoilMoisture
		s.MinMoisture = math.Min(s.MinMoisture, d.SoilMoisture)
		s.MaxMoisture = math.Max(s.MaxMoisture, d.SoilMoisture)
		s.TotalETcMm += d.ETcMm
		s.TotalRainMm += d.PrecipitationMm
		s.TotalDrainageMm += d.DrainageMm
	}
	s.AvgMoisture = sum / float64(len(traj))
	return s
}
