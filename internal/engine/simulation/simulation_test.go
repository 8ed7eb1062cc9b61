package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrofog/irrigation-engine/internal/engine/waterbalance"
	"github.com/agrofog/irrigation-engine/internal/model/entities"
)

func testProfile() entities.SoilProfile {
	return entities.SoilProfile{
		FieldCapacity:             35,
		WiltingPoint:              15,
		StressThreshold:           24,
		RootDepthCm:               100,
		CriticalDepletionFraction: 0.55,
	}
}

func dryForecast(start time.Time, days int, et0 float64) []entities.DailyWeather {
	fc := make([]entities.DailyWeather, days)
	for i := range fc {
		fc[i] = entities.DailyWeather{Date: start.AddDate(0, 0, i), ET0Mm: et0}
	}
	return fc
}

func TestSimulate_HorizonMatchesForecast(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	res, err := Simulate(Input{
		CurrentMoisture: 30,
		Profile:         testProfile(),
		Forecast:        dryForecast(start, 7, 4),
		CropKc:          1.0,
	})
	require.NoError(t, err)
	require.Len(t, res.Trajectory, 7)
	assert.Equal(t, start, res.Trajectory[0].Date)
	assert.Equal(t, start.AddDate(0, 0, 6), res.Trajectory[6].Date)
}

func TestSimulate_DryRunDepletesMonotonically(t *testing.T) {
	res, err := Simulate(Input{
		CurrentMoisture: 30,
		Profile:         testProfile(),
		Forecast:        dryForecast(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 10, 5),
		CropKc:          1.0,
	})
	require.NoError(t, err)

	prev := 30.0
	for i, d := range res.Trajectory {
		assert.LessOrEqual(t, d.SoilMoisture, prev, "day %d", i)
		prev = d.SoilMoisture
	}
	// 0.5 points/day off 30% leaves 25% after 10 days, above the threshold
	assert.Nil(t, res.CriticalDate)
}

func TestSimulate_CriticalDateIsFirstThresholdCrossing(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	res, err := Simulate(Input{
		CurrentMoisture: 26,
		Profile:         testProfile(),
		Forecast:        dryForecast(start, 7, 10),
		CropKc:          1.0,
	})
	require.NoError(t, err)

	// 1 point/day off 26%: day index 1 (June 2) reaches 24%.
	require.NotNil(t, res.CriticalDate)
	assert.Equal(t, start.AddDate(0, 0, 1), *res.CriticalDate)
}

func TestSimulate_RainOffsetsDepletion(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fc := dryForecast(start, 5, 4)
	for i := range fc {
		fc[i].PrecipitationMm = 8
	}
	res, err := Simulate(Input{
		CurrentMoisture: 30,
		Profile:         testProfile(),
		Forecast:        fc,
		CropKc:          1.0,
	})
	require.NoError(t, err)

	last := res.Trajectory[len(res.Trajectory)-1]
	assert.Greater(t, last.SoilMoisture, 30.0)
	assert.Nil(t, res.CriticalDate)
	assert.InDelta(t, 40, res.Summary.TotalRainMm, 1e-9)
}

func TestSimulate_SummaryTotals(t *testing.T) {
	res, err := Simulate(Input{
		CurrentMoisture: 30,
		Profile:         testProfile(),
		Forecast:        dryForecast(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 4, 5),
		CropKc:          1.2,
	})
	require.NoError(t, err)

	assert.InDelta(t, 4*6.0, res.Summary.TotalETcMm, 1e-9)
	assert.Zero(t, res.Summary.TotalRainMm)
	assert.Equal(t, res.Summary.MinMoisture, res.Trajectory[3].SoilMoisture)
	assert.Equal(t, res.Summary.MaxMoisture, res.Trajectory[0].SoilMoisture)
}

func TestSimulate_EmptyForecast(t *testing.T) {
	res, err := Simulate(Input{CurrentMoisture: 30, Profile: testProfile(), CropKc: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Trajectory)
	assert.Nil(t, res.CriticalDate)
}

func TestSimulate_NeverSimulatesIrrigation(t *testing.T) {
	res, err := Simulate(Input{
		CurrentMoisture: 20,
		Profile:         testProfile(),
		Forecast:        dryForecast(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 3, 6),
		CropKc:          1.0,
	})
	require.NoError(t, err)
	for _, d := range res.Trajectory {
		assert.Zero(t, d.IrrigationMm)
	}
}

func TestSimulate_PropagatesInvalidMoisture(t *testing.T) {
	_, err := Simulate(Input{
		CurrentMoisture: 120,
		Profile:         testProfile(),
		Forecast:        dryForecast(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 2, 4),
		CropKc:          1.0,
	})
	assert.ErrorIs(t, err, waterbalance.ErrInvalidMoisture)
}
