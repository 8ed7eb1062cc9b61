package waterbalance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrofog/irrigation-engine/internal/model/entities"
)

func testProfile() entities.SoilProfile {
	return entities.SoilProfile{
		FieldCapacity:             35,
		WiltingPoint:              15,
		StressThreshold:           23,
		RootDepthCm:               100,
		CriticalDepletionFraction: 0.5,
	}
}

func TestCalculateDailyBalance_SimpleDepletion(t *testing.T) {
	res, err := CalculateDailyBalance(Inputs{
		Profile:         testProfile(),
		CurrentMoisture: 30,
		ETcMm:           5,
	})
	require.NoError(t, err)

	// 300mm stored over 1000mm root zone, minus 5mm ETc -> 29.5%
	assert.InDelta(t, 29.5, res.SoilMoisture, 1e-9)
	assert.Zero(t, res.DrainageMm)
}

func TestCalculateDailyBalance_DrainsAboveFieldCapacity(t *testing.T) {
	res, err := CalculateDailyBalance(Inputs{
		Profile:         testProfile(),
		CurrentMoisture: 34,
		PrecipitationMm: 30,
	})
	require.NoError(t, err)

	assert.InDelta(t, 35, res.SoilMoisture, 1e-9)
	assert.InDelta(t, 20, res.DrainageMm, 1e-9)
}

func TestCalculateDailyBalance_FlooredAtWiltingPoint(t *testing.T) {
	res, err := CalculateDailyBalance(Inputs{
		Profile:         testProfile(),
		CurrentMoisture: 15.2,
		ETcMm:           10,
	})
	require.NoError(t, err)

	assert.InDelta(t, 15, res.SoilMoisture, 1e-9)
	assert.InDelta(t, 100, res.Stress, 1e-9)
}

func TestCalculateDailyBalance_RejectsInvalidMoisture(t *testing.T) {
	for _, m := range []float64{-5, 101, 150} {
		_, err := CalculateDailyBalance(Inputs{Profile: testProfile(), CurrentMoisture: m})
		assert.ErrorIs(t, err, ErrInvalidMoisture, "moisture %.0f", m)
	}
}

func TestCalculateDailyBalance_Idempotent(t *testing.T) {
	in := Inputs{
		Profile:         testProfile(),
		CurrentMoisture: 28,
		ETcMm:           4.2,
		PrecipitationMm: 1.5,
		Date:            time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	a, err := CalculateDailyBalance(in)
	require.NoError(t, err)
	b, err := CalculateDailyBalance(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCalculateWaterStress_Boundaries(t *testing.T) {
	// RAW threshold for fc=35, wp=15 sits at 35 - 20*0.6 = 23.
	assert.Zero(t, CalculateWaterStress(35, 35, 15))
	assert.Zero(t, CalculateWaterStress(23, 35, 15))
	assert.InDelta(t, 50, CalculateWaterStress(19, 35, 15), 1e-9)
	assert.InDelta(t, 100, CalculateWaterStress(15, 35, 15), 1e-9)
	assert.InDelta(t, 100, CalculateWaterStress(5, 35, 15), 1e-9)
}

func TestCalculateWaterStress_MonotonicInMoisture(t *testing.T) {
	prev := CalculateWaterStress(35, 35, 15)
	for m := 34.0; m >= 15; m-- {
		cur := CalculateWaterStress(m, 35, 15)
		assert.GreaterOrEqual(t, cur, prev, "stress must not decrease as moisture falls (m=%.0f)", m)
		prev = cur
	}
}

func TestPredictDaysToWiltingPoint(t *testing.T) {
	assert.Equal(t, 0, PredictDaysToWiltingPoint(15, 15, 5, 0))
	assert.Equal(t, 0, PredictDaysToWiltingPoint(10, 15, 5, 0))
	assert.Equal(t, DaysToWiltingSentinel, PredictDaysToWiltingPoint(30, 15, 2, 2))
	assert.Equal(t, DaysToWiltingSentinel, PredictDaysToWiltingPoint(30, 15, 2, 5))

	// deficit 21.653 points at 0.52 points/day -> 42 days
	assert.Equal(t, 42, PredictDaysToWiltingPoint(41.653, 20, 5.2, 0))
}

func TestCalculateIrrigationRequirement(t *testing.T) {
	assert.Zero(t, CalculateIrrigationRequirement(60, 60, 150, 0.85))
	assert.Zero(t, CalculateIrrigationRequirement(70, 60, 150, 0.85))

	// 30-point deficit over 150cm at 85% efficiency
	assert.InDelta(t, 53, CalculateIrrigationRequirement(30, 60, 150, 0.85), 1e-9)

	// efficiency <= 0 selects the default
	assert.InDelta(t, 53, CalculateIrrigationRequirement(30, 60, 150, 0), 1e-9)
}

func TestSimulateFuture_DepletesWithoutRain(t *testing.T) {
	traj, err := SimulateFuture(Inputs{
		Profile:         testProfile(),
		CurrentMoisture: 30,
		ETcMm:           5,
		Date:            time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}, 5, nil, nil)
	require.NoError(t, err)
	require.Len(t, traj, 5)

	prev := 30.0
	for i, d := range traj {
		assert.Less(t, d.SoilMoisture, prev, "day %d", i)
		prev = d.SoilMoisture
	}
	assert.Equal(t, time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC), traj[4].Date)
}

func TestSimulateFuture_ShortForecastPadsWithZeros(t *testing.T) {
	traj, err := SimulateFuture(Inputs{
		Profile:         testProfile(),
		CurrentMoisture: 30,
		ETcMm:           5,
	}, 4, []float64{5, 5}, nil)
	require.NoError(t, err)
	require.Len(t, traj, 4)

	assert.InDelta(t, 5, traj[1].PrecipitationMm, 1e-9)
	assert.Zero(t, traj[2].PrecipitationMm)
	assert.Zero(t, traj[3].PrecipitationMm)
}
