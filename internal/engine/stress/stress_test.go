package stress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrofog/irrigation-engine/internal/engine/waterbalance"
)

// fc=35 wp=15 puts the zero-stress threshold at 23%.
const (
	fc = 35.0
	wp = 15.0
)

func TestAnalyzeStress_Classification(t *testing.T) {
	cases := []struct {
		moisture float64
		status   Status
	}{
		{30, StatusOptimal},   // index 0
		{21, StatusMild},      // index 25
		{19.5, StatusModerate}, // index 43.75
		{18, StatusSevere},    // index 62.5
		{16, StatusCritical},  // index 87.5
		{10, StatusCritical},  // index 100
	}
	for _, tc := range cases {
		a := AnalyzeStress(tc.moisture, wp, fc)
		assert.Equal(t, tc.status, a.Status, "moisture %.1f (index %.1f)", tc.moisture, a.CurrentIndex)
		assert.NotEmpty(t, a.Description)
	}
}

func TestAnalyzeStress_IndexMatchesWaterBalance(t *testing.T) {
	for m := 10.0; m <= 35; m += 2.5 {
		a := AnalyzeStress(m, wp, fc)
		assert.InDelta(t, waterbalance.CalculateWaterStress(m, fc, wp), a.CurrentIndex, 1e-9)
	}
}

func TestNeedsIrrigation_AboveThreshold(t *testing.T) {
	v := NeedsIrrigation(30, 24, wp, fc)
	assert.False(t, v.Needed)
	assert.Equal(t, UrgencyNone, v.Urgency)
}

func TestNeedsIrrigation_UrgencyLadder(t *testing.T) {
	cases := []struct {
		moisture float64
		urgency  Urgency
	}{
		{21, UrgencyLow},      // index 25
		{19.5, UrgencyMedium}, // index ~43.8
		{18, UrgencyHigh},     // index 62.5
		{16, UrgencyCritical}, // index 87.5
	}
	for _, tc := range cases {
		v := NeedsIrrigation(tc.moisture, 24, wp, fc)
		require.True(t, v.Needed, "moisture %.1f", tc.moisture)
		assert.Equal(t, tc.urgency, v.Urgency, "moisture %.1f", tc.moisture)
		assert.NotEmpty(t, v.Reason)
	}
}

func TestDaysUntilStress(t *testing.T) {
	traj := waterbalance.Trajectory{
		{SoilMoisture: 28},
		{SoilMoisture: 25},
		{SoilMoisture: 23.5},
		{SoilMoisture: 22},
	}
	assert.Equal(t, 3, DaysUntilStress(traj, 23))
	assert.Equal(t, 0, DaysUntilStress(traj, 30))
	assert.Equal(t, -1, DaysUntilStress(traj, 20))
	assert.Equal(t, -1, DaysUntilStress(nil, 23))
}

func TestAnalyzeTrend(t *testing.T) {
	traj := waterbalance.Trajectory{
		{SoilMoisture: 26},
		{SoilMoisture: 22},
		{SoilMoisture: 18},
	}
	first, perDay, err := AnalyzeTrend(traj, wp, fc)
	require.NoError(t, err)
	require.Len(t, perDay, 3)
	assert.Equal(t, first, perDay[0])
	assert.Greater(t, perDay[2].CurrentIndex, perDay[0].CurrentIndex)

	_, _, err = AnalyzeTrend(nil, wp, fc)
	assert.Error(t, err)
}
