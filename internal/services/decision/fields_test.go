package decision

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrofog/irrigation-engine/internal/engine/anomaly"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fields.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFields_WrappedForm(t *testing.T) {
	fields, err := loadFields(writeTemp(t, `{"fields": [
		{"id": "field1", "crop_type": "wheat", "soil_type": "loamy", "area_ha": 2,
		 "planting_date": "2026-03-22", "latitude": 41.9, "longitude": 12.5,
		 "sensors": ["s1", "s2"]}
	]}`))
	require.NoError(t, err)
	require.Len(t, fields, 1)

	f := fields["field1"]
	assert.Equal(t, "wheat", f.CropType)
	assert.Equal(t, "loamy", f.SoilType)
	assert.Equal(t, time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC), f.PlantingDate)
	assert.True(t, f.HasSensor("s2"))
	assert.False(t, f.HasSensor("s3"))
}

func TestLoadFields_BareArrayForm(t *testing.T) {
	fields, err := loadFields(writeTemp(t, `[
		{"id": "a", "crop_type": "rice", "soil_type": "clay", "planting_date": "2026-05-01T00:00:00Z", "sensors": ["s1"]}
	]`))
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "rice", fields["a"].CropType)
}

func TestLoadFields_Errors(t *testing.T) {
	_, err := loadFields(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = loadFields(writeTemp(t, `{"fields": [{"crop_type": "wheat"}]}`))
	assert.ErrorContains(t, err, "without id")

	_, err = loadFields(writeTemp(t, `{"fields": [{"id": "x", "planting_date": "soon"}]}`))
	assert.ErrorContains(t, err, "bad planting_date")
}

func reading(v float64) anomaly.Reading {
	return anomaly.Reading{Value: v, Timestamp: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func TestHistoryStore_BoundedWindow(t *testing.T) {
	h := newHistoryStore(3)
	for i := 0; i < 5; i++ {
		h.Append("k", reading(float64(i)))
	}

	w := h.Window("k")
	require.Len(t, w, 3)
	assert.Equal(t, 2.0, w[0].Value)
	assert.Equal(t, 4.0, w[2].Value)
}

func TestHistoryStore_WindowIsACopy(t *testing.T) {
	h := newHistoryStore(4)
	h.Append("k", reading(10))

	w := h.Window("k")
	w[0].Value = 99

	assert.Equal(t, 10.0, h.Window("k")[0].Value)
	assert.Empty(t, h.Window("other"))
}
