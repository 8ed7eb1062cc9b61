package decision

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrofog/irrigation-engine/internal/model/entities"
	"github.com/agrofog/irrigation-engine/internal/model/messages"
	"github.com/agrofog/irrigation-engine/internal/observability"
)

// --- fakes ---

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type published struct {
	topic   string
	qos     byte
	message string
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *fakePublisher) PublishMessage(message string) error {
	return p.PublishToQos("", 0, false, message)
}
func (p *fakePublisher) PublishToQos(topic string, qos byte, _ bool, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{topic: topic, qos: qos, message: message})
	return nil
}
func (p *fakePublisher) Close() {}

func (p *fakePublisher) byPrefix(prefix string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, m := range p.sent {
		if len(m.topic) >= len(prefix) && m.topic[:len(prefix)] == prefix {
			out = append(out, m)
		}
	}
	return out
}

type fakeWeather struct {
	forecast []entities.DailyWeather
	err      error
}

func (w *fakeWeather) Forecast(_ context.Context, _, _ float64, _ int) ([]entities.DailyWeather, error) {
	return w.forecast, w.err
}

// --- helpers ---

var testNow = time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)

func mildForecast(days int) []entities.DailyWeather {
	start := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	fc := make([]entities.DailyWeather, days)
	for i := range fc {
		fc[i] = entities.DailyWeather{
			Date:     start.AddDate(0, 0, i),
			ET0Mm:    4,
			TempMinC: 20,
			TempMaxC: 25,
			Humidity: 65,
		}
	}
	return fc
}

func writeFieldsFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fields.json")
	content := `{"fields": [{
		"id": "field1",
		"crop_type": "wheat",
		"soil_type": "loamy",
		"area_ha": 2,
		"planting_date": "2026-03-22",
		"latitude": 41.9,
		"longitude": 12.5,
		"sensors": ["s1", "s2"]
	}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestService(t *testing.T, weather WeatherClient) (*Service, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	svc, err := NewService(nil, pub, weather, Config{
		FieldsPath: writeFieldsFile(t),
	}, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting())
	require.NoError(t, err)
	return svc, pub
}

func sensorPayload(t *testing.T, moisture float64, aggregated bool) []byte {
	t.Helper()
	b, err := json.Marshal(messages.SensorData{
		FieldID:    "field1",
		SensorID:   "s1",
		Moisture:   moisture,
		Aggregated: aggregated,
		Timestamp:  testNow,
	})
	require.NoError(t, err)
	return b
}

func handle(t *testing.T, svc *Service, payload []byte) {
	t.Helper()
	err := svc.handleSensorData("", &fakeMessage{topic: "sensor/aggregated/field1/s1", payload: payload})
	require.NoError(t, err)
}

// --- tests ---

func TestHandle_PublishesRecommendationWhenStressed(t *testing.T) {
	svc, pub := newTestService(t, &fakeWeather{forecast: mildForecast(7)})

	handle(t, svc, sensorPayload(t, 20, true))

	recs := pub.byPrefix("event/irrigationRecommendation/")
	require.Len(t, recs, 1)
	assert.Equal(t, "event/irrigationRecommendation/field1/s1", recs[0].topic)
	assert.Equal(t, byte(1), recs[0].qos)

	var evt messages.IrrigationRecommendationEvent
	require.NoError(t, json.Unmarshal([]byte(recs[0].message), &evt))
	assert.Equal(t, "field1", evt.FieldID)
	assert.Equal(t, "s1", evt.SensorID)
	assert.True(t, evt.Needed)
	assert.Equal(t, "critical", evt.Urgency)
	assert.Greater(t, evt.AmountMm, 0.0)
	assert.Greater(t, evt.AmountLiters, 0.0)
	assert.Greater(t, evt.StressIndex, 0.0)
	assert.NotEmpty(t, evt.Reason)
	assert.Equal(t, testNow, evt.Timestamp)
}

func TestHandle_AdequateMoistureRecommendsNothing(t *testing.T) {
	svc, pub := newTestService(t, &fakeWeather{forecast: mildForecast(7)})

	handle(t, svc, sensorPayload(t, 33, true))

	recs := pub.byPrefix("event/irrigationRecommendation/")
	require.Len(t, recs, 1)

	var evt messages.IrrigationRecommendationEvent
	require.NoError(t, json.Unmarshal([]byte(recs[0].message), &evt))
	assert.False(t, evt.Needed)
	assert.Zero(t, evt.AmountMm)
	assert.Equal(t, "none", evt.Urgency)
}

func TestHandle_IgnoresNonAggregated(t *testing.T) {
	svc, pub := newTestService(t, &fakeWeather{forecast: mildForecast(7)})

	handle(t, svc, sensorPayload(t, 20, false))

	assert.Empty(t, pub.sent)
}

func TestHandle_IgnoresUnknownFieldAndSensor(t *testing.T) {
	svc, pub := newTestService(t, &fakeWeather{forecast: mildForecast(7)})

	b, err := json.Marshal(messages.SensorData{FieldID: "ghost", SensorID: "s1", Moisture: 20, Aggregated: true, Timestamp: testNow})
	require.NoError(t, err)
	handle(t, svc, b)

	b, err = json.Marshal(messages.SensorData{FieldID: "field1", SensorID: "s9", Moisture: 20, Aggregated: true, Timestamp: testNow})
	require.NoError(t, err)
	handle(t, svc, b)

	assert.Empty(t, pub.sent)
}

func TestHandle_RejectsHardInvalidReading(t *testing.T) {
	svc, pub := newTestService(t, &fakeWeather{forecast: mildForecast(7)})

	handle(t, svc, sensorPayload(t, 150, true))

	anoms := pub.byPrefix("event/moistureAnomaly/")
	require.Len(t, anoms, 1)
	assert.Equal(t, "event/moistureAnomaly/field1/s1", anoms[0].topic)

	var evt messages.MoistureAnomalyEvent
	require.NoError(t, json.Unmarshal([]byte(anoms[0].message), &evt))
	assert.InDelta(t, 100, evt.Severity, 1e-9)
	assert.Contains(t, evt.Reason, "invalid sensor reading")

	assert.Empty(t, pub.byPrefix("event/irrigationRecommendation/"), "invalid readings must not produce recommendations")
}

func TestHandle_SoftAnomalyStillRecommends(t *testing.T) {
	svc, pub := newTestService(t, &fakeWeather{forecast: mildForecast(7)})

	handle(t, svc, sensorPayload(t, 30, true))
	// second reading drops 10 points: plausible, no anomaly
	b, err := json.Marshal(messages.SensorData{FieldID: "field1", SensorID: "s1", Moisture: 20, Aggregated: true, Timestamp: testNow.Add(time.Hour)})
	require.NoError(t, err)
	handle(t, svc, b)
	// third collapses by 19.5 more: possible leak, but still a usable value
	b, err = json.Marshal(messages.SensorData{FieldID: "field1", SensorID: "s1", Moisture: 0.5, Aggregated: true, Timestamp: testNow.Add(2 * time.Hour)})
	require.NoError(t, err)
	handle(t, svc, b)

	assert.NotEmpty(t, pub.byPrefix("event/moistureAnomaly/"))
	assert.Len(t, pub.byPrefix("event/irrigationRecommendation/"), 3,
		"a soft anomaly degrades confidence in the reading but does not suppress the decision")
}

func TestHandle_DedupsIdenticalPayloads(t *testing.T) {
	svc, pub := newTestService(t, &fakeWeather{forecast: mildForecast(7)})

	payload := sensorPayload(t, 20, true)
	handle(t, svc, payload)
	handle(t, svc, payload)

	assert.Len(t, pub.byPrefix("event/irrigationRecommendation/"), 1)
}

func TestHandle_NoForecastNoRecommendation(t *testing.T) {
	svc, pub := newTestService(t, &fakeWeather{err: context.DeadlineExceeded})

	handle(t, svc, sensorPayload(t, 20, true))

	assert.Empty(t, pub.byPrefix("event/irrigationRecommendation/"))
}

func TestHandle_BadPayloadIsDropped(t *testing.T) {
	svc, pub := newTestService(t, &fakeWeather{forecast: mildForecast(7)})

	require.NoError(t, svc.handleSensorData("", &fakeMessage{payload: []byte("{not json")}))
	assert.Empty(t, pub.sent)
}

var _ mqtt.Message = (*fakeMessage)(nil)
