// Package decision hosts the service that turns aggregated soil-moisture
// readings into irrigation recommendations. For each accepted reading it
// validates the value against the sensor's recent history, simulates the
// no-irrigation moisture trajectory over the weather forecast and publishes
// the scheduler's verdict as an event. It recommends; it never actuates.
package decision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agrofog/irrigation-engine/internal/engine/anomaly"
	"github.com/agrofog/irrigation-engine/internal/engine/fieldparams"
	"github.com/agrofog/irrigation-engine/internal/engine/kcpredictor"
	"github.com/agrofog/irrigation-engine/internal/engine/scheduler"
	"github.com/agrofog/irrigation-engine/internal/engine/simulation"
	"github.com/agrofog/irrigation-engine/internal/engine/stress"
	"github.com/agrofog/irrigation-engine/internal/model/entities"
	"github.com/agrofog/irrigation-engine/internal/model/messages"
	"github.com/agrofog/irrigation-engine/internal/observability"
	"github.com/agrofog/irrigation-engine/pkg/dedup"
	"github.com/agrofog/irrigation-engine/pkg/rabbitmq"
)

const (
	defaultForecastDays = 7
	defaultHistoryLimit = 48
	weatherTimeout      = 5 * time.Second

	defaultRecommendationTopic = "event/irrigationRecommendation/{field}/{sensor}"
	defaultAnomalyTopic        = "event/moistureAnomaly/{field}/{sensor}"
)

// Config carries the service knobs the environment sets.
type Config struct {
	FieldsPath          string
	ForecastDays        int
	HistoryLimit        int
	RecommendationTopic string
	AnomalyTopic        string
}

// Service wires the engine packages to the broker.
type Service struct {
	consumer  rabbitmq.IConsumer[messages.SensorData]
	publisher rabbitmq.IPublisher
	weather   WeatherClient
	fields    map[string]entities.Field
	history   *historyStore
	deduper   *dedup.Deduper
	sched     *scheduler.Scheduler
	clock     clockwork.Clock
	metrics   *observability.Metrics

	forecastDays int
	recTopic     string
	anomTopic    string
}

// NewService loads the field registry and binds the handler to the consumer.
// A nil clock selects the real one; metrics must be non-nil.
func NewService(
	c rabbitmq.IConsumer[messages.SensorData],
	p rabbitmq.IPublisher,
	wc WeatherClient,
	cfg Config,
	clock clockwork.Clock,
	m *observability.Metrics,
) (*Service, error) {
	if p == nil {
		return nil, errors.New("publisher is nil")
	}
	if wc == nil {
		return nil, errors.New("weather client is nil")
	}
	if m == nil {
		return nil, errors.New("metrics is nil")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	fields, err := loadFields(cfg.FieldsPath)
	if err != nil {
		return nil, fmt.Errorf("load fields: %w", err)
	}

	days := cfg.ForecastDays
	if days <= 0 {
		days = defaultForecastDays
	}

	s := &Service{
		consumer:     c,
		publisher:    p,
		weather:      wc,
		fields:       fields,
		history:      newHistoryStore(cfg.HistoryLimit),
		deduper:      dedup.New(10*time.Minute, 20000),
		sched:        scheduler.New(clock),
		clock:        clock,
		metrics:      m,
		forecastDays: days,
		recTopic:     firstNonEmpty(cfg.RecommendationTopic, defaultRecommendationTopic),
		anomTopic:    firstNonEmpty(cfg.AnomalyTopic, defaultAnomalyTopic),
	}
	if c != nil {
		c.SetHandler(s.handleSensorData)
	}
	return s, nil
}

// Start consumes until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.consumer.ConsumeMessage(ctx)
	<-ctx.Done()
}

// handleSensorData is the end-to-end pipeline for one aggregated reading.
func (s *Service) handleSensorData(_ string, msg mqtt.Message) error {
	// Dedup before unmarshal: QoS1 redeliveries carry identical payloads.
	h := sha256.Sum256(msg.Payload())
	if !s.deduper.ShouldProcess(hex.EncodeToString(h[:])) {
		return nil
	}

	var sd messages.SensorData
	if err := json.Unmarshal(msg.Payload(), &sd); err != nil {
		log.Printf("decision: bad payload: %v", err)
		return nil
	}
	if !sd.Aggregated {
		return nil
	}

	field, ok := s.fields[sd.FieldID]
	if !ok {
		log.Printf("decision: unknown field %s (sensor %s)", sd.FieldID, sd.SensorID)
		return nil
	}
	if !field.HasSensor(sd.SensorID) {
		log.Printf("decision: sensor %s not registered for field %s", sd.SensorID, sd.FieldID)
		return nil
	}
	s.metrics.ReadingsProcessed.Inc()

	profile := fieldparams.GetProfile(field.CropType, field.SoilType)
	key := sd.FieldID + "|" + sd.SensorID

	ts := sd.Timestamp
	if ts.IsZero() {
		ts = s.clock.Now().UTC()
	}
	current := anomaly.Reading{Value: sd.Moisture, Timestamp: ts}

	// Validate against the window BEFORE appending: the current reading must
	// not influence its own statistics.
	verdict := anomaly.DetectMoistureAnomaly(current, s.history.Window(key), expectedRange(profile))
	if verdict.IsAnomaly {
		s.metrics.AnomaliesDetected.WithLabelValues(categoryFor(verdict.Reason)).Inc()
		if err := s.publishAnomaly(sd, verdict); err != nil {
			log.Printf("decision: publish anomaly error: %v", err)
		}
		if sd.Moisture < 0 || sd.Moisture > 100 {
			// Hard-invalid reading: never feed it to the simulation.
			s.metrics.ReadingsRejected.Inc()
			log.Printf("anomaly: %s/%s value=%.1f severity=%.0f REJECTED (%s)",
				sd.FieldID, sd.SensorID, sd.Moisture, verdict.Severity, verdict.Reason)
			return nil
		}
		log.Printf("anomaly: %s/%s value=%.1f severity=%.0f (%s); continuing",
			sd.FieldID, sd.SensorID, sd.Moisture, verdict.Severity, verdict.Reason)
	}
	s.history.Append(key, current)

	wctx, cancel := context.WithTimeout(context.Background(), weatherTimeout)
	defer cancel()
	forecast, err := s.weather.Forecast(wctx, field.Latitude, field.Longitude, s.forecastDays)
	if err != nil || len(forecast) == 0 {
		log.Printf("decision: no forecast for %s: %v", sd.FieldID, err)
		return nil
	}

	kc := s.cropCoefficient(field, forecast[0], sd.Moisture)

	timer := prometheus.NewTimer(s.metrics.SimulationDuration)
	sim, err := simulation.Simulate(simulation.Input{
		CurrentMoisture: sd.Moisture,
		Profile:         profile,
		Forecast:        forecast,
		CropKc:          kc,
	})
	timer.ObserveDuration()
	if err != nil {
		s.metrics.ReadingsRejected.Inc()
		log.Printf("decision: simulation error for %s/%s: %v", sd.FieldID, sd.SensorID, err)
		return nil
	}

	rec := s.sched.Schedule(scheduler.Params{
		Trajectory:      sim.Trajectory,
		StressThreshold: profile.StressThreshold,
		FieldCapacity:   profile.FieldCapacity,
		WiltingPoint:    profile.WiltingPoint,
		RootDepthCm:     profile.RootDepthCm,
		FieldAreaHa:     field.AreaHa,
	})
	assessment := stress.AnalyzeStress(sd.Moisture, profile.WiltingPoint, profile.FieldCapacity)

	log.Printf("decision: %s/%s moisture=%.1f%% kc=%.2f stress=%.0f needed=%t amount=%.1fmm urgency=%s conf=%.2f",
		sd.FieldID, sd.SensorID, sd.Moisture, kc, assessment.CurrentIndex,
		rec.Needed, rec.AmountMm, rec.Urgency, rec.Confidence)

	return s.publishRecommendation(sd, rec, assessment.CurrentIndex)
}

// cropCoefficient prefers the predictor; unknown crops fall back to the
// static stage table.
func (s *Service) cropCoefficient(field entities.Field, today entities.DailyWeather, moisture float64) float64 {
	res, err := kcpredictor.PredictKc(kcpredictor.Inputs{
		CropType:          field.CropType,
		DaysSincePlanting: field.DaysSincePlanting(s.clock.Now().UTC()),
		ET0Mm:             today.ET0Mm,
		RecentTemperature: (today.TempMinC + today.TempMaxC) / 2,
		RecentHumidity:    today.Humidity,
		SoilMoisture:      moisture,
	})
	if err != nil {
		kc := fieldparams.StageCoefficientFor(field.CropType, entities.StageMidSeason)
		log.Printf("decision: kc prediction for %s: %v (stage table kc=%.2f)", field.CropType, err, kc)
		return kc
	}
	return res.Kc
}

func (s *Service) publishRecommendation(sd messages.SensorData, rec scheduler.Recommendation, stressIdx float64) error {
	evt := messages.IrrigationRecommendationEvent{
		FieldID:      sd.FieldID,
		SensorID:     sd.SensorID,
		Needed:       rec.Needed,
		ScheduledAt:  rec.ScheduledTime,
		AmountMm:     rec.AmountMm,
		AmountLiters: rec.AmountLiters,
		Urgency:      string(rec.Urgency),
		Confidence:   rec.Confidence,
		StressIndex:  stressIdx,
		Reason:       rec.Reason,
		Timestamp:    s.clock.Now().UTC(),
	}
	b, _ := json.Marshal(evt)
	topic := expandTopic(s.recTopic, sd.FieldID, sd.SensorID)
	if err := s.publisher.PublishToQos(topic, 1, false, string(b)); err != nil {
		log.Printf("decision: publish recommendation error: %v", err)
		return err
	}
	s.metrics.RecommendationsPub.WithLabelValues(fmt.Sprintf("%t", rec.Needed)).Inc()
	return nil
}

func (s *Service) publishAnomaly(sd messages.SensorData, v anomaly.Verdict) error {
	evt := messages.MoistureAnomalyEvent{
		FieldID:        sd.FieldID,
		SensorID:       sd.SensorID,
		Value:          sd.Moisture,
		Severity:       v.Severity,
		Reason:         v.Reason,
		Recommendation: v.Recommendation,
		Timestamp:      s.clock.Now().UTC(),
	}
	b, _ := json.Marshal(evt)
	topic := expandTopic(s.anomTopic, sd.FieldID, sd.SensorID)
	return s.publisher.PublishToQos(topic, 1, false, string(b))
}

// expectedRange is the plausible moisture band for a soil: readings can sit a
// little above field capacity right after rain, and briefly below the wilting
// point in surface layers.
func expectedRange(p entities.SoilProfile) anomaly.Range {
	min := p.WiltingPoint - 5
	if min < 0 {
		min = 0
	}
	max := p.FieldCapacity + 10
	if max > 100 {
		max = 100
	}
	return anomaly.Range{Min: min, Max: max}
}

// categoryFor maps a verdict reason to the metric label of the dominant rule.
func categoryFor(reason string) string {
	switch {
	case strings.Contains(reason, "invalid sensor reading"):
		return "sensor"
	case strings.Contains(reason, "leak"):
		return "leak"
	case strings.Contains(reason, "spike"):
		return "spike"
	case strings.Contains(reason, "expected range"):
		return "range"
	case strings.Contains(reason, "typical moisture patterns"):
		return "cluster"
	default:
		return "statistical"
	}
}

func expandTopic(tmpl, fieldID, sensorID string) string {
	return strings.NewReplacer("{field}", fieldID, "{sensor}", sensorID).Replace(tmpl)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
