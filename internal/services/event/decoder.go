package event

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	msg "github.com/agrofog/irrigation-engine/internal/model/messages"
)

// Topic prefixes the decision service publishes on.
const (
	RecommendationPrefix = "event/irrigationRecommendation/"
	AnomalyPrefix        = "event/moistureAnomaly/"
)

// CommonEvent is the normalized shape every inbound event reduces to before
// it becomes an InfluxDB point.
type CommonEvent struct {
	EventType     string // irrigation.recommendation | moisture.anomaly
	SourceService string
	FieldID       string
	SensorID      string
	Severity      string // info|warning|error
	Fields        map[string]interface{}
	Timestamp     time.Time
}

// MQTTHandler turns MQTT messages into CommonEvents and hands them to sink.
type MQTTHandler struct{ sink func(CommonEvent) }

func NewMQTTHandler(sink func(CommonEvent)) *MQTTHandler { return &MQTTHandler{sink: sink} }

func (h *MQTTHandler) Handle(_ string, m mqtt.Message) error {
	topic := m.Topic()
	payload := m.Payload()

	var (
		evt CommonEvent
		err error
	)
	switch {
	case strings.HasPrefix(topic, RecommendationPrefix):
		evt, err = decodeRecommendation(topic, payload)
	case strings.HasPrefix(topic, AnomalyPrefix):
		evt, err = decodeAnomaly(topic, payload)
	default:
		return nil // ignore other topics
	}
	if err != nil {
		return err
	}
	if h.sink != nil {
		h.sink(evt)
	}
	return nil
}

func decodeRecommendation(topic string, payload []byte) (CommonEvent, error) {
	var r msg.IrrigationRecommendationEvent
	if err := json.Unmarshal(payload, &r); err != nil {
		return CommonEvent{}, err
	}
	fieldID, sensorID := pickIDs(topic, r.FieldID, r.SensorID, RecommendationPrefix)
	if fieldID == "" || sensorID == "" {
		return CommonEvent{}, errors.New("recommendation: missing field/sensor")
	}
	sev := "info"
	if r.Urgency == "high" || r.Urgency == "critical" {
		sev = "warning"
	}
	return CommonEvent{
		EventType:     "irrigation.recommendation",
		SourceService: "decision-service",
		FieldID:       fieldID,
		SensorID:      sensorID,
		Severity:      sev,
		Fields: map[string]interface{}{
			"needed":        r.Needed,
			"amount_mm":     r.AmountMm,
			"amount_liters": r.AmountLiters,
			"urgency":       r.Urgency,
			"confidence":    r.Confidence,
			"stress_index":  r.StressIndex,
			"reason":        r.Reason,
		},
		Timestamp: r.Timestamp,
	}, nil
}

func decodeAnomaly(topic string, payload []byte) (CommonEvent, error) {
	var a msg.MoistureAnomalyEvent
	if err := json.Unmarshal(payload, &a); err != nil {
		return CommonEvent{}, err
	}
	fieldID, sensorID := pickIDs(topic, a.FieldID, a.SensorID, AnomalyPrefix)
	if fieldID == "" || sensorID == "" {
		return CommonEvent{}, errors.New("anomaly: missing field/sensor")
	}
	sev := "warning"
	if a.Severity >= 80 {
		sev = "error"
	}
	return CommonEvent{
		EventType:     "moisture.anomaly",
		SourceService: "decision-service",
		FieldID:       fieldID,
		SensorID:      sensorID,
		Severity:      sev,
		Fields: map[string]interface{}{
			"value":          a.Value,
			"severity_score": a.Severity,
			"reason":         a.Reason,
			"recommendation": a.Recommendation,
		},
		Timestamp: a.Timestamp,
	}, nil
}

// pickIDs prefers payload IDs, falling back to "prefix/{field}/{sensor}".
func pickIDs(topic, fieldID, sensorID, prefix string) (string, string) {
	if strings.TrimSpace(fieldID) != "" && strings.TrimSpace(sensorID) != "" {
		return fieldID, sensorID
	}
	suffix := strings.TrimPrefix(topic, prefix)
	parts := strings.Split(suffix, "/")
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return fieldID, sensorID
}
