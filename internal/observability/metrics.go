package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments shared by the services.
type Metrics struct {
	ReadingsProcessed prometheus.Counter
	ReadingsRejected  prometheus.Counter

	AnomaliesDetected  *prometheus.CounterVec // label: category={sensor,leak,spike,range,cluster,statistical}
	RecommendationsPub *prometheus.CounterVec // label: needed={true,false}
	WeatherFallbacks   prometheus.Counter

	SimulationDuration prometheus.Histogram
	EventsWritten      *prometheus.CounterVec // label: event_type
}

// NewMetrics creates and registers all instruments with the default registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsForTesting registers against a fresh registry so parallel tests
// never collide on duplicate registration.
func NewMetricsForTesting() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReadingsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "irrigation_engine",
			Name:      "readings_processed_total",
			Help:      "Total aggregated sensor readings accepted by the decision service.",
		}),
		ReadingsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "irrigation_engine",
			Name:      "readings_rejected_total",
			Help:      "Total readings rejected as hard-invalid before simulation.",
		}),
		AnomaliesDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "irrigation_engine",
			Name:      "anomalies_detected_total",
			Help:      "Anomaly verdicts by category.",
		}, []string{"category"}),
		RecommendationsPub: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "irrigation_engine",
			Name:      "recommendations_published_total",
			Help:      "Irrigation recommendations published, by outcome.",
		}, []string{"needed"}),
		WeatherFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "irrigation_engine",
			Name:      "weather_fallbacks_total",
			Help:      "Times the weather upstream failed and default forecast values were used.",
		}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "irrigation_engine",
			Name:      "simulation_duration_seconds",
			Help:      "Duration of one simulate-and-schedule cycle.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		EventsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "irrigation_engine",
			Name:      "events_written_total",
			Help:      "Events written to InfluxDB by type.",
		}, []string{"event_type"}),
	}

	reg.MustRegister(
		m.ReadingsProcessed,
		m.ReadingsRejected,
		m.AnomaliesDetected,
		m.RecommendationsPub,
		m.WeatherFallbacks,
		m.SimulationDuration,
		m.EventsWritten,
	)
	return m
}
