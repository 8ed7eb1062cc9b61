package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrofog/irrigation-engine/internal/observability"
	"github.com/agrofog/irrigation-engine/internal/services/decision"
	"github.com/agrofog/irrigation-engine/pkg/rabbitmq"
)

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MQTT
	host := env("RABBITMQ_HOST", "localhost")
	port := envInt("RABBITMQ_PORT", 1883)
	user := env("RABBITMQ_USER", "guest")
	pass := env("RABBITMQ_PASSWORD", "guest")
	clientID := fmt.Sprintf("DecisionService-%s", env("HOSTNAME", "local"))

	cfg := &rabbitmq.RabbitMQConfig{Host: host, Port: port, User: user, Password: pass, ClientID: clientID}
	mqClient, err := rabbitmq.NewRabbitMQConn(cfg, ctx)
	if err != nil {
		log.Fatalf("MQTT connect failed: %v", err)
	}
	defer rabbitmq.CloseRabbitMQConn(mqClient)

	sensorSub := env("SENSOR_SUB_TOPIC", "sensor/aggregated/#")
	consumer := rabbitmq.NewConsumer(mqClient, sensorSub, nil)
	publisher := rabbitmq.NewPublisher(mqClient, "event/irrigationRecommendation")

	metrics := observability.NewMetrics()

	// OpenWeather behind a circuit breaker; outages degrade to a flat
	// fallback forecast instead of silencing recommendations.
	owmKey := env("OWM_API_KEY", "changeme")
	weather := decision.NewBreakerClient(decision.NewOWMClient(owmKey), func() {
		metrics.WeatherFallbacks.Inc()
	})

	svc, err := decision.NewService(consumer, publisher, weather, decision.Config{
		FieldsPath:   env("FIELDS_CONFIG_PATH", "/app/config/fields-config.json"),
		ForecastDays: envInt("FORECAST_DAYS", 7),
		HistoryLimit: envInt("READING_HISTORY_LIMIT", 48),
	}, nil, metrics)
	if err != nil {
		log.Fatalf("decision service init: %v", err)
	}

	// Prometheus scrape endpoint
	httpPort := envInt("HTTP_PORT", 2112)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(httpPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("decision-svc: metrics listening on :%d", httpPort)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	log.Printf("DecisionService running. sub=%s forecastDays=%d", sensorSub, envInt("FORECAST_DAYS", 7))
	go svc.Start(ctx)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc
	cancel()

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = hs.Shutdown(shCtx)
}
