package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/agrofog/irrigation-engine/internal/engine/et"
	"github.com/agrofog/irrigation-engine/internal/model/entities"
)

// WeatherClient returns a daily forecast (earliest day first) for a location.
type WeatherClient interface {
	Forecast(ctx context.Context, lat, lon float64, days int) ([]entities.DailyWeather, error)
}

type owmDaily struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	Humidity float64 `json:"humidity"`
	Rain     float64 `json:"rain"`
}

type owmResp struct {
	Daily []owmDaily `json:"daily"`
}

// OWMClient fetches the OpenWeather One Call daily forecast and derives ET0
// per day with simplified Hargreaves, humidity-adjusted.
type OWMClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func NewOWMClient(key string) *OWMClient {
	return &OWMClient{
		apiKey:  key,
		baseURL: "https://api.openweathermap.org/data/3.0/onecall",
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *OWMClient) Forecast(ctx context.Context, lat, lon float64, days int) ([]entities.DailyWeather, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("missing api key")
	}
	url := fmt.Sprintf("%s?lat=%f&lon=%f&exclude=current,minutely,hourly,alerts&units=metric&appid=%s",
		c.baseURL, lat, lon, c.apiKey)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("owm status %d: %s", resp.StatusCode, string(b))
	}
	var out owmResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Daily) == 0 {
		return nil, fmt.Errorf("no daily data")
	}

	if days > len(out.Daily) {
		days = len(out.Daily)
	}
	fc := make([]entities.DailyWeather, 0, days)
	for _, d := range out.Daily[:days] {
		t := time.Unix(d.Dt, 0).UTC()
		et0 := et.HumidityAdjust(et.Hargreaves(d.Temp.Min, d.Temp.Max, et.RaSimplified), d.Humidity)
		fc = append(fc, entities.DailyWeather{
			Date:            time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			PrecipitationMm: d.Rain,
			ET0Mm:           et0,
			TempMinC:        d.Temp.Min,
			TempMaxC:        d.Temp.Max,
			Humidity:        d.Humidity,
		})
	}
	return fc, nil
}

// Conservative per-day values used when the weather upstream is unavailable.
const (
	fallbackET0Mm  = 4.0
	fallbackRainMm = 0.0
)

// BreakerClient wraps a WeatherClient in a circuit breaker. When the upstream
// fails or the breaker is open it serves a flat fallback forecast instead of
// an error, so a weather outage degrades recommendations rather than
// suppressing them.
type BreakerClient struct {
	inner      WeatherClient
	cb         *gobreaker.CircuitBreaker
	onFallback func()
}

// NewBreakerClient builds the wrapper. onFallback is invoked once per
// fallback forecast served; nil is allowed.
func NewBreakerClient(inner WeatherClient, onFallback func()) *BreakerClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "openweather",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
	})
	return &BreakerClient{inner: inner, cb: cb, onFallback: onFallback}
}

func (b *BreakerClient) Forecast(ctx context.Context, lat, lon float64, days int) ([]entities.DailyWeather, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Forecast(ctx, lat, lon, days)
	})
	if err != nil {
		log.Printf("weather: upstream error: %v (serving fallback forecast)", err)
		if b.onFallback != nil {
			b.onFallback()
		}
		return fallbackForecast(days), nil
	}
	return out.([]entities.DailyWeather), nil
}

func fallbackForecast(days int) []entities.DailyWeather {
	if days <= 0 {
		days = 1
	}
	today := time.Now().UTC()
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	fc := make([]entities.DailyWeather, days)
	for i := range fc {
		fc[i] = entities.DailyWeather{
			Date:            start.AddDate(0, 0, i),
			PrecipitationMm: fallbackRainMm,
			ET0Mm:           fallbackET0Mm,
		}
	}
	return fc
}
