package event

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

// Recommendation is the payload shape exposed over HTTP.
type Recommendation struct {
	FieldID  string  `json:"field_id,omitempty"`
	SensorID string  `json:"sensor_id,omitempty"`
	AmountMm float64 `json:"amount_mm"`
	Time     string  `json:"time"` // RFC3339
}

type recQueryParams struct {
	Minutes   int
	Limit     int
	TimeoutMS int
}

func parseRecQuery(r *http.Request, defMin, defLim, defTOms int) recQueryParams {
	q := r.URL.Query()
	get := func(k string, def, min, max int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				if n < min {
					return min
				}
				if max > 0 && n > max {
					return max
				}
				return n
			}
		}
		return def
	}
	return recQueryParams{
		Minutes:   get("minutes", defMin, 1, 7*24*60),
		Limit:     get("limit", defLim, 1, 500),
		TimeoutMS: get("timeout_ms", defTOms, 200, 5000),
	}
}

func buildRecFlux(bucket string, minutes, limit int) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == "system_event" and r.event_type == "irrigation.recommendation")
  |> filter(fn: (r) => r._field == "amount_mm")
  |> keep(columns: ["_time","_value","field_id","sensor_id"])
  |> sort(columns: ["_time"], desc: true)
  |> limit(n:%d)
`, bucket, minutes, limit)
}

// NewRecentRecommendationsHandler serves
// GET /recommendations/recent?limit=20[&minutes=1440].
func NewRecentRecommendationsHandler(influx influxdb2.Client, org, bucket string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := parseRecQuery(r, 1440, 20, 2000)

		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
		defer cancel()

		api := influx.QueryAPI(org)
		res, err := api.Query(ctx, buildRecFlux(bucket, p.Minutes, p.Limit))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Error", "influx-query-error")
			_, _ = w.Write([]byte("[]"))
			return
		}
		defer func() { _ = res.Close() }()

		out := make([]Recommendation, 0, p.Limit)
		for res.Next() {
			rec := res.Record()

			var amount float64
			switch v := rec.Value().(type) {
			case float64:
				amount = v
			case int64:
				amount = float64(v)
			case int:
				amount = float64(v)
			case string:
				if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
					amount = f
				}
			}

			tagStr := func(key string) string {
				if v := rec.ValueByKey(key); v != nil {
					if s, ok := v.(string); ok {
						return strings.TrimSpace(s)
					}
				}
				return ""
			}

			out = append(out, Recommendation{
				FieldID:  tagStr("field_id"),
				SensorID: tagStr("sensor_id"),
				AmountMm: amount,
				Time:     rec.Time().UTC().Format(time.RFC3339),
			})
		}
		if res.Err() != nil {
			w.Header().Set("X-Error", "influx-iter-error")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
}
