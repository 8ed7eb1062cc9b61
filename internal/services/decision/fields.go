package decision

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agrofog/irrigation-engine/internal/model/entities"
)

// fieldRecord is the on-disk shape of one field. Planting date accepts either
// RFC 3339 or plain "2006-01-02".
type fieldRecord struct {
	ID           string   `json:"id"`
	CropType     string   `json:"crop_type"`
	SoilType     string   `json:"soil_type"`
	AreaHa       float64  `json:"area_ha"`
	PlantingDate string   `json:"planting_date"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Sensors      []string `json:"sensors"`
}

// loadFields reads the field registry JSON: {"fields": [ {...}, ... ]} or a
// bare array.
func loadFields(path string) (map[string]entities.Field, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var recs []fieldRecord
	var wrapped struct {
		Fields []fieldRecord `json:"fields"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Fields) > 0 {
		recs = wrapped.Fields
	} else if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("parse fields config: %w", err)
	}

	out := make(map[string]entities.Field, len(recs))
	for _, r := range recs {
		if strings.TrimSpace(r.ID) == "" {
			return nil, fmt.Errorf("field without id in %s", path)
		}
		pd, err := parseDate(r.PlantingDate)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", r.ID, err)
		}
		out[r.ID] = entities.Field{
			ID:           r.ID,
			CropType:     r.CropType,
			SoilType:     r.SoilType,
			AreaHa:       r.AreaHa,
			PlantingDate: pd,
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			Sensors:      r.Sensors,
		}
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad planting_date %q", s)
	}
	return t, nil
}
