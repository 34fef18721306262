package happiness

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// StatusSuccess is the status value the backend reports when processing succeeded.
const StatusSuccess = "success"

// CountryColumn is the record column holding the country name.
const CountryColumn = "country"

// Payload is the body returned by the backend /api/process endpoint.
type Payload struct {
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Results *Results `json:"results,omitempty"`
}

// OK reports whether the backend marked the payload as successful.
func (p *Payload) OK() bool {
	return p != nil && p.Status == StatusSuccess
}

// Results holds the precomputed statistics produced by the backend.
type Results struct {
	Data                    []Record `json:"data"`
	RegionHappiness         *Scores  `json:"region_happiness,omitempty"`
	RegionHappinessStd      *Scores  `json:"region_happiness_std,omitempty"`
	TopHappyCountries       *Scores  `json:"top_happy_countries,omitempty"`
	BottomHappyCountries    *Scores  `json:"bottom_happy_countries,omitempty"`
	FactorCorrelations      *Scores  `json:"factor_correlations,omitempty"`
	HappinessCategoryCounts *Scores  `json:"happiness_category_counts,omitempty"`
}

// UnmarshalJSON decodes every field on its own. A field that does not decode
// is logged and left nil so the remaining views still render.
func (r *Results) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "decode results")
	}

	var out Results
	if err := decodeField(raw["data"], &out.Data); err != nil {
		zap.L().Warn("dropping undecodable results field", zap.String("field", "data"), zap.Error(err))
		out.Data = nil
	}
	out.RegionHappiness = scoresField(raw, "region_happiness")
	out.RegionHappinessStd = scoresField(raw, "region_happiness_std")
	out.TopHappyCountries = scoresField(raw, "top_happy_countries")
	out.BottomHappyCountries = scoresField(raw, "bottom_happy_countries")
	out.FactorCorrelations = scoresField(raw, "factor_correlations")
	out.HappinessCategoryCounts = scoresField(raw, "happiness_category_counts")
	*r = out
	return nil
}

func scoresField(raw map[string]json.RawMessage, name string) *Scores {
	var s Scores
	if err := decodeField(raw[name], &s); err != nil {
		zap.L().Warn("dropping undecodable results field", zap.String("field", name), zap.Error(err))
		return nil
	}
	if s.m == nil {
		return nil
	}
	return &s
}

// decodeField leaves dst untouched when the field is absent or null.
func decodeField(data json.RawMessage, dst any) error {
	if len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// HasData reports whether the results carry at least one country record.
func (r *Results) HasData() bool {
	return r != nil && len(r.Data) > 0
}

// Record is a single per-country row keyed by column name.
type Record map[string]any

// Country returns the country name of the record, or "" when missing.
func (r Record) Country() string {
	if v, ok := r[CountryColumn].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Value returns the numeric value stored under column.
func (r Record) Value(column string) (float64, bool) {
	switch v := r[column].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
