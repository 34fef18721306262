package dashboard

import (
	"sync"

	"happinessdash/internal/happiness"
)

// CountryChartLimit is the number of countries shown in the top and bottom charts.
const CountryChartLimit = 10

// SummaryTableLimit is the number of countries listed in the summary table.
const SummaryTableLimit = 5

// BarPoint is a single labelled bar.
type BarPoint struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Positive bool    `json:"positive"`
}

// BarSeries is chart-ready data for a bar chart.
type BarSeries struct {
	Name string `json:"name"`
	// SignColored asks renderers to colour bars by the sign of their value.
	SignColored bool       `json:"sign_colored"`
	Points      []BarPoint `json:"points"`
}

// Labels returns the bar labels in order.
func (s *BarSeries) Labels() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Label
	}
	return out
}

// Values returns the bar values in order.
func (s *BarSeries) Values() []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// ScatterPoint is a single labelled point.
type ScatterPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

// ScatterSeries plots every record against the two leading correlation factors.
type ScatterSeries struct {
	Name    string         `json:"name"`
	XFactor string         `json:"x_factor"`
	YFactor string         `json:"y_factor"`
	Points  []ScatterPoint `json:"points"`
}

// Summary holds the headline figures of the summary tab.
type Summary struct {
	TotalRecords      int               `json:"total_records"`
	HappiestCountry   string            `json:"happiest_country"`
	LeastHappyCountry string            `json:"least_happy_country"`
	StrongestFactor   string            `json:"strongest_factor"`
	TopCountries      []happiness.Score `json:"top_countries"`
	Correlations      []happiness.Score `json:"correlations"`
	// Categories counts countries per happiness band in producer order.
	Categories []happiness.Score `json:"categories,omitempty"`
}

// RegionStat is one row of the regional table.
type RegionStat struct {
	Region string  `json:"region"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	HasStd bool    `json:"has_std"`
}

// Views bundles every derived view. A nil field means that view has no data.
type Views struct {
	Summary         *Summary       `json:"summary,omitempty"`
	Regions         *BarSeries     `json:"regions,omitempty"`
	RegionStats     []RegionStat   `json:"region_stats,omitempty"`
	TopCountries    *BarSeries     `json:"top_countries,omitempty"`
	BottomCountries *BarSeries     `json:"bottom_countries,omitempty"`
	Correlations    *BarSeries     `json:"correlations,omitempty"`
	Scatter         *ScatterSeries `json:"scatter,omitempty"`
}

// Shaper derives chart views from results, remembering the last results it
// saw so repeated renders of the same data do not recompute.
type Shaper struct {
	mu     sync.Mutex
	key    *happiness.Results
	views  Views
	cached bool
}

// NewShaper returns an empty Shaper.
func NewShaper() *Shaper {
	return &Shaper{}
}

// Views returns the views for results, computing them only when results is
// not the same value as on the previous call.
func (s *Shaper) Views(results *happiness.Results) Views {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached && s.key == results {
		return s.views
	}
	s.key = results
	s.views = BuildViews(results)
	s.cached = true
	return s.views
}

// BuildViews derives every view independently; a missing field only blanks
// its own view.
func BuildViews(results *happiness.Results) Views {
	if !results.HasData() {
		return Views{}
	}
	return Views{
		Summary:         BuildSummary(results),
		Regions:         RegionSeries(results),
		RegionStats:     RegionStats(results),
		TopCountries:    TopCountriesSeries(results),
		BottomCountries: BottomCountriesSeries(results),
		Correlations:    CorrelationSeries(results),
		Scatter:         FactorScatter(results),
	}
}

// RegionSeries has one bar per region in producer order.
func RegionSeries(results *happiness.Results) *BarSeries {
	if !results.HasData() || results.RegionHappiness.Len() == 0 {
		return nil
	}
	return barsFrom("Average happiness score", results.RegionHappiness.Entries(), false)
}

// RegionStats lists every region of region_happiness in producer order with
// its standard deviation when region_happiness_std has one.
func RegionStats(results *happiness.Results) []RegionStat {
	if !results.HasData() || results.RegionHappiness.Len() == 0 {
		return nil
	}
	entries := results.RegionHappiness.Entries()
	out := make([]RegionStat, 0, len(entries))
	for _, e := range entries {
		std, ok := results.RegionHappinessStd.Get(e.Key)
		out = append(out, RegionStat{Region: e.Key, Mean: e.Value, Std: std, HasStd: ok})
	}
	return out
}

// TopCountriesSeries has the leading countries of top_happy_countries.
func TopCountriesSeries(results *happiness.Results) *BarSeries {
	if !results.HasData() || results.TopHappyCountries.Len() == 0 {
		return nil
	}
	return barsFrom("Happiness score", results.TopHappyCountries.Head(CountryChartLimit), false)
}

// BottomCountriesSeries has the leading countries of bottom_happy_countries.
func BottomCountriesSeries(results *happiness.Results) *BarSeries {
	if !results.HasData() || results.BottomHappyCountries.Len() == 0 {
		return nil
	}
	return barsFrom("Happiness score", results.BottomHappyCountries.Head(CountryChartLimit), false)
}

// CorrelationSeries has one bar per factor, coloured by sign.
func CorrelationSeries(results *happiness.Results) *BarSeries {
	if !results.HasData() || results.FactorCorrelations.Len() == 0 {
		return nil
	}
	return barsFrom("Correlation with happiness", results.FactorCorrelations.Entries(), true)
}

// FactorScatter plots each record against the first two correlation factors
// as ordered by the producer, whatever their magnitude. Records without a
// numeric value for either factor are left out.
func FactorScatter(results *happiness.Results) *ScatterSeries {
	if !results.HasData() {
		return nil
	}
	factors := results.FactorCorrelations.Keys()
	if len(factors) < 2 {
		return nil
	}
	xf, yf := factors[0], factors[1]

	series := &ScatterSeries{
		Name:    xf + " vs " + yf,
		XFactor: xf,
		YFactor: yf,
		Points:  make([]ScatterPoint, 0, len(results.Data)),
	}
	for _, rec := range results.Data {
		x, okX := rec.Value(xf)
		y, okY := rec.Value(yf)
		if !okX || !okY {
			continue
		}
		series.Points = append(series.Points, ScatterPoint{X: x, Y: y, Label: rec.Country()})
	}
	return series
}

// BuildSummary collects the headline figures shown on the summary tab.
func BuildSummary(results *happiness.Results) *Summary {
	if !results.HasData() {
		return nil
	}
	return &Summary{
		TotalRecords:      len(results.Data),
		HappiestCountry:   results.TopHappyCountries.FirstKey(),
		LeastHappyCountry: results.BottomHappyCountries.FirstKey(),
		StrongestFactor:   results.FactorCorrelations.FirstKey(),
		TopCountries:      results.TopHappyCountries.Head(SummaryTableLimit),
		Correlations:      results.FactorCorrelations.Entries(),
		Categories:        results.HappinessCategoryCounts.Entries(),
	}
}

func barsFrom(name string, entries []happiness.Score, signColored bool) *BarSeries {
	series := &BarSeries{Name: name, SignColored: signColored, Points: make([]BarPoint, 0, len(entries))}
	for _, e := range entries {
		series.Points = append(series.Points, BarPoint{Label: e.Key, Value: e.Value, Positive: e.Value > 0})
	}
	return series
}
