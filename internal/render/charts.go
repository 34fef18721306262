package render

import (
	"html"
	"io"
	"math"

	"github.com/rotisserie/eris"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"happinessdash/internal/dashboard"
)

// ErrNoData is returned when the requested view has nothing to draw.
var ErrNoData = eris.New("render: no data for chart")

// ErrUnknownChart is returned for a chart name outside Names.
var ErrUnknownChart = eris.New("render: unknown chart")

// Chart names served by the dashboard and written by the exporter.
const (
	ChartRegions      = "regions"
	ChartTop          = "top"
	ChartBottom       = "bottom"
	ChartCorrelations = "correlations"
	ChartScatter      = "scatter"
)

// Names lists every chart in display order.
var Names = []string{ChartRegions, ChartTop, ChartBottom, ChartCorrelations, ChartScatter}

var (
	colorRegion   = drawing.ColorFromHex("8884d8")
	colorTop      = drawing.ColorFromHex("82ca9d")
	colorBottom   = drawing.ColorFromHex("ff8042")
	colorScatter  = drawing.ColorFromHex("8884d8")
	colorPositive = drawing.ColorFromHex("3b82f6")
	colorNegative = drawing.ColorFromHex("ef4444")
)

// Options controls the rendered image size in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions returns the size used when none is configured.
func DefaultOptions() Options {
	return Options{Width: 960, Height: 480}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}
	return o
}

// Render writes the named chart for views as SVG.
func Render(w io.Writer, name string, views dashboard.Views, opts Options) error {
	switch name {
	case ChartRegions:
		return BarChart(w, views.Regions, "Average Happiness Score by Region", colorRegion, opts)
	case ChartTop:
		return BarChart(w, views.TopCountries, "Top 10 Happiest Countries", colorTop, opts)
	case ChartBottom:
		return BarChart(w, views.BottomCountries, "Bottom 10 Least Happy Countries", colorBottom, opts)
	case ChartCorrelations:
		return BarChart(w, views.Correlations, "Correlation of Factors with Happiness", colorRegion, opts)
	case ChartScatter:
		return ScatterChart(w, views.Scatter, opts)
	default:
		return eris.Wrapf(ErrUnknownChart, "chart %q", name)
	}
}

// BarChart draws series as vertical bars from a zero baseline. Sign coloured
// series use blue for positive values and red otherwise. go-chart writes text
// into the SVG unescaped, so every label is escaped here.
func BarChart(w io.Writer, series *dashboard.BarSeries, title string, color drawing.Color, opts Options) error {
	if series == nil || len(series.Points) == 0 {
		return ErrNoData
	}
	opts = opts.normalized()

	bars := make([]chart.Value, 0, len(series.Points))
	for _, p := range series.Points {
		fill := color
		if series.SignColored {
			fill = colorNegative
			if p.Positive {
				fill = colorPositive
			}
		}
		bars = append(bars, chart.Value{
			Label: html.EscapeString(p.Label),
			Value: p.Value,
			Style: chart.Style{FillColor: fill, StrokeColor: fill, StrokeWidth: 1},
		})
	}

	bc := chart.BarChart{
		Title:        html.EscapeString(title),
		Width:        opts.Width,
		Height:       opts.Height,
		BarWidth:     barWidth(opts.Width, len(bars)),
		UseBaseValue: true,
		BaseValue:    0,
		Background:   chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 80}},
		XAxis:        chart.Style{TextRotationDegrees: 45, FontSize: 8},
		YAxis: chart.YAxis{
			Name:  html.EscapeString(series.Name),
			Range: barRange(series.Values()),
		},
		Bars: bars,
	}
	if err := bc.Render(chart.SVG, w); err != nil {
		return eris.Wrapf(err, "render bar chart %q", title)
	}
	return nil
}

// ScatterChart draws one dot per point with no connecting line.
func ScatterChart(w io.Writer, series *dashboard.ScatterSeries, opts Options) error {
	if series == nil || len(series.Points) == 0 {
		return ErrNoData
	}
	opts = opts.normalized()

	xs := make([]float64, len(series.Points))
	ys := make([]float64, len(series.Points))
	for i, p := range series.Points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	name := html.EscapeString(series.Name)
	ch := chart.Chart{
		Title:      name,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: html.EscapeString(series.XFactor), Range: paddedRange(xs)},
		YAxis:      chart.YAxis{Name: html.EscapeString(series.YFactor), Range: paddedRange(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    name,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    5,
					DotColor:    colorScatter,
				},
			},
		},
	}
	if err := ch.Render(chart.SVG, w); err != nil {
		return eris.Wrapf(err, "render scatter chart %q", series.Name)
	}
	return nil
}

func barWidth(width, bars int) int {
	if bars <= 0 {
		return 0
	}
	bw := (width - 64) / bars * 6 / 10
	if bw < 4 {
		return 4
	}
	if bw > 60 {
		return 60
	}
	return bw
}

// barRange always includes zero so bars grow from the baseline.
func barRange(values []float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		hi = 1
	}
	pad := (hi - lo) * 0.05
	if lo < 0 {
		lo -= pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi + pad}
}

func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(lo)*0.1, 1)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
