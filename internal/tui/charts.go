package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"happinessdash/internal/dashboard"
)

const barGlyph = "█"

// barChart draws one horizontal bar per point, scaled to the largest
// magnitude. Sign coloured series paint negative bars red.
func barChart(series *dashboard.BarSeries, width int, color lipgloss.Color, styles Styles) string {
	if series == nil || len(series.Points) == 0 {
		return styles.Muted.Render("No data available.")
	}

	labelWidth := 0
	maxAbs := 0.0
	for _, p := range series.Points {
		labelWidth = max(labelWidth, lipgloss.Width(p.Label))
		maxAbs = math.Max(maxAbs, math.Abs(p.Value))
	}
	barSpace := width - labelWidth - 12
	if barSpace < 10 {
		barSpace = 10
	}

	var sb strings.Builder
	for _, p := range series.Points {
		n := 0
		if maxAbs > 0 {
			n = int(math.Round(math.Abs(p.Value) / maxAbs * float64(barSpace)))
		}
		fill := color
		if series.SignColored {
			fill = colorNegative
			if p.Positive {
				fill = colorPositive
			}
		}
		bar := lipgloss.NewStyle().Foreground(fill).Render(strings.Repeat(barGlyph, n))
		fmt.Fprintf(&sb, "%-*s %s %s\n", labelWidth, p.Label, bar, styles.Muted.Render(fmt.Sprintf("%.3f", p.Value)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// scatterPlot draws points on a character grid.
func scatterPlot(series *dashboard.ScatterSeries, width, height int, styles Styles) string {
	if series == nil || len(series.Points) == 0 {
		return styles.Muted.Render("Not enough factors for a scatter plot.")
	}
	if width < 10 {
		width = 10
	}
	if height < 5 {
		height = 5
	}

	minX, maxX := series.Points[0].X, series.Points[0].X
	minY, maxY := series.Points[0].Y, series.Points[0].Y
	for _, p := range series.Points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	for _, p := range series.Points {
		col := scale(p.X, minX, maxX, width-1)
		row := height - 1 - scale(p.Y, minY, maxY, height-1)
		grid[row][col] = '●'
	}

	dot := lipgloss.NewStyle().Foreground(colorAccent)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s ↑ (%.2f..%.2f)\n", series.YFactor, minY, maxY)
	for _, line := range grid {
		sb.WriteString("│")
		sb.WriteString(dot.Render(string(line)))
		sb.WriteString("\n")
	}
	sb.WriteString("└" + strings.Repeat("─", width) + "\n")
	fmt.Fprintf(&sb, "%s → (%.2f..%.2f), %d countries", series.XFactor, minX, maxX, len(series.Points))
	return sb.String()
}

func scale(v, lo, hi float64, span int) int {
	if hi == lo {
		return span / 2
	}
	return int(math.Round((v - lo) / (hi - lo) * float64(span)))
}
