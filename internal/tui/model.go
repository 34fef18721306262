// Package tui is the terminal presentation of the happiness dashboard.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"happinessdash/internal/dashboard"
)

type mode int

const (
	modeBrowse mode = iota
	modeInput
)

// stateChangedMsg signals that the store holds a newer state.
type stateChangedMsg struct{}

// Options configures the terminal dashboard.
type Options struct {
	// AutoFetch loads the default dataset as soon as the program starts.
	AutoFetch bool
	// Source is fetched on start instead of the default dataset when set.
	Source string
}

// Model is the bubbletea model of the terminal dashboard.
type Model struct {
	ctx      context.Context
	orch     *dashboard.Orchestrator
	shaper   *dashboard.Shaper
	selector *dashboard.Selector
	opts     Options
	styles   Styles

	// changes coalesces store notifications; one pending signal is enough
	// because the model always reads the latest snapshot.
	changes     chan struct{}
	unsubscribe func()

	spinner spinner.Model
	input   textinput.Model
	mode    mode
	tab     dashboard.Tab
	preset  int
	state   dashboard.State
	notice  string

	width  int
	height int
}

// New builds the model. Fetches run on ctx.
func New(ctx context.Context, orch *dashboard.Orchestrator, opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	ti := textinput.New()
	ti.Placeholder = "https://example.com/world-happiness.csv"
	ti.Prompt = "URL › "
	ti.CharLimit = 2048
	ti.Width = 60

	changes := make(chan struct{}, 1)
	unsubscribe := orch.Store().Subscribe(func(dashboard.State) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	return Model{
		ctx:         ctx,
		orch:        orch,
		shaper:      dashboard.NewShaper(),
		selector:    dashboard.NewSelector(dashboard.DefaultPresets(), nil),
		opts:        opts,
		styles:      DefaultStyles(),
		changes:     changes,
		unsubscribe: unsubscribe,
		spinner:     sp,
		input:       ti,
		tab:         dashboard.TabSummary,
		preset:      -1,
		state:       orch.Store().Snapshot(),
		width:       100,
		height:      30,
	}
}

// Run starts the interactive program and blocks until the user quits.
func Run(ctx context.Context, orch *dashboard.Orchestrator, opts Options) error {
	m := New(ctx, orch, opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Close stops listening to the store.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	if m.opts.Source != "" {
		return tea.Batch(m.waitForChange(), m.startFetch(m.opts.Source))
	}
	if m.opts.AutoFetch {
		return tea.Batch(m.waitForChange(), m.startFetch(""))
	}
	return m.waitForChange()
}

// waitForChange blocks until the store publishes a new state or ctx ends.
func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return stateChangedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// startFetch runs a fetch in the background; its outcome arrives through the
// store subscription.
func (m *Model) startFetch(source string) tea.Cmd {
	m.orch.Start(m.ctx, source)
	m.state = dashboard.Reduce(m.state, dashboard.FetchStarted{})
	m.notice = ""
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case stateChangedMsg:
		// the store holds the latest outcome even if fetches overlapped
		wasLoading := m.state.Loading
		m.state = m.orch.Store().Snapshot()
		if m.state.Loading && !wasLoading {
			return m, tea.Batch(m.waitForChange(), m.spinner.Tick)
		}
		return m, m.waitForChange()

	case spinner.TickMsg:
		if !m.state.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.mode == modeInput {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case "enter":
		m.mode = modeBrowse
		m.input.Blur()
		raw := m.input.Value()
		m.input.SetValue("")
		if !m.selector.Submit(raw) {
			m.notice = "Enter a dataset URL first."
			return m, nil
		}
		cmd := m.startFetch(m.selector.Value())
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab", "right", "l":
		m.tab = m.tab.Next()
	case "shift+tab", "left", "h":
		m.tab = m.tab.Prev()
	case "u", "/":
		if m.state.Loading {
			return m, nil
		}
		m.mode = modeInput
		cmd := m.input.Focus()
		return m, cmd
	case "p":
		if m.state.Loading {
			return m, nil
		}
		m.preset = (m.preset + 1) % len(m.selector.Presets())
		if err := m.selector.Choose(m.preset); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		cmd := m.startFetch(m.selector.Value())
		return m, cmd
	case "r":
		if m.state.Loading {
			return m, nil
		}
		cmd := m.startFetch("")
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("World Happiness Dashboard"))
	sb.WriteString("\n")
	sb.WriteString(m.sourceLine())
	sb.WriteString("\n")

	if m.mode == modeInput {
		sb.WriteString(m.input.View())
		sb.WriteString("\n")
	}
	if m.notice != "" {
		sb.WriteString(m.styles.Muted.Render(m.notice))
		sb.WriteString("\n")
	}

	switch m.state.Screen() {
	case dashboard.ScreenLoading:
		sb.WriteString("\n" + m.spinner.View() + " Loading data…\n")
	case dashboard.ScreenError:
		sb.WriteString("\n" + m.styles.Error.Render("Error: "+m.state.Err) + "\n")
		sb.WriteString(m.styles.Help.Render("r retry • u enter URL • p next preset • q quit"))
	default:
		sb.WriteString(m.tabBar())
		sb.WriteString("\n")
		sb.WriteString(m.tabBody())
		sb.WriteString("\n")
		sb.WriteString(m.styles.Help.Render("tab/←→ switch tab • u enter URL • p next preset • r reload default • q quit"))
	}
	return sb.String()
}

func (m Model) sourceLine() string {
	if m.state.SourceURL == "" {
		return m.styles.Muted.Render("Source: backend default dataset")
	}
	line := fmt.Sprintf("Source: %s (%s)", m.state.SourceURL, dashboard.DetectFormat(m.state.SourceURL))
	if m.state.Endpoint != "" {
		line += " via " + m.state.Endpoint
	}
	return m.styles.Muted.Render(line)
}

func (m Model) tabBar() string {
	parts := make([]string, 0, len(dashboard.Tabs))
	for _, t := range dashboard.Tabs {
		style := m.styles.Tab
		if t == m.tab {
			style = m.styles.ActiveTab
		}
		parts = append(parts, style.Render(t.Title()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) tabBody() string {
	views := m.shaper.Views(m.state.Results)
	if views.Summary == nil {
		return m.styles.Muted.Render("No data loaded yet. Press u to enter a URL or p to pick a preset.")
	}

	switch m.tab {
	case dashboard.TabRegions:
		return m.section("Average Happiness Score by Region", barChart(views.Regions, m.width, colorAccent, m.styles)) +
			"\n" + m.section("Regional Spread", m.regionTable(views.RegionStats))
	case dashboard.TabCountries:
		return m.section("Top 10 Happiest Countries", barChart(views.TopCountries, m.width, colorTop, m.styles)) +
			"\n" + m.section("Bottom 10 Least Happy Countries", barChart(views.BottomCountries, m.width, colorBottom, m.styles))
	case dashboard.TabCorrelations:
		return m.section("Correlation of Factors with Happiness", barChart(views.Correlations, m.width, colorAccent, m.styles)) +
			"\n" + m.section("Factor Scatter", scatterPlot(views.Scatter, m.width-4, m.height/3, m.styles))
	default:
		return m.summary(views.Summary)
	}
}

func (m Model) section(title, body string) string {
	return m.styles.Title.Render(title) + "\n" + body
}

func (m Model) summary(s *dashboard.Summary) string {
	card := func(label, value string) string {
		if value == "" {
			value = "N/A"
		}
		return m.styles.Card.Render(m.styles.Muted.Render(label) + "\n" + m.styles.Bold.Render(value))
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Countries analyzed", fmt.Sprintf("%d", s.TotalRecords)),
		card("Happiest country", s.HappiestCountry),
		card("Least happy country", s.LeastHappyCountry),
		card("Strongest factor", s.StrongestFactor),
	)

	var table strings.Builder
	for i, c := range s.TopCountries {
		fmt.Fprintf(&table, "%d. %-24s %.2f\n", i+1, c.Key, c.Value)
	}
	top := strings.TrimRight(table.String(), "\n")
	if top == "" {
		top = m.styles.Muted.Render("No country ranking available.")
	}

	corr := barChart(&dashboard.BarSeries{
		SignColored: true,
		Points:      correlationPoints(s),
	}, m.width, colorAccent, m.styles)

	out := cards + "\n" + m.section("Top 5 Happiest Countries", top)
	if len(s.Categories) > 0 {
		var bands strings.Builder
		for _, c := range s.Categories {
			fmt.Fprintf(&bands, "%-16s %3.0f\n", c.Key, c.Value)
		}
		out += "\n" + m.section("Countries by Happiness Band", strings.TrimRight(bands.String(), "\n"))
	}
	return out + "\n" + m.section("Factors and Happiness", corr)
}

func (m Model) regionTable(stats []dashboard.RegionStat) string {
	if len(stats) == 0 {
		return m.styles.Muted.Render("No regional data available.")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-28s %8s %8s\n", "Region", "Average", "Std")
	for _, st := range stats {
		std := "N/A"
		if st.HasStd {
			std = fmt.Sprintf("%.2f", st.Std)
		}
		fmt.Fprintf(&sb, "%-28s %8.2f %8s\n", st.Region, st.Mean, std)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func correlationPoints(s *dashboard.Summary) []dashboard.BarPoint {
	points := make([]dashboard.BarPoint, 0, len(s.Correlations))
	for _, c := range s.Correlations {
		points = append(points, dashboard.BarPoint{Label: c.Key, Value: c.Value, Positive: c.Value > 0})
	}
	return points
}
