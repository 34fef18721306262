package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"happinessdash/internal/backend"
	"happinessdash/internal/dashboard"
	"happinessdash/internal/happiness"
)

type recordingProcessor struct {
	mu      sync.Mutex
	sources []string
	payload *happiness.Payload
	err     error
}

func (p *recordingProcessor) Process(_ context.Context, src string) (*happiness.Payload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sources = append(p.sources, src)
	return p.payload, p.err
}

func (p *recordingProcessor) Sources() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sources...)
}

func newModel(t *testing.T, primary backend.Processor) (Model, *dashboard.Orchestrator) {
	t.Helper()
	fallback := &recordingProcessor{err: &backend.NoResponseError{Err: errors.New("refused")}}
	chain, err := dashboard.NewEndpointChain(
		dashboard.Endpoint{Name: "primary", Processor: primary},
		dashboard.Endpoint{Name: "proxy", Processor: fallback},
	)
	require.NoError(t, err)
	orch, err := dashboard.NewOrchestrator(chain, dashboard.NewStore(dashboard.State{}))
	require.NoError(t, err)
	m := New(context.Background(), orch, Options{})
	t.Cleanup(m.Close)
	return m, orch
}

func samplePayload(t *testing.T) *happiness.Payload {
	t.Helper()
	payload, err := happiness.ReadPayloadFile("../../data/sample_results.json")
	require.NoError(t, err)
	return payload
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

// settle waits for the running fetch and delivers the store notification.
func settle(t *testing.T, m Model, orch *dashboard.Orchestrator) Model {
	t.Helper()
	require.Eventually(t, func() bool { return !orch.Store().Snapshot().Loading }, 2*time.Second, 5*time.Millisecond)
	next, cmd := m.Update(receiveChange(t, m))
	require.NotNil(t, cmd)
	return next.(Model)
}

func receiveChange(t *testing.T, m Model) tea.Msg {
	t.Helper()
	select {
	case <-m.changes:
		return stateChangedMsg{}
	case <-time.After(2 * time.Second):
		t.Fatal("no store notification")
		return nil
	}
}

func TestModel_EmptyDashboard(t *testing.T) {
	t.Parallel()

	primary := &recordingProcessor{}
	m, _ := newModel(t, primary)
	require.NotNil(t, m.Init())
	assert.Empty(t, primary.Sources())
	assert.Contains(t, m.View(), "No data loaded yet")
}

func TestModel_FollowsStoreUpdates(t *testing.T) {
	t.Parallel()

	m, orch := newModel(t, &recordingProcessor{})

	orch.Store().Dispatch(dashboard.FetchStarted{FetchID: "external"})
	next, cmd := m.Update(receiveChange(t, m))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Loading data")

	orch.Store().Dispatch(dashboard.FetchFailed{Message: "bad source"})
	next, _ = m.Update(receiveChange(t, m))
	m = next.(Model)
	assert.Contains(t, m.View(), "Error: bad source")
}

func TestModel_SubmitURLAndBrowseTabs(t *testing.T) {
	t.Parallel()

	primary := &recordingProcessor{payload: samplePayload(t)}
	m, orch := newModel(t, primary)

	m = press(t, m, "u")
	assert.Equal(t, modeInput, m.mode)
	for _, r := range "https://example.com/a.json" {
		m = press(t, m, string(r))
	}
	next, cmd := m.Update(key("enter"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Contains(t, m.View(), "Loading data")

	m = settle(t, m, orch)
	assert.Equal(t, []string{"https://example.com/a.json"}, primary.Sources())

	view := m.View()
	assert.Contains(t, view, "finland")
	assert.Contains(t, view, "(JSON)")

	assert.Contains(t, view, "medium-high")

	m = press(t, m, "tab")
	assert.Equal(t, dashboard.TabRegions, m.tab)
	regions := m.View()
	assert.Contains(t, regions, "oceania")
	assert.Contains(t, regions, "Regional Spread")
	assert.Contains(t, regions, "0.50")

	m = press(t, m, "tab", "tab")
	assert.Equal(t, dashboard.TabCorrelations, m.tab)
	assert.Contains(t, m.View(), "countries")
}

func TestModel_BlankSubmissionIsIgnored(t *testing.T) {
	t.Parallel()

	primary := &recordingProcessor{payload: samplePayload(t)}
	m, _ := newModel(t, primary)

	m = press(t, m, "u", "enter")
	assert.Empty(t, primary.Sources())
	assert.Contains(t, m.View(), "Enter a dataset URL first.")
}

func TestModel_ErrorAndRetry(t *testing.T) {
	t.Parallel()

	primary := &recordingProcessor{err: &backend.StatusError{StatusCode: 500, Message: "bad source"}}
	m, orch := newModel(t, primary)

	m = press(t, m, "p")
	m = settle(t, m, orch)
	view := m.View()
	assert.Contains(t, view, "API error (500): bad source")
	assert.Contains(t, view, "r retry")

	primary.mu.Lock()
	primary.err = nil
	primary.payload = samplePayload(t)
	primary.mu.Unlock()

	m = press(t, m, "r")
	m = settle(t, m, orch)
	assert.NotContains(t, m.View(), "Error:")
	assert.Equal(t, []string{dashboard.DefaultPresets()[0].URL, ""}, primary.Sources())
}

func TestModel_AutoFetch(t *testing.T) {
	t.Parallel()

	primary := &recordingProcessor{payload: samplePayload(t)}
	_, orch := newModel(t, primary)
	m := New(context.Background(), orch, Options{AutoFetch: true})
	t.Cleanup(m.Close)

	require.NotNil(t, m.Init())
	settle(t, m, orch)
	assert.Equal(t, []string{""}, primary.Sources())
}

func TestBarChart_ScalesToLargestMagnitude(t *testing.T) {
	t.Parallel()

	out := barChart(&dashboard.BarSeries{Points: []dashboard.BarPoint{
		{Label: "a", Value: 2, Positive: true},
		{Label: "b", Value: 1, Positive: true},
	}}, 40, colorAccent, DefaultStyles())

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Greater(t, strings.Count(lines[0], barGlyph), strings.Count(lines[1], barGlyph))
	assert.Contains(t, barChart(nil, 40, colorAccent, DefaultStyles()), "No data")
}

func TestScatterPlot(t *testing.T) {
	t.Parallel()

	out := scatterPlot(&dashboard.ScatterSeries{
		XFactor: "gdp", YFactor: "freedom",
		Points: []dashboard.ScatterPoint{{X: 0, Y: 0}, {X: 1, Y: 1}},
	}, 20, 6, DefaultStyles())
	assert.Equal(t, 2, strings.Count(out, "●"))
	assert.Contains(t, out, "2 countries")
}
