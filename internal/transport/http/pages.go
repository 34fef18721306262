package transporthttp

import (
	"bytes"
	"embed"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"happinessdash/internal/dashboard"
	"happinessdash/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"score":    func(v float64) string { return formatFloat(v, 2) },
	"coef":     func(v float64) string { return formatFloat(v, 3) },
	"barWidth": func(v float64) string { return formatFloat(math.Min(math.Abs(v), 1)*100, 0) },
	"title":    humanize,
	"inc":      func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Tab       dashboard.Tab
	Tabs      []dashboard.Tab
	Views     dashboard.Views
	SourceURL string
	Format    dashboard.Format
	Endpoint  string
	Presets   []dashboard.Preset
	Error     string
	Endpoints []EndpointInfo
	UpdatedAt time.Time
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	state := s.orch.Store().Snapshot()
	data := pageData{
		Tab:       dashboard.ParseTab(r.URL.Query().Get("tab")),
		Tabs:      dashboard.Tabs,
		SourceURL: state.SourceURL,
		Endpoint:  state.Endpoint,
		Presets:   dashboard.DefaultPresets(),
		Error:     state.Err,
		Endpoints: s.endpoints,
		UpdatedAt: state.UpdatedAt,
	}
	if state.SourceURL != "" {
		data.Format = dashboard.DetectFormat(state.SourceURL)
	}

	page := "dashboard.html"
	switch state.Screen() {
	case dashboard.ScreenLoading:
		page = "loading.html"
	case dashboard.ScreenError:
		page = "error.html"
	default:
		data.Views = s.shaper.Views(state.Results)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, page, data); err != nil {
		zap.L().Error("render page failed", zap.String("page", page), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "render page failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func renderChart(name string, views dashboard.Views, opts render.Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := render.Render(&buf, name, views, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// humanize turns a snake_case column name into a label.
func humanize(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
