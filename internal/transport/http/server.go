package transporthttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"happinessdash/internal/config"
	"happinessdash/internal/dashboard"
	"happinessdash/internal/render"
)

// EndpointInfo describes one backend endpoint on the error page.
type EndpointInfo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Server renders the dashboard and accepts source selections.
type Server struct {
	orch      *dashboard.Orchestrator
	shaper    *dashboard.Shaper
	endpoints []EndpointInfo
	chart     render.Options
	limiter   *rate.Limiter
	proxy     http.Handler

	// baseCtx outlives individual requests so a fetch keeps running after
	// the triggering POST has been answered.
	baseCtx context.Context

	mu       sync.Mutex
	selector *dashboard.Selector
}

// NewServer wires the dashboard server. Fetches it triggers run on baseCtx.
func NewServer(baseCtx context.Context, orch *dashboard.Orchestrator, cfg config.Config) (*Server, error) {
	if orch == nil {
		return nil, eris.New("server requires an orchestrator")
	}
	target, err := url.Parse(cfg.ProxyTarget)
	if err != nil {
		return nil, eris.Wrap(err, "parse proxy target")
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, eris.Errorf("proxy target %q is not absolute", cfg.ProxyTarget)
	}
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	s := &Server{
		orch:   orch,
		shaper: dashboard.NewShaper(),
		endpoints: []EndpointInfo{
			{Name: "primary", URL: cfg.BackendOrigin},
			{Name: "proxy", URL: cfg.ProxyOrigin},
		},
		chart:   render.Options{Width: cfg.Chart.Width, Height: cfg.Chart.Height},
		limiter: rate.NewLimiter(rate.Limit(cfg.Fetch.RatePerSec), cfg.Fetch.Burst),
		proxy:   newAPIProxy(target),
		baseCtx: baseCtx,
	}
	s.selector = dashboard.NewSelector(dashboard.DefaultPresets(), s.trigger)
	return s, nil
}

// Routes returns the HTTP handler with middleware applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withLogging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Cache-Control", "Pragma", "Expires"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)
	r.Get("/", s.handleIndex)
	r.With(s.throttle).Post("/source", s.handleSource)
	r.With(s.throttle).Post("/source/preset", s.handlePreset)
	r.With(s.throttle).Post("/retry", s.handleRetry)
	r.Get("/charts/{name}.svg", s.handleChart)
	r.Get("/api/state", s.handleState)
	r.Handle("/api/*", s.proxy)
	mountDocs(r)
	return r
}

// Fetch starts a fetch of sourceURL outside any request, as done on start.
func (s *Server) Fetch(sourceURL string) <-chan dashboard.State {
	return s.orch.Start(s.baseCtx, sourceURL)
}

func (s *Server) trigger(sourceURL string) {
	s.orch.Start(s.baseCtx, sourceURL)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	s.mu.Lock()
	s.selector.Submit(r.PostFormValue("url"))
	s.mu.Unlock()
	redirectHome(w, r)
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	index, err := strconv.Atoi(r.PostFormValue("index"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	s.mu.Lock()
	err = s.selector.Choose(index)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	s.trigger("")
	redirectHome(w, r)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	state := s.orch.Store().Snapshot()
	if state.Screen() == dashboard.ScreenError {
		http.NotFound(w, r)
		return
	}

	views := s.shaper.Views(state.Results)
	svg, err := renderChart(chi.URLParam(r, "name"), views, s.chart)
	if err != nil {
		if eris.Is(err, render.ErrNoData) || eris.Is(err, render.ErrUnknownChart) {
			http.NotFound(w, r)
			return
		}
		zap.L().Error("render chart failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "render chart failed")
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

type stateResponse struct {
	Screen    string           `json:"screen"`
	Loading   bool             `json:"loading"`
	Error     string           `json:"error,omitempty"`
	SourceURL string           `json:"source_url,omitempty"`
	Format    dashboard.Format `json:"format,omitempty"`
	Endpoint  string           `json:"endpoint,omitempty"`
	FetchID   string           `json:"fetch_id,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
	Views     *dashboard.Views `json:"views,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state := s.orch.Store().Snapshot()
	resp := stateResponse{
		Screen:    state.Screen().String(),
		Loading:   state.Loading,
		Error:     state.Err,
		SourceURL: state.SourceURL,
		Endpoint:  state.Endpoint,
		FetchID:   state.FetchID,
	}
	if state.SourceURL != "" {
		resp.Format = dashboard.DetectFormat(state.SourceURL)
	}
	if !state.UpdatedAt.IsZero() {
		at := state.UpdatedAt.UTC()
		resp.UpdatedAt = &at
	}
	if state.Screen() == dashboard.ScreenDashboard {
		views := s.shaper.Views(state.Results)
		resp.Views = &views
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			s.writeError(w, http.StatusTooManyRequests, "too many fetches, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if tab := r.PostFormValue("tab"); tab != "" {
		target += "?tab=" + url.QueryEscape(string(dashboard.ParseTab(tab)))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// newAPIProxy forwards /api requests to the backend, standing in for the
// development proxy that made the same-origin fallback reachable.
func newAPIProxy(target *url.URL) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		zap.L().Warn("api proxy failed",
			zap.String("path", r.URL.Path),
			zap.String("target", target.String()),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusBadGateway)
	}
	return proxy
}
