package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"cyclecal/internal/calendar"
	"cyclecal/internal/config"
	"cyclecal/internal/directory"
	"cyclecal/internal/form"
	appLog "cyclecal/internal/log"
	"cyclecal/internal/schedule"
)

// Server provides the HTML form, the calendar page and the JSON/ICS APIs.
// The only state shared between requests is read-only: the engine and the
// current directory snapshot.
type Server struct {
	cfg       *config.Config
	engine    *schedule.Engine
	directory *directory.Live
	loc       *time.Location
	weekStart time.Weekday
	mux       *http.ServeMux
	limiter   *rate.Limiter

	// now is replaced in tests.
	now func() time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, engine *schedule.Engine, dir *directory.Live) *Server {
	if engine == nil {
		engine = schedule.NewEngine(nil)
	}
	if dir == nil {
		dir = directory.NewLive(directory.New(cfg.Directory))
	}
	s := &Server{
		cfg:       cfg,
		engine:    engine,
		directory: dir,
		loc:       resolveLocationOrLocal(cfg.Timezone),
		weekStart: calendar.ParseWeekStart(cfg.WeekStart),
		mux:       http.NewServeMux(),
		now:       time.Now,
	}
	if cfg.RateLimit.PerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst)
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.limiter != nil {
		h = s.rateLimitMiddleware(h)
	}
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return h
}

// StartServer serves s on cfg.Listen until ctx is canceled, then shuts
// down gracefully.
func StartServer(ctx context.Context, s *Server) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	s.mux.HandleFunc("GET /api/schedule.ics", s.handleScheduleICS)
	s.mux.HandleFunc("GET /api/lookup", s.handleLookup)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) validator() form.Validator {
	return form.Validator{
		Cycle:     s.cfg.Cycle,
		Directory: s.directory,
		Location:  s.loc,
		Now:       s.now,
	}
}

func valuesFrom(r *http.Request) form.Values {
	q := r.URL.Query()
	return form.Values{
		Name:        q.Get("name"),
		CycleLength: q.Get("cycle_length"),
		StartDate:   q.Get("start_date"),
	}
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
