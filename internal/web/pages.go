package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"cyclecal/internal/calendar"
	"cyclecal/internal/form"
	appLog "cyclecal/internal/log"
	"cyclecal/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"eventClass": calendar.CSSClass,
	"cycleDay":   func(s model.Schedule, c calendar.Cell) int { return s.CycleDay(c.Date) },
}).ParseFS(templateFS, "templates/*.html"))

// formView feeds index.html.
type formView struct {
	Name        string
	CycleLength int
	StartDate   string
	MinLength   int
	MaxLength   int
	Error       string
}

// calendarView feeds calendar.html.
type calendarView struct {
	Page    calendar.Page
	ICSURL  template.URL
	EditURL template.URL
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	in := valuesFrom(r)
	s.renderForm(w, http.StatusOK, in, "")
}

// handleCalendar validates the form and renders the schedule page. Invalid
// input re-renders the form with the message and never reaches the engine.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	in := valuesFrom(r)
	req, err := s.validator().Parse(in)
	if err != nil {
		if !errors.Is(err, form.ErrInvalidInput) {
			appLog.Error("calendar request failed", err)
		}
		s.renderForm(w, http.StatusBadRequest, in, err.Error())
		return
	}

	sched := s.engine.Compute(req.CycleLength, req.Start)
	q := requestQuery(req).Encode()
	view := calendarView{
		Page:    calendar.Render(req.Name, sched, s.weekStart),
		ICSURL:  template.URL("/api/schedule.ics?" + q),
		EditURL: template.URL("/?" + q),
	}
	appLog.Debug("calendar rendered",
		"cycle_length", req.CycleLength,
		"start", req.Start.String(),
		"events", len(sched.Events),
		"grids", len(view.Page.Grids),
	)
	s.renderTemplate(w, http.StatusOK, "calendar.html", view)
}

func (s *Server) renderForm(w http.ResponseWriter, status int, in form.Values, msg string) {
	v := s.validator()
	view := formView{
		Name:      in.Name,
		StartDate: in.StartDate,
		MinLength: s.cfg.Cycle.MinLength,
		MaxLength: s.cfg.Cycle.MaxLength,
		Error:     msg,
	}
	if n, err := strconv.Atoi(in.CycleLength); err == nil {
		view.CycleLength = n
	} else {
		view.CycleLength, _ = v.DefaultCycle(in.Name)
	}
	if view.StartDate == "" {
		view.StartDate = v.Today().String()
	}
	s.renderTemplate(w, status, "index.html", view)
}

// renderTemplate executes into a buffer first so a template error still
// yields a clean 500.
func (s *Server) renderTemplate(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		appLog.Error("template render failed", err, "template", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func requestQuery(req form.Request) url.Values {
	q := url.Values{}
	q.Set("name", req.Name)
	q.Set("cycle_length", strconv.Itoa(req.CycleLength))
	q.Set("start_date", req.Start.String())
	return q
}
