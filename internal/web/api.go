package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"cyclecal/internal/calendar"
	"cyclecal/internal/form"
	"cyclecal/internal/ics"
	appLog "cyclecal/internal/log"
	"cyclecal/internal/model"
)

// scheduleResponse is the JSON response shape for /api/schedule.
type scheduleResponse struct {
	Name        string     `json:"name"`
	CycleLength int        `json:"cycle_length"`
	Prefilled   bool       `json:"prefilled"`
	Start       string     `json:"start"`
	Anchor      string     `json:"anchor"`
	Policy      string     `json:"policy"`
	WeekStart   string     `json:"week_start"`
	Events      []eventDTO `json:"events"`
	Months      []monthDTO `json:"months"`
	Guidance    []string   `json:"guidance"`
}

type eventDTO struct {
	Date     string     `json:"date"`
	CycleDay int        `json:"cycle_day"`
	Kind     model.Kind `json:"kind"`
	Label    string     `json:"label"`
	Color    string     `json:"color"`
}

type monthDTO struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type lookupResponse struct {
	Name        string `json:"name"`
	CycleLength int    `json:"cycle_length"`
	Found       bool   `json:"found"`
}

// handleSchedule computes a schedule and returns it as JSON.
//
// GET /api/schedule?name=Ada&cycle_length=28&start_date=2024-01-01
//   - cycle_length: optional, defaults to the directory entry or the configured default
//   - start_date:   optional, defaults to today in the configured timezone
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseAPIRequest(w, r)
	if !ok {
		return
	}

	sched := s.engine.Compute(req.CycleLength, req.Start)
	guidance := calendar.BuildGuidance(sched)

	resp := scheduleResponse{
		Name:        req.Name,
		CycleLength: sched.CycleLength,
		Prefilled:   req.Prefilled,
		Start:       sched.Start.String(),
		Anchor:      sched.Anchor.String(),
		Policy:      sched.Policy,
		WeekStart:   s.weekStart.String(),
		Events:      make([]eventDTO, 0, len(sched.Events)),
		Guidance:    guidance.Lines,
	}
	for _, d := range sched.Dates() {
		ev := sched.Events[d]
		resp.Events = append(resp.Events, eventDTO{
			Date:     d.String(),
			CycleDay: sched.CycleDay(d),
			Kind:     ev.Kind,
			Label:    ev.Label(),
			Color:    calendar.Color(ev.Kind),
		})
	}
	for _, sp := range calendar.SelectMonthSpans(sched.Events) {
		resp.Months = append(resp.Months, monthDTO{Year: sp.Year, Month: int(sp.Month)})
	}

	appLog.Info("api schedule request",
		"cycle_length", req.CycleLength,
		"start", req.Start.String(),
		"prefilled", req.Prefilled,
	)
	writeJSON(w, http.StatusOK, resp)
}

// handleScheduleICS returns the schedule as an iCalendar download. Pass
// reminder=1 to add a morning alarm to every test day.
func (s *Server) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseAPIRequest(w, r)
	if !ok {
		return
	}

	reminder, _ := strconv.ParseBool(r.URL.Query().Get("reminder"))
	sched := s.engine.Compute(req.CycleLength, req.Start)

	var buf bytes.Buffer
	err := ics.Write(&buf, sched, ics.ExportOptions{
		Name:            req.Name,
		Timezone:        s.loc.String(),
		MorningReminder: reminder,
		Now:             s.now(),
	})
	if err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="cyclecal-%s.ics"`, req.Start))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleLookup returns the cycle length pre-fill for a name.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, form.ErrNameRequired.Error())
		return
	}
	cl, found := s.validator().DefaultCycle(name)
	writeJSON(w, http.StatusOK, lookupResponse{Name: name, CycleLength: cl, Found: found})
}

func (s *Server) parseAPIRequest(w http.ResponseWriter, r *http.Request) (form.Request, bool) {
	req, err := s.validator().Parse(valuesFrom(r))
	if err != nil {
		if errors.Is(err, form.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			appLog.Error("request parse failed", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return form.Request{}, false
	}
	return req, true
}
