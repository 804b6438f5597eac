package ics

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/arran4/golang-ical"

	appLog "cyclecal/internal/log"
	"cyclecal/internal/model"
)

// ErrNotSchedule is returned when a calendar carries no test events.
var ErrNotSchedule = errors.New("ics: calendar contains no test events")

// ReadSchedule parses a calendar produced by Write back into a schedule.
//
//   - Test days are read from DTSTART (VALUE=DATE) and CATEGORIES.
//   - VEVENTs with an unknown category are skipped and logged.
//   - Cycle start, anchor, cycle length and policy come from the
//     X-CYCLECAL-* calendar properties; a missing start falls back to the
//     day before the first test (cycle day 2), a missing anchor to the
//     first marker day.
func ReadSchedule(r io.Reader) (model.Schedule, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return model.Schedule{}, fmt.Errorf("ics: parse calendar: %w", err)
	}

	s := model.Schedule{Events: make(map[civil.Date]model.TestEvent)}

	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent skipped", perr, "uid", ve.Id())
			continue
		}
		if prev, ok := s.Events[ev.Date]; ok && prev.Kind != ev.Kind {
			ev.Kind = model.KindMerged
		}
		s.Events[ev.Date] = ev
	}
	if len(s.Events) == 0 {
		return model.Schedule{}, ErrNotSchedule
	}

	var haveStart, haveAnchor bool
	for _, p := range cal.CalendarProperties {
		switch p.IANAToken {
		case propStart:
			if d, err := civil.ParseDate(strings.TrimSpace(p.Value)); err == nil {
				s.Start, haveStart = d, true
			}
		case propAnchor:
			if d, err := civil.ParseDate(strings.TrimSpace(p.Value)); err == nil {
				s.Anchor, haveAnchor = d, true
			}
		case propCycle:
			if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
				s.CycleLength = n
			}
		case propPolicy:
			s.Policy = strings.TrimSpace(p.Value)
		}
	}

	dates := s.Dates()
	if !haveStart {
		s.Start = dates[0].AddDays(-1)
	}
	if !haveAnchor {
		s.Anchor = dates[0]
		for _, d := range dates {
			if k := s.Events[d].Kind; k == model.KindMarker || k == model.KindMerged {
				s.Anchor = d
				break
			}
		}
	}

	appLog.Info("ics schedule read", "event_count", len(s.Events), "start", s.Start.String())
	return s, nil
}

func parseVEvent(ve *ical.VEvent) (model.TestEvent, error) {
	var out model.TestEvent

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}
	t, err := parseICSDate(dtStart.Value)
	if err != nil {
		return out, err
	}
	out.Date = dateOf(t)

	cat := ve.GetProperty(ical.ComponentPropertyCategories)
	if cat == nil {
		return out, errors.New("missing CATEGORIES")
	}
	kind, ok := model.ParseKind(cat.Value)
	if !ok {
		return out, fmt.Errorf("unknown category %q", cat.Value)
	}
	out.Kind = kind
	return out, nil
}

// parseICSDate accepts the DATE form written by Build as well as UTC and
// floating DATE-TIME values, keeping only the calendar day.
func parseICSDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		return time.Parse("20060102T150405", v)
	}

	// Date-only (all-day), e.g., 20250101
	return time.Parse("20060102", v)
}
