// Package calendar turns a schedule's date->event mapping into month grids,
// a legend and guidance text. Everything here is a pure function of its
// inputs.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"cyclecal/internal/model"
)

// Cell is one day slot of a week row. Padding cells have InMonth == false
// and Day == 0.
type Cell struct {
	Day     int
	Date    civil.Date
	InMonth bool
	Event   *model.TestEvent
}

// Grid is one month laid out as week rows.
type Grid struct {
	Year     int
	Month    time.Month
	Title    string
	Weekdays []string
	Weeks    [][]Cell
}

// ParseWeekStart maps a config value to the first weekday of a grid row.
// Anything other than "sunday" yields Monday.
func ParseWeekStart(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "sunday") {
		return time.Sunday
	}
	return time.Monday
}

// SelectMonthSpans returns the months that must be rendered: the month of
// the earliest event, plus the month of the latest event when it differs.
func SelectMonthSpans(events map[civil.Date]model.TestEvent) []model.MonthSpan {
	dates := model.SortedDates(events)
	if len(dates) == 0 {
		return []model.MonthSpan{}
	}
	first, last := dates[0], dates[len(dates)-1]

	spans := []model.MonthSpan{{Year: first.Year, Month: first.Month}}
	if last.Year != first.Year || last.Month != first.Month {
		spans = append(spans, model.MonthSpan{Year: last.Year, Month: last.Month})
	}
	return spans
}

// RenderMonthGrid lays out year/month in rows of seven days beginning on
// weekStart, annotating each in-month day with its event if one exists.
func RenderMonthGrid(year int, month time.Month, events map[civil.Date]model.TestEvent, weekStart time.Weekday) Grid {
	g := Grid{
		Year:     year,
		Month:    month,
		Title:    fmt.Sprintf("%s %d", month, year),
		Weekdays: weekdayHeaders(weekStart),
	}

	first := civil.Date{Year: year, Month: month, Day: 1}
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	lead := (int(weekdayOf(first)) - int(weekStart) + 7) % 7

	row := make([]Cell, 0, 7)
	for i := 0; i < lead; i++ {
		row = append(row, Cell{})
	}
	for day := 1; day <= daysInMonth; day++ {
		d := civil.Date{Year: year, Month: month, Day: day}
		c := Cell{Day: day, Date: d, InMonth: true}
		if ev, ok := events[d]; ok {
			ev := ev
			c.Event = &ev
		}
		row = append(row, c)
		if len(row) == 7 {
			g.Weeks = append(g.Weeks, row)
			row = make([]Cell, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, Cell{})
		}
		g.Weeks = append(g.Weeks, row)
	}
	return g
}

func weekdayOf(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

func weekdayHeaders(weekStart time.Weekday) []string {
	out := make([]string, 7)
	for i := range out {
		out[i] = time.Weekday((int(weekStart) + i) % 7).String()[:3]
	}
	return out
}

// LegendEntry describes how one event kind is displayed.
type LegendEntry struct {
	Kind        model.Kind
	Label       string
	Description string
	Color       string
	Class       string
}

// Legend returns one entry per event kind, in display order.
func Legend() []LegendEntry {
	out := make([]LegendEntry, 0, len(model.Kinds))
	for _, k := range model.Kinds {
		out = append(out, LegendEntry{
			Kind:        k,
			Label:       k.Label(),
			Description: k.Description(),
			Color:       Color(k),
			Class:       CSSClass(k),
		})
	}
	return out
}

// Color is the marker color for k.
func Color(k model.Kind) string {
	switch k {
	case model.KindBaseline:
		return "#5D9CEC"
	case model.KindMarker:
		return "#FF7E79"
	case model.KindMerged:
		return "#AC92EC"
	}
	return "#CCCCCC"
}

// CSSClass is the event-tag class used by the HTML page for k.
func CSSClass(k model.Kind) string {
	switch k {
	case model.KindBaseline:
		return "evt-base"
	case model.KindMarker:
		return "evt-ovu"
	case model.KindMerged:
		return "evt-both"
	}
	return ""
}
