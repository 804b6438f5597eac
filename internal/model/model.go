package model

import (
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Kind identifies which hormone panel is due on a day. The zero value is
// not a valid kind.
type Kind int

const (
	KindBaseline Kind = iota + 1 // FSH + LH, cycle days 2-4
	KindMarker                   // LH ovulation tracking
	KindMerged                   // both panels on the same day
)

// Kinds lists every valid kind in legend order.
var Kinds = []Kind{KindBaseline, KindMarker, KindMerged}

func (k Kind) String() string {
	switch k {
	case KindBaseline:
		return "BASELINE"
	case KindMarker:
		return "MARKER"
	case KindMerged:
		return "MERGED"
	}
	return "UNKNOWN"
}

// Label is the human-readable cell text for the kind.
func (k Kind) Label() string {
	switch k {
	case KindBaseline:
		return "FSH + LH"
	case KindMarker:
		return "LH (ovulation)"
	case KindMerged:
		return "FSH + LH & LH"
	}
	return ""
}

// Description is the longer legend text for the kind.
func (k Kind) Description() string {
	switch k {
	case KindBaseline:
		return "Baseline test (FSH+LH)"
	case KindMarker:
		return "Ovulation tracking (LH)"
	case KindMerged:
		return "Baseline and ovulation tests"
	}
	return ""
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if strings.EqualFold(strings.TrimSpace(s), k.String()) {
			return k, true
		}
	}
	return 0, false
}

func (k Kind) Valid() bool {
	return k >= KindBaseline && k <= KindMerged
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// TestEvent is the single test due on one calendar day.
type TestEvent struct {
	Date civil.Date
	Kind Kind
}

// Label is derived from Kind only.
func (e TestEvent) Label() string {
	return e.Kind.Label()
}

// Schedule is the full result of one schedule computation. Events is keyed
// by date, so at most one event exists per day.
type Schedule struct {
	Events map[civil.Date]TestEvent

	// Anchor marks the start of the marker-testing phase and is only used
	// for guidance text.
	Anchor civil.Date

	CycleLength int
	Start       civil.Date
	Policy      string
}

// Dates returns the event dates in ascending order.
func (s Schedule) Dates() []civil.Date {
	return SortedDates(s.Events)
}

// SortedDates returns the keys of events in ascending order.
func SortedDates(events map[civil.Date]TestEvent) []civil.Date {
	dates := make([]civil.Date, 0, len(events))
	for d := range events {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}

// CycleDay returns the 1-indexed cycle day of d, where Start is day 1.
func (s Schedule) CycleDay(d civil.Date) int {
	return d.DaysSince(s.Start) + 1
}

// MonthSpan identifies one month grid to render.
type MonthSpan struct {
	Year  int
	Month time.Month
}
