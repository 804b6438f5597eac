package ics

import (
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"cyclecal/internal/model"
)

const (
	ProductID = "-//cyclecal//Hormone Testing Calendar//EN"

	// Calendar-level properties carrying the schedule context, so a
	// exported file can be rendered again without recomputing.
	propStart  = "X-CYCLECAL-START"
	propAnchor = "X-CYCLECAL-ANCHOR"
	propCycle  = "X-CYCLECAL-CYCLE-LENGTH"
	propPolicy = "X-CYCLECAL-POLICY"

	uidDomain = "cyclecal"
)

// ExportOptions tunes the generated calendar.
type ExportOptions struct {
	// Name is the person the schedule belongs to; used in the calendar name.
	Name string
	// Timezone is advertised as X-WR-TIMEZONE. Events are all-day, so it
	// does not shift any dates.
	Timezone string
	// MorningReminder adds a display alarm at 07:00 on each test day.
	MorningReminder bool
	// Now stamps DTSTAMP. Zero means time.Now().
	Now time.Time
}

// Build converts a schedule into an iCalendar with one all-day VEVENT per
// test day. UIDs are stable for the same schedule, so re-importing an
// updated export replaces rather than duplicates events.
func Build(s model.Schedule, opts ExportOptions) *ical.Calendar {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)
	if opts.Name != "" {
		cal.SetXWRCalName(fmt.Sprintf("Hormone tests: %s", opts.Name))
	} else {
		cal.SetXWRCalName("Hormone tests")
	}
	if opts.Timezone != "" {
		cal.SetXWRTimezone(opts.Timezone)
	}
	addCalendarProperty(cal, propStart, s.Start.String())
	addCalendarProperty(cal, propAnchor, s.Anchor.String())
	addCalendarProperty(cal, propCycle, fmt.Sprint(s.CycleLength))
	addCalendarProperty(cal, propPolicy, s.Policy)

	for _, d := range s.Dates() {
		ev := s.Events[d]
		day := d.In(time.UTC)

		vev := cal.AddEvent(eventUID(s, ev))
		vev.SetDtStampTime(now.UTC())
		vev.SetAllDayStartAt(day)
		vev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		vev.SetSummary(ev.Label())
		vev.SetDescription(fmt.Sprintf("%s, cycle day %d", ev.Kind.Description(), s.CycleDay(d)))
		vev.SetProperty(ical.ComponentPropertyCategories, ev.Kind.String())

		if opts.MorningReminder {
			alarm := vev.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger("PT7H")
			alarm.SetProperty(ical.ComponentPropertyDescription, "Reminder: "+ev.Label())
		}
	}
	return cal
}

// Write serializes the calendar for s to w.
func Write(w io.Writer, s model.Schedule, opts ExportOptions) error {
	_, err := io.WriteString(w, Build(s, opts).Serialize())
	return err
}

func addCalendarProperty(cal *ical.Calendar, token, value string) {
	cal.CalendarProperties = append(cal.CalendarProperties, ical.CalendarProperty{
		BaseProperty: ical.BaseProperty{IANAToken: token, Value: value},
	})
}

func eventUID(s model.Schedule, ev model.TestEvent) string {
	key := fmt.Sprintf("%s|%s|%d|%s", s.Start, ev.Date, s.CycleLength, s.Policy)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String() + "@" + uidDomain
}

// dateOf converts an all-day start time into a calendar date.
func dateOf(t time.Time) civil.Date {
	return civil.Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}
