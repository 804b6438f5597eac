package schedule

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/teambition/rrule-go"

	appLog "cyclecal/internal/log"
)

// Window is a run of testing days expressed in cycle days (day 1 is the
// cycle start date). Days are FirstDay, FirstDay+Step, ... Count of them.
type Window struct {
	FirstDay int
	Count    int
	Step     int
}

// clip drops the days that fall before cycle day 1 while keeping the
// cadence of the remaining days.
func (w Window) clip() Window {
	if w.Step <= 0 {
		w.Step = 1
	}
	if w.FirstDay >= 1 || w.Count <= 0 {
		return w
	}
	skip := (1 - w.FirstDay + w.Step - 1) / w.Step
	w.FirstDay += skip * w.Step
	w.Count -= skip
	if w.Count < 0 {
		w.Count = 0
	}
	return w
}

// dates expands the window into calendar dates relative to start.
func (w Window) dates(start civil.Date) []civil.Date {
	w = w.clip()
	if w.Count <= 0 {
		return nil
	}
	return dailyDates(start.AddDays(w.FirstDay-1), w.Count, w.Step)
}

// dailyDates enumerates count dates beginning at first, step days apart,
// using a FREQ=DAILY recurrence rule.
func dailyDates(first civil.Date, count, step int) []civil.Date {
	// COUNT=0 means an unbounded rule.
	if count <= 0 {
		return nil
	}
	if step <= 0 {
		step = 1
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: step,
		Count:    count,
		Dtstart:  first.In(time.UTC),
	})
	if err != nil {
		appLog.Error("schedule: rrule rejected window; expanding manually", err,
			"first", first.String(), "count", count, "step", step)
		out := make([]civil.Date, 0, count)
		for i := 0; i < count; i++ {
			out = append(out, first.AddDays(i*step))
		}
		return out
	}

	occ := r.All()
	out := make([]civil.Date, 0, len(occ))
	for _, t := range occ {
		out = append(out, civil.DateOf(t))
	}
	return out
}
