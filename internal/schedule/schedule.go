// Package schedule derives the hormone-testing days for one cycle.
//
// The engine is a pure function of (cycle length, start date): it never
// fails, keeps no state between calls and returns at most one event per
// calendar day.
package schedule

import (
	"cloud.google.com/go/civil"

	"cyclecal/internal/model"
)

// Baseline tests run on the three days after the cycle start (cycle days
// 2-4), whatever the cycle length.
const (
	baselineFirstDay = 2
	baselineDays     = 3
)

// Engine computes schedules with a fixed policy.
type Engine struct {
	policy Policy
}

// NewEngine returns an engine using p. A nil policy selects the default
// lookup table.
func NewEngine(p Policy) *Engine {
	if p == nil {
		p = DefaultLookupTable()
	}
	return &Engine{policy: p}
}

var defaultEngine = NewEngine(nil)

// Compute runs the default lookup-table engine.
func Compute(cycleLength int, start civil.Date) model.Schedule {
	return defaultEngine.Compute(cycleLength, start)
}

// Policy returns the engine's placement policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Compute derives the schedule for a cycle of cycleLength days starting on
// start.
func (e *Engine) Compute(cycleLength int, start civil.Date) model.Schedule {
	events := make(map[civil.Date]model.TestEvent)

	baseline := Window{FirstDay: baselineFirstDay, Count: baselineDays, Step: 1}
	for _, d := range baseline.dates(start) {
		events[d] = model.TestEvent{Date: d, Kind: model.KindBaseline}
	}

	windows, anchorDay := e.policy.MarkerWindows(cycleLength)
	for _, w := range windows {
		for _, d := range w.dates(start) {
			addMarker(events, d)
		}
	}

	return model.Schedule{
		Events:      events,
		Anchor:      start.AddDays(anchorDay - 1),
		CycleLength: cycleLength,
		Start:       start,
		Policy:      e.policy.Name(),
	}
}

// addMarker records a marker test on d. A baseline day becomes a merged
// day; an existing marker or merged day is left alone.
func addMarker(events map[civil.Date]model.TestEvent, d civil.Date) {
	ev, ok := events[d]
	if !ok {
		events[d] = model.TestEvent{Date: d, Kind: model.KindMarker}
		return
	}
	if ev.Kind == model.KindBaseline {
		ev.Kind = model.KindMerged
		events[d] = ev
	}
}
