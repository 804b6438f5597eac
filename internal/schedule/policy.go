package schedule

import (
	"fmt"
)

// Policy names accepted in configuration.
const (
	PolicyLookupTable       = "lookup_table"
	PolicyOvulationEstimate = "ovulation_estimate"
)

// Policy places the marker (LH) testing phase for a cycle length. It
// returns the windows to test in and the cycle day used as the anchor.
type Policy interface {
	Name() string
	MarkerWindows(cycleLength int) (windows []Window, anchorDay int)
}

// Band maps an inclusive cycle-length range to a marker window.
type Band struct {
	MinCycle int
	MaxCycle int
	StartDay int
	Duration int
}

// Placement is a contiguous marker window: StartDay is a 1-indexed cycle
// day, Duration a number of days.
type Placement struct {
	StartDay int
	Duration int
}

// DefaultBands returns the built-in band table.
func DefaultBands() []Band {
	return []Band{
		{MinCycle: 21, MaxCycle: 23, StartDay: 5, Duration: 9},
		{MinCycle: 24, MaxCycle: 25, StartDay: 7, Duration: 10},
		{MinCycle: 26, MaxCycle: 27, StartDay: 8, Duration: 10},
		{MinCycle: 28, MaxCycle: 28, StartDay: 9, Duration: 8},
		{MinCycle: 29, MaxCycle: 30, StartDay: 11, Duration: 9},
		{MinCycle: 31, MaxCycle: 35, StartDay: 12, Duration: 10},
	}
}

var (
	// DefaultAboveTable is used when the cycle is longer than every band.
	DefaultAboveTable = Placement{StartDay: 13, Duration: 10}
	// DefaultPlacement is used for every other unmatched cycle length,
	// including cycles shorter than the table.
	DefaultPlacement = Placement{StartDay: 12, Duration: 10}
)

// LookupTable resolves the marker window from a band table.
type LookupTable struct {
	bands      []Band
	aboveTable Placement
	fallback   Placement
	maxCycle   int
}

// NewLookupTable copies bands so later changes by the caller do not leak
// into the policy.
func NewLookupTable(bands []Band, aboveTable, fallback Placement) *LookupTable {
	t := &LookupTable{
		bands:      append([]Band(nil), bands...),
		aboveTable: aboveTable,
		fallback:   fallback,
	}
	for _, b := range t.bands {
		if b.MaxCycle > t.maxCycle {
			t.maxCycle = b.MaxCycle
		}
	}
	return t
}

// DefaultLookupTable is the built-in table with its documented fallbacks.
func DefaultLookupTable() *LookupTable {
	return NewLookupTable(DefaultBands(), DefaultAboveTable, DefaultPlacement)
}

func (t *LookupTable) Name() string { return PolicyLookupTable }

// Resolve returns the placement for cycleLength. The first matching band
// wins.
func (t *LookupTable) Resolve(cycleLength int) Placement {
	for _, b := range t.bands {
		if b.MinCycle <= cycleLength && cycleLength <= b.MaxCycle {
			return Placement{StartDay: b.StartDay, Duration: b.Duration}
		}
	}
	if len(t.bands) > 0 && cycleLength > t.maxCycle {
		return t.aboveTable
	}
	return t.fallback
}

func (t *LookupTable) MarkerWindows(cycleLength int) ([]Window, int) {
	p := t.Resolve(cycleLength)
	anchor := p.StartDay
	if anchor < 1 {
		anchor = 1
	}
	return []Window{{FirstDay: p.StartDay, Count: p.Duration, Step: 1}}, anchor
}

const (
	DefaultLutealDays = 14

	denseHalfWidth = 2 // dense window spans estimate-2 .. estimate+2
	lookoutLead    = 6 // first lookout, in days before the dense window
	lookoutStep    = 2
	lookoutCount   = 2
)

// OvulationEstimate places a dense daily window around the estimated
// ovulation day (cycle length minus the luteal phase) plus two sparse
// lookout days before it. The anchor is the first marker day left after
// clipping to the cycle start.
type OvulationEstimate struct {
	LutealDays int
}

func (o OvulationEstimate) Name() string { return PolicyOvulationEstimate }

// EstimatedOvulationDay returns the estimated cycle day of ovulation.
func (o OvulationEstimate) EstimatedOvulationDay(cycleLength int) int {
	luteal := o.LutealDays
	if luteal <= 0 {
		luteal = DefaultLutealDays
	}
	return cycleLength - luteal
}

func (o OvulationEstimate) MarkerWindows(cycleLength int) ([]Window, int) {
	denseStart := o.EstimatedOvulationDay(cycleLength) - denseHalfWidth
	lookoutStart := denseStart - lookoutLead

	windows := []Window{
		{FirstDay: lookoutStart, Count: lookoutCount, Step: lookoutStep},
		{FirstDay: denseStart, Count: 2*denseHalfWidth + 1, Step: 1},
	}

	return windows, firstTestDay(windows)
}

// firstTestDay returns the earliest cycle day that survives clipping in any
// of windows, or 1 when every window is clipped away.
func firstTestDay(windows []Window) int {
	first := 0
	for _, w := range windows {
		w = w.clip()
		if w.Count <= 0 {
			continue
		}
		if first == 0 || w.FirstDay < first {
			first = w.FirstDay
		}
	}
	if first == 0 {
		return 1
	}
	return first
}

// Options selects and parameterizes a policy.
type Options struct {
	Policy     string
	Bands      []Band
	AboveTable Placement
	Default    Placement
	LutealDays int
}

// NewPolicy builds the policy named in opts. An empty name selects the
// lookup table; missing table parameters fall back to the built-ins.
func NewPolicy(opts Options) (Policy, error) {
	switch opts.Policy {
	case "", PolicyLookupTable:
		bands := opts.Bands
		if len(bands) == 0 {
			bands = DefaultBands()
		}
		above := opts.AboveTable
		if above == (Placement{}) {
			above = DefaultAboveTable
		}
		def := opts.Default
		if def == (Placement{}) {
			def = DefaultPlacement
		}
		return NewLookupTable(bands, above, def), nil
	case PolicyOvulationEstimate:
		return OvulationEstimate{LutealDays: opts.LutealDays}, nil
	default:
		return nil, fmt.Errorf("schedule: unknown policy %q", opts.Policy)
	}
}
