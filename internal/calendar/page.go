package calendar

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"cyclecal/internal/model"
)

const guidanceDateLayout = "Jan 02"

// Guidance holds the derived dates behind the user-facing instructions.
type Guidance struct {
	BaselineStart    civil.Date
	BaselineCycleDay int
	MarkerStart      civil.Date
	MarkerCycleDay   int
	Lines            []string
}

// Page is everything an output surface needs to show one schedule.
type Page struct {
	Name     string
	Schedule model.Schedule
	Legend   []LegendEntry
	Grids    []Grid
	Guidance Guidance
}

// Render builds the page for s. Grids are produced only for the months
// SelectMonthSpans picks.
func Render(name string, s model.Schedule, weekStart time.Weekday) Page {
	spans := SelectMonthSpans(s.Events)
	grids := make([]Grid, 0, len(spans))
	for _, sp := range spans {
		grids = append(grids, RenderMonthGrid(sp.Year, sp.Month, s.Events, weekStart))
	}
	return Page{
		Name:     name,
		Schedule: s,
		Legend:   Legend(),
		Grids:    grids,
		Guidance: BuildGuidance(s),
	}
}

// BuildGuidance derives the testing instructions from the first baseline
// day and the schedule anchor. Markers may precede the baseline in short
// cycles, so the first event of any kind is not used.
func BuildGuidance(s model.Schedule) Guidance {
	g := Guidance{
		MarkerStart:    s.Anchor,
		MarkerCycleDay: s.CycleDay(s.Anchor),
	}
	for _, d := range s.Dates() {
		if k := s.Events[d].Kind; k == model.KindBaseline || k == model.KindMerged {
			g.BaselineStart = d
			g.BaselineCycleDay = s.CycleDay(d)
			break
		}
	}

	g.Lines = []string{
		fmt.Sprintf("Baseline FSH+LH: start on %s (cycle day %d), test morning urine for 3 days.",
			formatDate(g.BaselineStart), g.BaselineCycleDay),
		fmt.Sprintf("LH ovulation tracking: start around %s (cycle day %d) and continue until a strong positive.",
			formatDate(g.MarkerStart), g.MarkerCycleDay),
	}
	return g
}

func formatDate(d civil.Date) string {
	return d.In(time.UTC).Format(guidanceDateLayout)
}
