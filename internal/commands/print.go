package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"cyclecal/internal/calendar"
	"cyclecal/internal/directory"
	"cyclecal/internal/ics"
	"cyclecal/internal/model"
)

const ansiReset = "\x1b[0m"

func printFlags() []cli.Flag {
	return append(requestFlags(),
		cli.StringFlag{
			Name:  "ics",
			Usage: "render a previously exported .ics file instead of computing",
		},
		cli.StringFlag{
			Name:  "week-start",
			Usage: "monday or sunday (default: week_start from the config)",
		},
		cli.StringFlag{
			Name:  "color",
			Value: "auto",
			Usage: "auto, always or never",
		},
	)
}

func (r *runner) print(c *cli.Context) error {
	cfg, _, err := r.loadConfig(c)
	if err != nil {
		return err
	}

	weekStart := cfg.WeekStart
	if ws := c.String("week-start"); ws != "" {
		weekStart = ws
	}

	var (
		name  string
		sched model.Schedule
	)
	if path := c.String("ics"); path != "" {
		f, err := r.env.Fs.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		if sched, err = ics.ReadSchedule(f); err != nil {
			return err
		}
		name = c.String("name")
	} else {
		req, err := validatorFor(cfg, directory.New(cfg.Directory)).Parse(requestValues(c))
		if err != nil {
			return err
		}
		engine, err := engineFor(cfg)
		if err != nil {
			return err
		}
		name, sched = req.Name, engine.Compute(req.CycleLength, req.Start)
	}

	page := calendar.Render(name, sched, calendar.ParseWeekStart(weekStart))
	return writePage(r.env.Stdout, page, useColor(r.env.Stdout, c.String("color")))
}

// useColor resolves the --color mode; "auto" colors only a terminal.
func useColor(w io.Writer, mode string) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writePage prints the page as plain-text month grids. Each test day is
// suffixed with its kind's symbol, and colored when color is set.
func writePage(w io.Writer, p calendar.Page, color bool) error {
	var b strings.Builder

	title := "Hormone testing schedule"
	if p.Name != "" {
		title += " for " + p.Name
	}
	fmt.Fprintln(&b, title)
	if p.Schedule.CycleLength > 0 {
		fmt.Fprintf(&b, "Cycle length %d days, cycle day 1 on %s\n", p.Schedule.CycleLength, p.Schedule.Start)
	}
	b.WriteString("\n")

	for _, e := range p.Legend {
		fmt.Fprintf(&b, "  %s  %s: %s\n", paint(symbol(e.Kind), e.Kind, color), e.Label, e.Description)
	}

	for _, g := range p.Grids {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s\n", g.Title)
		for _, wd := range g.Weekdays {
			fmt.Fprintf(&b, " %4s", wd)
		}
		b.WriteString("\n")
		for _, week := range g.Weeks {
			for _, cell := range week {
				b.WriteString(" ")
				b.WriteString(formatCell(cell, color))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	for _, line := range p.Guidance.Lines {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatCell renders a cell in four visible columns.
func formatCell(cell calendar.Cell, color bool) string {
	if !cell.InMonth {
		return "    "
	}
	if cell.Event == nil {
		return fmt.Sprintf("%3d ", cell.Day)
	}
	return paint(fmt.Sprintf("%3d%s", cell.Day, symbol(cell.Event.Kind)), cell.Event.Kind, color)
}

func symbol(k model.Kind) string {
	switch k {
	case model.KindBaseline:
		return "B"
	case model.KindMarker:
		return "L"
	case model.KindMerged:
		return "*"
	}
	return "?"
}

func paint(s string, k model.Kind, color bool) string {
	if !color {
		return s
	}
	var code string
	switch k {
	case model.KindBaseline:
		code = "\x1b[1;34m"
	case model.KindMarker:
		code = "\x1b[1;31m"
	case model.KindMerged:
		code = "\x1b[1;35m"
	default:
		return s
	}
	return code + s + ansiReset
}
