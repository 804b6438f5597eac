package commands

import (
	"fmt"

	"github.com/urfave/cli"

	"cyclecal/internal/directory"
	"cyclecal/internal/ics"
	appLog "cyclecal/internal/log"
)

func exportFlags() []cli.Flag {
	return append(requestFlags(),
		cli.StringFlag{
			Name:  "output, o",
			Value: "-",
			Usage: "file to write, - for stdout",
		},
		cli.BoolFlag{
			Name:  "reminder",
			Usage: "add a 07:00 display alarm to every test day",
		},
	)
}

func (r *runner) export(c *cli.Context) error {
	cfg, _, err := r.loadConfig(c)
	if err != nil {
		return err
	}
	req, err := validatorFor(cfg, directory.New(cfg.Directory)).Parse(requestValues(c))
	if err != nil {
		return err
	}
	engine, err := engineFor(cfg)
	if err != nil {
		return err
	}

	sched := engine.Compute(req.CycleLength, req.Start)
	opts := ics.ExportOptions{
		Name:            req.Name,
		Timezone:        cfg.Timezone,
		MorningReminder: c.Bool("reminder"),
	}

	out := c.String("output")
	if out == "" || out == "-" {
		return ics.Write(r.env.Stdout, sched, opts)
	}

	f, err := r.env.Fs.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := ics.Write(f, sched, opts); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	appLog.Info("calendar exported", "path", out, "events", len(sched.Events))
	fmt.Fprintf(r.env.Stderr, "wrote %d test days to %s\n", len(sched.Events), out)
	return nil
}
