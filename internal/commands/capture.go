package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli"

	"cyclecal/internal/capture"
	"cyclecal/internal/directory"
)

func captureFlags() []cli.Flag {
	return append(requestFlags(),
		cli.StringFlag{
			Name:  "url",
			Usage: "base URL of a running cyclecal server (default: http://<listen>)",
		},
		cli.StringFlag{
			Name:  "output, o",
			Value: "calendar.png",
			Usage: "PNG file to write",
		},
	)
}

func (r *runner) capture(c *cli.Context) error {
	cfg, _, err := r.loadConfig(c)
	if err != nil {
		return err
	}
	req, err := validatorFor(cfg, directory.New(cfg.Directory)).Parse(requestValues(c))
	if err != nil {
		return err
	}

	base := c.String("url")
	if base == "" {
		base = "http://" + cfg.Listen
	}
	pageURL, err := capture.CalendarURL(base, req)
	if err != nil {
		return err
	}

	out := c.String("output")
	opts := capture.OptionsFromConfig(cfg.Capture, pageURL)
	if err := capture.CalendarToFile(context.Background(), r.env.Fs, opts, out); err != nil {
		return err
	}
	fmt.Fprintf(r.env.Stderr, "wrote %s\n", out)
	return nil
}
