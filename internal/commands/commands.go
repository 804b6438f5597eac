// Package commands wires the cyclecal CLI: the HTTP server plus one-shot
// print, export, capture and hash-password commands.
package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"cyclecal/internal/config"
	"cyclecal/internal/directory"
	"cyclecal/internal/form"
	appLog "cyclecal/internal/log"
	"cyclecal/internal/schedule"
)

const DefaultConfigPath = "/etc/cyclecal/config.yaml"

// Env holds the process resources commands touch, so tests can swap them.
type Env struct {
	Fs     afero.Fs
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// OSEnv is the real filesystem and standard streams.
func OSEnv() Env {
	return Env{Fs: afero.NewOsFs(), Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Execute runs the CLI with args (os.Args style).
func Execute(args []string, version string) error {
	return NewApp(OSEnv(), version).Run(args)
}

// NewApp builds the CLI application bound to env.
func NewApp(env Env, version string) *cli.App {
	app := cli.NewApp()
	app.Name = "cyclecal"
	app.HelpName = "cyclecal"
	app.Usage = "hormone-testing schedule and calendar"
	app.UsageText = "cyclecal [--config PATH] <command> [arguments...]"
	app.Version = version
	app.Writer = env.Stdout
	app.ErrWriter = env.Stderr
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "path to the YAML config file (created with defaults if missing)",
			Value:  DefaultConfigPath,
			EnvVar: "CYCLECAL_CONFIG",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "override log_level from the config (debug, info, warn, error)",
		},
	}

	r := &runner{env: env}
	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "run the web form, calendar page and JSON/ICS API",
			Flags:  serveFlags(),
			Action: r.serve,
		},
		{
			Name:      "print",
			Aliases:   []string{"p"},
			Usage:     "print the schedule as month grids in the terminal",
			UsageText: "cyclecal print --name NAME [--cycle N] [--start YYYY-MM-DD] | --ics FILE",
			Flags:     printFlags(),
			Action:    r.print,
		},
		{
			Name:   "export",
			Usage:  "write the schedule as an iCalendar file",
			Flags:  exportFlags(),
			Action: r.export,
		},
		{
			Name:   "capture",
			Usage:  "save a PNG of the calendar page from a running server",
			Flags:  captureFlags(),
			Action: r.capture,
		},
		{
			Name:   "hash-password",
			Usage:  "hash a password for basic_auth.password_hash",
			Flags:  hashPasswordFlags(),
			Action: r.hashPassword,
		},
	}
	return app
}

type runner struct {
	env Env
}

// loadConfig loads the config named by --config and applies the log level.
func (r *runner) loadConfig(c *cli.Context) (*config.Config, string, error) {
	path := c.GlobalString("config")
	cfg, err := config.Load(r.env.Fs, path)
	if err != nil {
		return nil, path, fmt.Errorf("load config %s: %w", path, err)
	}
	level := cfg.LogLevel
	if override := c.GlobalString("log-level"); override != "" {
		level = override
	}
	appLog.SetLevel(appLog.ParseLevel(level))
	return cfg, path, nil
}

// engineFor builds the engine for the configured placement policy.
func engineFor(cfg *config.Config) (*schedule.Engine, error) {
	p, err := schedule.NewPolicy(cfg.ScheduleOptions())
	if err != nil {
		return nil, fmt.Errorf("schedule policy: %w", err)
	}
	return schedule.NewEngine(p), nil
}

func validatorFor(cfg *config.Config, dir *directory.Directory) form.Validator {
	return form.Validator{
		Cycle:     cfg.Cycle,
		Directory: dir,
		Location:  loadLocation(cfg.Timezone),
	}
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Warn("unknown timezone; using local time", "timezone", name)
		return time.Local
	}
	return loc
}

// requestFlags are shared by print, export and capture.
func requestFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "name, n",
			Usage: "whose schedule this is (required)",
		},
		cli.StringFlag{
			Name:  "cycle",
			Usage: "cycle length in days (default: directory entry or cycle.default_length)",
		},
		cli.StringFlag{
			Name:  "start, s",
			Usage: "first day of the cycle, YYYY-MM-DD (default: today)",
		},
	}
}

func requestValues(c *cli.Context) form.Values {
	return form.Values{
		Name:        c.String("name"),
		CycleLength: c.String("cycle"),
		StartDate:   c.String("start"),
	}
}
