package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"cyclecal/internal/config"
	"cyclecal/internal/directory"
	appLog "cyclecal/internal/log"
	"cyclecal/internal/reminder"
	"cyclecal/internal/web"
)

func serveFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "listen, l",
			Usage: "HTTP listen address (overrides config if set)",
		},
		cli.BoolFlag{
			Name:  "no-watch",
			Usage: "do not reload the config file when it changes",
		},
	}
}

func (r *runner) serve(c *cli.Context) error {
	cfg, path, err := r.loadConfig(c)
	if err != nil {
		return err
	}
	if listen := c.String("listen"); listen != "" {
		cfg.Listen = listen
	}

	engine, err := engineFor(cfg)
	if err != nil {
		return err
	}

	appLog.Info("effective config",
		"config_path", path,
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"week_start", cfg.WeekStart,
		"policy", engine.Policy().Name(),
		"directory_entries", len(cfg.Directory),
		"reminder_profiles", len(cfg.Reminders.Profiles),
		"basic_auth", cfg.BasicAuth != nil && cfg.BasicAuth.PasswordHash != "",
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	dir := directory.NewLive(directory.New(cfg.Directory))

	var job *reminder.Job
	if cfg.Reminders.Cron != "" {
		job = reminder.NewJob(cfg, engine, dir, loadLocation(cfg.Timezone))
		if _, err := reminder.Start(ctx, cfg.Reminders.Cron, job); err != nil {
			return err
		}
	}

	// The policy, listen address and auth are fixed for the process; a
	// reload only refreshes the directory, reminder profiles and log level.
	if !c.Bool("no-watch") {
		go func() {
			err := config.Watch(ctx, r.env.Fs, path, func(next *config.Config) {
				dir.Store(directory.New(next.Directory))
				if job != nil {
					job.Update(next)
				}
				if c.GlobalString("log-level") == "" {
					appLog.SetLevel(appLog.ParseLevel(next.LogLevel))
				}
			})
			if err != nil {
				appLog.Error("config watch stopped", err, "path", path)
			}
		}()
	}

	srv := web.NewServer(cfg, engine, dir)
	if err := web.StartServer(ctx, srv); err != nil {
		return err
	}
	appLog.Info("cyclecal exiting")
	return nil
}
