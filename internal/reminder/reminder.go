// Package reminder runs a cron job that logs which hormone test each
// configured profile has due today.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"

	"cyclecal/internal/config"
	appLog "cyclecal/internal/log"
	"cyclecal/internal/model"
	"cyclecal/internal/schedule"
)

// Lookuper resolves a person's usual cycle length.
type Lookuper interface {
	Lookup(name string) (int, bool)
}

// Reminder is one test due for one profile.
type Reminder struct {
	Profile  string
	Date     civil.Date
	Kind     model.Kind
	CycleDay int
}

func (r Reminder) String() string {
	return fmt.Sprintf("%s: %s on %s (cycle day %d)", r.Profile, r.Kind.Label(), r.Date, r.CycleDay)
}

// Job checks every profile against today's date. It implements cron.Job.
type Job struct {
	engine    *schedule.Engine
	directory Lookuper
	loc       *time.Location
	now       func() time.Time

	mu           sync.RWMutex
	profiles     []config.ProfileConfig
	defaultCycle int
}

// NewJob builds a job from the reminders and cycle sections of cfg.
func NewJob(cfg *config.Config, engine *schedule.Engine, dir Lookuper, loc *time.Location) *Job {
	if engine == nil {
		engine = schedule.NewEngine(nil)
	}
	if loc == nil {
		loc = time.Local
	}
	j := &Job{engine: engine, directory: dir, loc: loc, now: time.Now}
	j.Update(cfg)
	return j
}

// Update swaps in the profiles of a reloaded config.
func (j *Job) Update(cfg *config.Config) {
	profiles := make([]config.ProfileConfig, len(cfg.Reminders.Profiles))
	copy(profiles, cfg.Reminders.Profiles)

	j.mu.Lock()
	j.profiles = profiles
	j.defaultCycle = cfg.Cycle.DefaultLength
	j.mu.Unlock()
}

// Check returns the tests due on today, in profile order.
func (j *Job) Check(today civil.Date) []Reminder {
	j.mu.RLock()
	profiles := j.profiles
	defaultCycle := j.defaultCycle
	j.mu.RUnlock()

	var out []Reminder
	for _, p := range profiles {
		start, err := civil.ParseDate(strings.TrimSpace(p.StartDate))
		if err != nil {
			appLog.Error("reminder profile skipped: bad start_date", err, "profile", p.Name)
			continue
		}
		cl := j.cycleLength(p, defaultCycle)

		s := j.engine.Compute(cl, start)
		if ev, ok := s.Events[today]; ok {
			out = append(out, Reminder{Profile: p.Name, Date: today, Kind: ev.Kind, CycleDay: s.CycleDay(today)})
		}
	}
	return out
}

func (j *Job) cycleLength(p config.ProfileConfig, defaultCycle int) int {
	if p.CycleLength > 0 {
		return p.CycleLength
	}
	if j.directory != nil {
		if cl, ok := j.directory.Lookup(p.Name); ok {
			return cl
		}
	}
	return defaultCycle
}

// Run logs today's reminders.
func (j *Job) Run() {
	today := civil.DateOf(j.now().In(j.loc))
	due := j.Check(today)
	if len(due) == 0 {
		appLog.Debug("no hormone tests due today", "date", today.String())
		return
	}
	for _, r := range due {
		appLog.Info("hormone test due",
			"profile", r.Profile,
			"date", r.Date.String(),
			"kind", r.Kind.String(),
			"label", r.Kind.Label(),
			"cycle_day", r.CycleDay,
		)
	}
}

// Start schedules job on spec (standard 5-field cron or a descriptor such
// as "@daily") and stops it when ctx is canceled.
func Start(ctx context.Context, spec string, job *Job) (*cron.Cron, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithLocation(job.loc))
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, fmt.Errorf("reminder: invalid cron spec %q: %w", spec, err)
	}
	c.Start()
	appLog.Info("reminder job scheduled", "cron", spec, "timezone", job.loc.String())

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Info("reminder job stopped")
	}()
	return c, nil
}
