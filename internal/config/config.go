package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"cyclecal/internal/schedule"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. All file access goes through an afero.Fs.

// BandConfig is one row of the marker-phase lookup table.
type BandConfig struct {
	MinCycle int `yaml:"min_cycle" json:"min_cycle"`
	MaxCycle int `yaml:"max_cycle" json:"max_cycle"`
	StartDay int `yaml:"start_day" json:"start_day"`
	Duration int `yaml:"duration" json:"duration"`
}

// PlacementConfig is a fallback marker window.
type PlacementConfig struct {
	StartDay int `yaml:"start_day" json:"start_day"`
	Duration int `yaml:"duration" json:"duration"`
}

// ScheduleConfig selects the marker-phase policy. The policy is fixed for
// the lifetime of the process.
type ScheduleConfig struct {
	// Policy is "lookup_table" (default) or "ovulation_estimate".
	Policy     string          `yaml:"policy" json:"policy"`
	Bands      []BandConfig    `yaml:"bands" json:"bands"`
	AboveTable PlacementConfig `yaml:"above_table" json:"above_table"`
	Default    PlacementConfig `yaml:"default" json:"default"`
	LutealDays int             `yaml:"luteal_days" json:"luteal_days"`
}

// CycleConfig bounds the cycle length accepted at the input surface.
type CycleConfig struct {
	DefaultLength int `yaml:"default_length" json:"default_length"`
	MinLength     int `yaml:"min_length" json:"min_length"`
	MaxLength     int `yaml:"max_length" json:"max_length"`
}

// ProfileConfig is a person whose current cycle is followed by the
// reminder job.
type ProfileConfig struct {
	Name        string `yaml:"name" json:"name"`
	CycleLength int    `yaml:"cycle_length,omitempty" json:"cycle_length,omitempty"`
	// StartDate is the first day of the current cycle, YYYY-MM-DD.
	StartDate string `yaml:"start_date" json:"start_date"`
}

// RemindersConfig drives the daily reminder log. An empty Cron disables it.
type RemindersConfig struct {
	Cron     string          `yaml:"cron" json:"cron"`
	Profiles []ProfileConfig `yaml:"profiles,omitempty" json:"profiles,omitempty"`
}

// RateLimitConfig limits /api/* requests. PerSecond <= 0 disables limiting.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second" json:"per_second"`
	Burst     int     `yaml:"burst" json:"burst"`
}

// CaptureConfig controls PNG capture of the calendar page.
type CaptureConfig struct {
	Width      int `yaml:"width" json:"width"`
	Height     int `yaml:"height" json:"height"`
	TimeoutSec int `yaml:"timeout_sec" json:"timeout_sec"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
// PasswordHash is an argon2id hash produced by `cyclecal hash-password`.
type BasicAuthConfig struct {
	Username     string `yaml:"username" json:"username"`
	PasswordHash string `yaml:"password_hash" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used to decide "today" (e.g. "Asia/Shanghai").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday is treated as the first day of the week
	// in calendar views. Supported values:
	//   - "monday" (default)
	//   - "sunday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`
	Cycle    CycleConfig    `yaml:"cycle" json:"cycle"`

	// Directory maps a person's name to their usual cycle length. It only
	// pre-fills the form.
	Directory map[string]int `yaml:"directory" json:"directory"`

	Reminders RemindersConfig `yaml:"reminders" json:"reminders"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Capture   CaptureConfig   `yaml:"capture" json:"capture"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{
		Listen:    "127.0.0.1:8080",
		Timezone:  "Asia/Shanghai",
		WeekStart: "monday",
		LogLevel:  "info",
		Schedule: ScheduleConfig{
			Policy:     schedule.PolicyLookupTable,
			Bands:      bandsFromSchedule(schedule.DefaultBands()),
			AboveTable: placementFromSchedule(schedule.DefaultAboveTable),
			Default:    placementFromSchedule(schedule.DefaultPlacement),
			LutealDays: schedule.DefaultLutealDays,
		},
		Cycle:     CycleConfig{DefaultLength: 28, MinLength: 20, MaxLength: 45},
		Directory: map[string]int{},
		RateLimit: RateLimitConfig{PerSecond: 10, Burst: 20},
		Capture:   CaptureConfig{Width: 984, Height: 1304, TimeoutSec: 30},
	}
	return c
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	// WeekStart default & validation.
	switch strings.ToLower(c.WeekStart) {
	case "monday", "sunday":
		c.WeekStart = strings.ToLower(c.WeekStart)
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = "monday"
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	switch c.Schedule.Policy {
	case schedule.PolicyLookupTable, schedule.PolicyOvulationEstimate:
	default:
		c.Schedule.Policy = schedule.PolicyLookupTable
	}
	if len(c.Schedule.Bands) == 0 {
		c.Schedule.Bands = def.Schedule.Bands
	}
	if c.Schedule.AboveTable.Duration <= 0 || c.Schedule.AboveTable.StartDay <= 0 {
		c.Schedule.AboveTable = def.Schedule.AboveTable
	}
	if c.Schedule.Default.Duration <= 0 || c.Schedule.Default.StartDay <= 0 {
		c.Schedule.Default = def.Schedule.Default
	}
	if c.Schedule.LutealDays <= 0 {
		c.Schedule.LutealDays = def.Schedule.LutealDays
	}

	if c.Cycle.MinLength <= 0 {
		c.Cycle.MinLength = def.Cycle.MinLength
	}
	if c.Cycle.MaxLength < c.Cycle.MinLength {
		c.Cycle.MaxLength = def.Cycle.MaxLength
		if c.Cycle.MaxLength < c.Cycle.MinLength {
			c.Cycle.MaxLength = c.Cycle.MinLength
		}
	}
	if c.Cycle.DefaultLength < c.Cycle.MinLength || c.Cycle.DefaultLength > c.Cycle.MaxLength {
		c.Cycle.DefaultLength = clamp(def.Cycle.DefaultLength, c.Cycle.MinLength, c.Cycle.MaxLength)
	}

	if c.Directory == nil {
		c.Directory = map[string]int{}
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = def.RateLimit.Burst
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = def.Capture.Width
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = def.Capture.Height
	}
	if c.Capture.TimeoutSec <= 0 {
		c.Capture.TimeoutSec = def.Capture.TimeoutSec
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ScheduleOptions converts the schedule section into engine options.
func (c *Config) ScheduleOptions() schedule.Options {
	bands := make([]schedule.Band, 0, len(c.Schedule.Bands))
	for _, b := range c.Schedule.Bands {
		bands = append(bands, schedule.Band{
			MinCycle: b.MinCycle,
			MaxCycle: b.MaxCycle,
			StartDay: b.StartDay,
			Duration: b.Duration,
		})
	}
	return schedule.Options{
		Policy:     c.Schedule.Policy,
		Bands:      bands,
		AboveTable: schedule.Placement{StartDay: c.Schedule.AboveTable.StartDay, Duration: c.Schedule.AboveTable.Duration},
		Default:    schedule.Placement{StartDay: c.Schedule.Default.StartDay, Duration: c.Schedule.Default.Duration},
		LutealDays: c.Schedule.LutealDays,
	}
}

func bandsFromSchedule(in []schedule.Band) []BandConfig {
	out := make([]BandConfig, 0, len(in))
	for _, b := range in {
		out = append(out, BandConfig{MinCycle: b.MinCycle, MaxCycle: b.MaxCycle, StartDay: b.StartDay, Duration: b.Duration})
	}
	return out
}

func placementFromSchedule(p schedule.Placement) PlacementConfig {
	return PlacementConfig{StartDay: p.StartDay, Duration: p.Duration}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(fsys afero.Fs, path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(fsys, path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(fsys afero.Fs, path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := afero.TempFile(fsys, dir, ".cyclecal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer fsys.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := fsys.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return fsys.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(fsys afero.Fs, path string) error {
	return Save(fsys, path, c)
}
