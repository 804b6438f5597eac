package commands

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"cyclecal/internal/config"
	"cyclecal/internal/form"
	appLog "cyclecal/internal/log"
	"cyclecal/internal/schedule"
	"cyclecal/internal/web"
)

const testConfigPath = "/etc/cyclecal/config.yaml"

func init() {
	appLog.SetOutput(io.Discard)
}

type testEnv struct {
	Env
	out *bytes.Buffer
	err *bytes.Buffer
}

func newTestEnv(stdin string) testEnv {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return testEnv{
		Env: Env{
			Fs:     afero.NewMemMapFs(),
			Stdin:  strings.NewReader(stdin),
			Stdout: out,
			Stderr: errOut,
		},
		out: out,
		err: errOut,
	}
}

func (e testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	full := append([]string{"cyclecal", "--config", testConfigPath}, args...)
	return NewApp(e.Env, "test").Run(full)
}

func (e testEnv) writeConfig(t *testing.T, mutate func(*config.Config)) {
	t.Helper()
	cfg := config.DefaultConfig()
	mutate(cfg)
	if err := config.Save(e.Fs, testConfigPath, cfg); err != nil {
		t.Fatalf("config.Save() error: %v", err)
	}
}

func TestPrint(t *testing.T) {
	env := newTestEnv("")
	if err := env.run(t, "print", "--name", "Ada", "--cycle", "28", "--start", "2024-01-01"); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	out := env.out.String()

	for _, want := range []string{
		"Hormone testing schedule for Ada",
		"Cycle length 28 days, cycle day 1 on 2024-01-01",
		"January 2024",
		"  Mon  Tue",
		"  2B",
		"  9L",
		" 16L",
		"- Baseline FSH+LH: start on Jan 02 (cycle day 2), test morning urine for 3 days.",
		"- LH ovulation tracking: start around Jan 09 (cycle day 9)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("print output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("non-terminal output must not contain ANSI codes")
	}
	if strings.Contains(out, " 17L") {
		t.Error("marker window for 28 days ends on day 16")
	}

	if ok, _ := afero.Exists(env.Fs, testConfigPath); !ok {
		t.Error("first run should create the default config")
	}
}

func TestPrintColorAndWeekStart(t *testing.T) {
	env := newTestEnv("")
	err := env.run(t, "print", "--name", "Ada", "--cycle", "28", "--start", "2024-01-01",
		"--color", "always", "--week-start", "sunday")
	if err != nil {
		t.Fatalf("print failed: %v", err)
	}
	out := env.out.String()
	if !strings.Contains(out, "\x1b[1;34m  2B"+ansiReset) {
		t.Error("baseline day should be painted blue")
	}
	if !strings.Contains(out, "  Sun  Mon") {
		t.Error("Expected Sunday-first header")
	}
}

func TestPrintRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"missing name", []string{"print", "--cycle", "28"}, form.ErrNameRequired},
		{"cycle too long", []string{"print", "--name", "Ada", "--cycle", "90"}, form.ErrInvalidInput},
		{"bad start", []string{"print", "--name", "Ada", "--start", "tomorrow"}, form.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv("")
			err := env.run(t, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if env.out.Len() != 0 {
				t.Error("nothing should be printed on invalid input")
			}
		})
	}
}

func TestPrintUsesConfig(t *testing.T) {
	env := newTestEnv("")
	env.writeConfig(t, func(c *config.Config) {
		c.Directory = map[string]int{"Jane Doe": 31}
		c.Schedule.Policy = schedule.PolicyOvulationEstimate
	})

	if err := env.run(t, "print", "--name", "jane doe", "--start", "2024-01-01"); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	out := env.out.String()
	if !strings.Contains(out, "Cycle length 31 days") {
		t.Errorf("Expected directory pre-fill of 31 days\n%s", out)
	}
	// 31 - 14 = 17, dense window 15-19, lookouts on days 9 and 11.
	for _, want := range []string{"  9L", " 11L", " 15L", " 19L"} {
		if !strings.Contains(out, want) {
			t.Errorf("print output missing %q", want)
		}
	}
	if strings.Contains(out, " 10L") {
		t.Error("day 10 is between lookouts and must not be marked")
	}
}

func TestExportThenPrintICS(t *testing.T) {
	env := newTestEnv("")
	if err := env.run(t, "export", "--name", "Ada", "--cycle", "35", "--start", "2024-01-25", "-o", "/ada.ics"); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	data, err := afero.ReadFile(env.Fs, "/ada.ics")
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("BEGIN:VCALENDAR")) {
		t.Fatalf("export is not an iCalendar file:\n%s", data)
	}
	if !strings.Contains(env.err.String(), "wrote 13 test days to /ada.ics") {
		t.Errorf("stderr = %q", env.err.String())
	}

	env.out.Reset()
	if err := env.run(t, "print", "--ics", "/ada.ics"); err != nil {
		t.Fatalf("print --ics failed: %v", err)
	}
	out := env.out.String()
	for _, want := range []string{"January 2024", "February 2024", " 26B", "  5L", " 14L", "Cycle length 35 days"} {
		if !strings.Contains(out, want) {
			t.Errorf("print --ics output missing %q\n%s", want, out)
		}
	}
}

func TestExportStdout(t *testing.T) {
	env := newTestEnv("")
	if err := env.run(t, "export", "--name", "Ada", "--start", "2024-01-01", "--reminder"); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	out := env.out.String()
	if !strings.HasPrefix(out, "BEGIN:VCALENDAR") {
		t.Fatalf("stdout is not an iCalendar file")
	}
	if strings.Count(out, "BEGIN:VALARM") != strings.Count(out, "BEGIN:VEVENT") {
		t.Error("every event should carry an alarm with --reminder")
	}
}

func TestHashPassword(t *testing.T) {
	env := newTestEnv("s3cret\ns3cret\n")
	if err := env.run(t, "hash-password", "--username", "ops"); err != nil {
		t.Fatalf("hash-password failed: %v", err)
	}

	var got struct {
		BasicAuth config.BasicAuthConfig `yaml:"basic_auth"`
	}
	if err := yaml.Unmarshal(env.out.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, env.out.String())
	}
	if got.BasicAuth.Username != "ops" {
		t.Errorf("username = %q, want ops", got.BasicAuth.Username)
	}
	ok, err := web.VerifyPassword("s3cret", got.BasicAuth.PasswordHash)
	if err != nil || !ok {
		t.Errorf("VerifyPassword() = %v, %v; want true", ok, err)
	}
}

func TestHashPasswordMismatch(t *testing.T) {
	env := newTestEnv("one\ntwo\n")
	if err := env.run(t, "hash-password"); err == nil {
		t.Fatal("Expected error for mismatched passwords")
	}
	if env.out.Len() != 0 {
		t.Error("no hash should be printed")
	}
}
