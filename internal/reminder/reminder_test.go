package reminder

import (
	"context"
	"io"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"

	"cyclecal/internal/config"
	"cyclecal/internal/directory"
	appLog "cyclecal/internal/log"
	"cyclecal/internal/model"
)

func init() {
	appLog.SetOutput(io.Discard)
}

func day(m time.Month, d int) civil.Date {
	return civil.Date{Year: 2024, Month: m, Day: d}
}

func testJob() *Job {
	cfg := config.DefaultConfig()
	cfg.Reminders.Profiles = []config.ProfileConfig{
		{Name: "Ada", CycleLength: 28, StartDate: "2024-01-01"},
		{Name: "Jane Doe", StartDate: "2024-01-01"},
		{Name: "Broken", StartDate: "yesterday"},
	}
	dir := directory.New(map[string]int{"jane doe": 21})
	return NewJob(cfg, nil, dir, time.UTC)
}

func TestCheck(t *testing.T) {
	j := testJob()

	tests := []struct {
		name  string
		today civil.Date
		want  []Reminder
	}{
		{
			name:  "baseline for both",
			today: day(time.January, 3),
			want: []Reminder{
				{Profile: "Ada", Date: day(time.January, 3), Kind: model.KindBaseline, CycleDay: 3},
				{Profile: "Jane Doe", Date: day(time.January, 3), Kind: model.KindBaseline, CycleDay: 3},
			},
		},
		{
			// Jane Doe's 21-day cycle starts markers on day 5.
			name:  "directory cycle length",
			today: day(time.January, 5),
			want: []Reminder{
				{Profile: "Jane Doe", Date: day(time.January, 5), Kind: model.KindMarker, CycleDay: 5},
			},
		},
		{
			name:  "nothing due",
			today: day(time.January, 1),
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, j.Check(tt.today)); diff != "" {
				t.Errorf("Check() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpdateReplacesProfiles(t *testing.T) {
	j := testJob()

	cfg := config.DefaultConfig()
	cfg.Reminders.Profiles = []config.ProfileConfig{{Name: "Eve", CycleLength: 30, StartDate: "2024-01-01"}}
	j.Update(cfg)

	got := j.Check(day(time.January, 2))
	if len(got) != 1 || got[0].Profile != "Eve" {
		t.Fatalf("Check() after Update = %v", got)
	}
}

func TestRunUsesLocation(t *testing.T) {
	j := testJob()
	j.loc = time.FixedZone("UTC+8", 8*3600)
	j.now = func() time.Time { return time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC) }
	// Must not panic; 2024-01-03 in UTC+8 has tests due.
	j.Run()
}

func TestStartRejectsBadCronExpr(t *testing.T) {
	if _, err := Start(context.Background(), "not a cron", testJob()); err == nil {
		t.Fatal("Expected error for invalid cron spec")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c, err := Start(ctx, "@daily", testJob())
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if len(c.Entries()) != 1 {
		t.Errorf("Expected 1 cron entry, got %d", len(c.Entries()))
	}
	cancel()
}

func TestReminderString(t *testing.T) {
	r := Reminder{Profile: "Ada", Date: day(time.January, 9), Kind: model.KindMarker, CycleDay: 9}
	if got, want := r.String(), "Ada: LH (ovulation) on 2024-01-09 (cycle day 9)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
