package capture

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/afero"

	"cyclecal/internal/config"
	"cyclecal/internal/form"
)

func TestCalendarURL(t *testing.T) {
	req := form.Request{Name: "Ada L", CycleLength: 29, Start: civil.Date{Year: 2024, Month: time.May, Day: 1}}

	got, err := CalendarURL("http://127.0.0.1:8080/", req)
	if err != nil {
		t.Fatalf("CalendarURL() error: %v", err)
	}
	want := "http://127.0.0.1:8080/calendar?cycle_length=29&name=Ada+L&start_date=2024-05-01"
	if got != want {
		t.Errorf("CalendarURL() = %q, want %q", got, want)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.CaptureConfig{Width: 800, Height: 600, TimeoutSec: 5}, "http://x/calendar")
	if opts.Width != 800 || opts.Height != 600 || opts.Timeout != 5*time.Second || opts.URL != "http://x/calendar" {
		t.Errorf("OptionsFromConfig() = %+v", opts)
	}
}

func TestCaptureRequiresURLAndPath(t *testing.T) {
	if _, err := CalendarPNG(context.Background(), Options{}); err == nil {
		t.Error("Expected error for empty URL")
	}
	if err := CalendarToFile(context.Background(), afero.NewMemMapFs(), Options{URL: "http://x"}, ""); err == nil {
		t.Error("Expected error for empty output path")
	}
}
