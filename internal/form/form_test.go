package form

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"

	"cyclecal/internal/config"
	"cyclecal/internal/directory"
)

func testValidator() Validator {
	loc := time.FixedZone("UTC+8", 8*3600)
	return Validator{
		Cycle:     config.CycleConfig{DefaultLength: 28, MinLength: 20, MaxLength: 45},
		Directory: directory.New(map[string]int{"Jane Doe": 31, "Far Out": 60}),
		Location:  loc,
		// 2024-03-09 23:30 UTC is already 2024-03-10 in UTC+8.
		Now: func() time.Time { return time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC) },
	}
}

func TestParse(t *testing.T) {
	v := testValidator()

	tests := []struct {
		name string
		in   Values
		want Request
	}{
		{
			name: "explicit values",
			in:   Values{Name: "Ada", CycleLength: "30", StartDate: "2024-01-01"},
			want: Request{Name: "Ada", CycleLength: 30, Start: civil.Date{Year: 2024, Month: time.January, Day: 1}},
		},
		{
			name: "unknown name uses default and today",
			in:   Values{Name: "  Ada   Lovelace "},
			want: Request{Name: "Ada Lovelace", CycleLength: 28, Start: civil.Date{Year: 2024, Month: time.March, Day: 10}},
		},
		{
			name: "directory pre-fill",
			in:   Values{Name: "jane  DOE", StartDate: "2024-02-01"},
			want: Request{Name: "jane DOE", CycleLength: 31, Start: civil.Date{Year: 2024, Month: time.February, Day: 1}, Prefilled: true},
		},
		{
			name: "explicit value beats directory",
			in:   Values{Name: "Jane Doe", CycleLength: "26", StartDate: "2024-02-01"},
			want: Request{Name: "Jane Doe", CycleLength: 26, Start: civil.Date{Year: 2024, Month: time.February, Day: 1}},
		},
		{
			name: "out of bounds directory entry ignored",
			in:   Values{Name: "Far Out", StartDate: "2024-02-01"},
			want: Request{Name: "Far Out", CycleLength: 28, Start: civil.Date{Year: 2024, Month: time.February, Day: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	v := testValidator()

	tests := []struct {
		name     string
		in       Values
		nameOnly bool
	}{
		{name: "blank name", in: Values{Name: "   ", CycleLength: "28"}, nameOnly: true},
		{name: "non-integer cycle", in: Values{Name: "Ada", CycleLength: "28.5"}},
		{name: "cycle below bounds", in: Values{Name: "Ada", CycleLength: "19"}},
		{name: "cycle above bounds", in: Values{Name: "Ada", CycleLength: "46"}},
		{name: "zero cycle", in: Values{Name: "Ada", CycleLength: "0"}},
		{name: "bad date", in: Values{Name: "Ada", StartDate: "01/02/2024"}},
		{name: "impossible date", in: Values{Name: "Ada", StartDate: "2024-02-30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Parse(tt.in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Parse() error = %v, want ErrInvalidInput", err)
			}
			if got := errors.Is(err, ErrNameRequired); got != tt.nameOnly {
				t.Errorf("errors.Is(err, ErrNameRequired) = %v, want %v", got, tt.nameOnly)
			}
		})
	}
}

func TestDefaultCycle(t *testing.T) {
	v := testValidator()

	if cl, ok := v.DefaultCycle("JANE DOE"); !ok || cl != 31 {
		t.Errorf("DefaultCycle(JANE DOE) = %d, %v, want 31, true", cl, ok)
	}
	if cl, ok := v.DefaultCycle(""); ok || cl != 28 {
		t.Errorf("DefaultCycle(\"\") = %d, %v, want 28, false", cl, ok)
	}
}
