package directory

import (
	"io"
	"testing"

	appLog "cyclecal/internal/log"
)

func init() {
	appLog.SetOutput(io.Discard)
}

func TestLookupNormalizesName(t *testing.T) {
	t.Parallel()
	d := New(map[string]int{
		"Ada Lovelace": 31,
		"  Grace  ":    37,
		"Nobody":       0,
		"":             29,
	})

	tests := []struct {
		name   string
		want   int
		wantOK bool
	}{
		{name: "Ada Lovelace", want: 31, wantOK: true},
		{name: "  ada   LOVELACE ", want: 31, wantOK: true},
		{name: "grace", want: 37, wantOK: true},
		{name: "Nobody", wantOK: false},
		{name: "", wantOK: false},
		{name: "Charles", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := d.Lookup(tt.name)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Lookup(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}
}

func TestNewCopiesEntries(t *testing.T) {
	t.Parallel()
	src := map[string]int{"Ada": 31}
	d := New(src)
	src["Ada"] = 20

	if got, _ := d.Lookup("ada"); got != 31 {
		t.Fatalf("Lookup after source mutation = %d, want 31", got)
	}
}

func TestLiveSwap(t *testing.T) {
	t.Parallel()
	l := NewLive(New(map[string]int{"Ada": 31}))
	before := l.Load()

	l.Store(New(map[string]int{"Ada": 33}))
	if got, _ := l.Lookup("ada"); got != 33 {
		t.Fatalf("Lookup after swap = %d, want 33", got)
	}
	if got, _ := before.Lookup("ada"); got != 31 {
		t.Fatalf("old snapshot changed: %d", got)
	}

	l.Store(nil)
	if _, ok := l.Lookup("ada"); ok {
		t.Fatal("expected empty directory after storing nil")
	}
}

func TestNilDirectory(t *testing.T) {
	t.Parallel()
	var d *Directory
	if _, ok := d.Lookup("x"); ok {
		t.Fatal("nil directory should not match")
	}
}

func TestNewResolvesCollisionsDeterministically(t *testing.T) {
	t.Parallel()
	entries := map[string]int{
		"jane  doe": 25,
		"Jane Doe":  31,
		"JANE DOE ": 40,
	}
	// Map order is random; repeat to catch an order-dependent winner.
	for i := 0; i < 50; i++ {
		d := New(entries)
		if d.Len() != 1 {
			t.Fatalf("Len() = %d, want 1", d.Len())
		}
		// "JANE DOE " sorts first.
		if got, _ := d.Lookup("jane doe"); got != 40 {
			t.Fatalf("iteration %d: Lookup() = %d, want 40", i, got)
		}
	}
}
