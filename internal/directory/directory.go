// Package directory looks up a known person's usual cycle length so the
// input form can be pre-filled.
package directory

import (
	"sort"
	"strings"
	"sync/atomic"

	appLog "cyclecal/internal/log"
)

// Directory is an immutable name -> cycle length table.
type Directory struct {
	entries map[string]int
}

// New copies entries into a directory keyed by normalized name. Entries
// with a non-positive cycle length are dropped. When several names
// normalize to the same key, the first name in sorted order wins.
func New(entries map[string]int) *Directory {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	d := &Directory{entries: make(map[string]int, len(entries))}
	owner := make(map[string]string, len(entries))
	for _, name := range names {
		cl := entries[name]
		key := Normalize(name)
		if key == "" || cl <= 0 {
			continue
		}
		if prev, dup := owner[key]; dup {
			appLog.Warn("directory: duplicate name ignored", "name", name, "kept", prev)
			continue
		}
		owner[key] = name
		d.entries[key] = cl
	}
	return d
}

// Lookup returns the default cycle length for name, if known.
func (d *Directory) Lookup(name string) (int, bool) {
	if d == nil {
		return 0, false
	}
	cl, ok := d.entries[Normalize(name)]
	return cl, ok
}

// Len reports the number of entries.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Normalize trims, collapses inner whitespace and case folds name.
func Normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Live holds the current directory and lets a config reload swap it while
// readers keep using the snapshot they loaded.
type Live struct {
	p atomic.Pointer[Directory]
}

func NewLive(d *Directory) *Live {
	l := &Live{}
	l.Store(d)
	return l
}

func (l *Live) Load() *Directory {
	return l.p.Load()
}

func (l *Live) Store(d *Directory) {
	if d == nil {
		d = New(nil)
	}
	l.p.Store(d)
}

// Lookup delegates to the current snapshot.
func (l *Live) Lookup(name string) (int, bool) {
	return l.Load().Lookup(name)
}
