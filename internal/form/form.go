// Package form validates the raw name / cycle length / start date inputs
// shared by the HTML form, the JSON API and the CLI.
package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"cyclecal/internal/config"
)

var (
	// ErrInvalidInput wraps every validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNameRequired is returned when the name is blank.
	ErrNameRequired = fmt.Errorf("%w: name is required", ErrInvalidInput)
)

// Lookuper resolves a person's usual cycle length.
type Lookuper interface {
	Lookup(name string) (int, bool)
}

// Values are the inputs as typed by the user.
type Values struct {
	Name        string
	CycleLength string
	StartDate   string
}

// Request is a validated schedule request.
type Request struct {
	Name        string
	CycleLength int
	Start       civil.Date

	// Prefilled is set when CycleLength came from the directory.
	Prefilled bool
}

// Validator holds everything needed to fill in and check Values.
type Validator struct {
	Cycle     config.CycleConfig
	Directory Lookuper
	Location  *time.Location
	Now       func() time.Time
}

// Today is the current date in the validator's location.
func (v Validator) Today() civil.Date {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	loc := v.Location
	if loc == nil {
		loc = time.Local
	}
	return civil.DateOf(now().In(loc))
}

// DefaultCycle returns the pre-fill for name: the directory entry when it
// is known and within bounds, the configured default otherwise.
func (v Validator) DefaultCycle(name string) (int, bool) {
	if v.Directory != nil && strings.TrimSpace(name) != "" {
		if cl, ok := v.Directory.Lookup(name); ok && v.inBounds(cl) {
			return cl, true
		}
	}
	return v.Cycle.DefaultLength, false
}

// Parse validates in. A blank cycle length is pre-filled and a blank start
// date means today. Explicit values always win over the directory.
func (v Validator) Parse(in Values) (Request, error) {
	var req Request

	req.Name = strings.Join(strings.Fields(in.Name), " ")
	if req.Name == "" {
		return Request{}, ErrNameRequired
	}

	raw := strings.TrimSpace(in.CycleLength)
	if raw == "" {
		req.CycleLength, req.Prefilled = v.DefaultCycle(req.Name)
	} else {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Request{}, fmt.Errorf("%w: cycle length %q is not a whole number", ErrInvalidInput, raw)
		}
		req.CycleLength = n
	}
	if !v.inBounds(req.CycleLength) {
		return Request{}, fmt.Errorf("%w: cycle length must be between %d and %d days",
			ErrInvalidInput, v.Cycle.MinLength, v.Cycle.MaxLength)
	}

	rawDate := strings.TrimSpace(in.StartDate)
	if rawDate == "" {
		req.Start = v.Today()
	} else {
		d, err := civil.ParseDate(rawDate)
		if err != nil {
			return Request{}, fmt.Errorf("%w: start date %q must be YYYY-MM-DD", ErrInvalidInput, rawDate)
		}
		req.Start = d
	}
	return req, nil
}

func (v Validator) inBounds(cl int) bool {
	return cl >= v.Cycle.MinLength && cl <= v.Cycle.MaxLength
}
