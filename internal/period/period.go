// Package period translates a named or explicit period into a concrete
// window and filters commit records to it.
package period

import (
	"time"

	"github.com/rohankatakam/devpulse/internal/aggregate"
	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/models"
)

// Named periods
const (
	All            = "all"
	Last7Days      = "last_7_days"
	Last30Days     = "last_30_days"
	Last90Days     = "last_90_days"
	Last6Months    = "last_6_months"
	LastYear       = "last_year"
	CurrentMonth   = "current_month"
	CurrentQuarter = "current_quarter"
)

var rollingDays = map[string]int{
	Last7Days:   7,
	Last30Days:  30,
	Last90Days:  90,
	Last6Months: 180,
	LastYear:    365,
}

// Names returns every supported period name in display order
func Names() []string {
	return []string{Last7Days, Last30Days, Last90Days, Last6Months, LastYear, CurrentMonth, CurrentQuarter, All}
}

// Spec is either a named period or an explicit [From, To] range
type Spec struct {
	Name string
	From time.Time
	To   time.Time
}

// Named returns a spec for a named period
func Named(name string) Spec {
	return Spec{Name: name}
}

// Between returns a spec for an explicit, inclusive range
func Between(from, to time.Time) Spec {
	return Spec{From: from, To: to}
}

// IsExplicit reports whether s carries an explicit range
func (s Spec) IsExplicit() bool {
	return s.Name == "" && !(s.From.IsZero() && s.To.IsZero())
}

// String renders the spec for logs and report headers
func (s Spec) String() string {
	if s.IsExplicit() {
		return s.From.Format(time.RFC3339) + ".." + s.To.Format(time.RFC3339)
	}
	if s.Name == "" {
		return All
	}
	return s.Name
}

// Validate checks the spec without needing any data
func (s Spec) Validate() error {
	if s.IsExplicit() {
		if s.From.IsZero() || s.To.IsZero() {
			return errors.ConfigError("period: explicit range needs both from and to")
		}
		if s.To.Before(s.From) {
			return errors.ConfigErrorf("period: range end %s is before start %s",
				s.To.Format(time.RFC3339), s.From.Format(time.RFC3339))
		}
		return nil
	}

	switch s.Name {
	case "", All, CurrentMonth, CurrentQuarter:
		return nil
	}
	if _, ok := rollingDays[s.Name]; ok {
		return nil
	}
	return errors.ConfigErrorf("period: unknown period %q", s.Name).
		WithContext("supported", Names())
}

// Window is a resolved, inclusive time range
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies inside the window, both bounds inclusive
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// IsZero reports whether the window was resolved from an empty input
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Resolve turns spec into a window. Named periods anchor on maxTS, the
// latest timestamp in the dataset, never on the wall clock. minTS is used
// for "all". Month and quarter starts are computed in loc.
func Resolve(spec Spec, minTS, maxTS time.Time, loc *time.Location) (Window, error) {
	if err := spec.Validate(); err != nil {
		return Window{}, err
	}
	if loc == nil {
		loc = time.UTC
	}

	if spec.IsExplicit() {
		return Window{Start: spec.From, End: spec.To}, nil
	}

	if days, ok := rollingDays[spec.Name]; ok {
		return Window{Start: maxTS.Add(-time.Duration(days) * 24 * time.Hour), End: maxTS}, nil
	}

	anchor := maxTS.In(loc)
	switch spec.Name {
	case CurrentMonth:
		start := aggregate.Date{Year: anchor.Year(), Month: anchor.Month(), Day: 1}.Start(loc)
		return Window{Start: start, End: maxTS}, nil
	case CurrentQuarter:
		quarterStart := time.Month((int(anchor.Month())-1)/3*3 + 1)
		start := aggregate.Date{Year: anchor.Year(), Month: quarterStart, Day: 1}.Start(loc)
		return Window{Start: start, End: maxTS}, nil
	default:
		return Window{Start: minTS, End: maxTS}, nil
	}
}

// Select filters commits to the window described by spec. An empty input
// yields an empty result and a zero window; an unknown period name is
// always an error, even for empty input.
func Select(commits []models.CommitRecord, spec Spec, loc *time.Location) ([]models.CommitRecord, Window, error) {
	if err := spec.Validate(); err != nil {
		return nil, Window{}, err
	}
	if len(commits) == 0 {
		return []models.CommitRecord{}, Window{}, nil
	}

	minTS, maxTS := Bounds(commits)
	window, err := Resolve(spec, minTS, maxTS, loc)
	if err != nil {
		return nil, Window{}, err
	}

	selected := make([]models.CommitRecord, 0, len(commits))
	for _, c := range commits {
		if window.Contains(c.Timestamp) {
			selected = append(selected, c)
		}
	}
	return selected, window, nil
}

// Bounds returns the earliest and latest commit timestamps
func Bounds(commits []models.CommitRecord) (minTS, maxTS time.Time) {
	for i, c := range commits {
		if i == 0 || c.Timestamp.Before(minTS) {
			minTS = c.Timestamp
		}
		if i == 0 || c.Timestamp.After(maxTS) {
			maxTS = c.Timestamp
		}
	}
	return minTS, maxTS
}

// Parse builds a spec from user input. from and to accept a date
// (2006-01-02, midnight and end of day in loc) or an RFC 3339 timestamp.
// A non-empty range wins over name.
func Parse(name, from, to string, loc *time.Location) (Spec, error) {
	if from == "" && to == "" {
		spec := Named(name)
		return spec, spec.Validate()
	}
	if loc == nil {
		loc = time.UTC
	}
	start, err := parseBound(from, loc, false)
	if err != nil {
		return Spec{}, err
	}
	end, err := parseBound(to, loc, true)
	if err != nil {
		return Spec{}, err
	}
	spec := Between(start, end)
	return spec, spec.Validate()
}

func parseBound(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.ConfigErrorf("period: cannot parse %q as a date or RFC 3339 timestamp", s)
	}
	d := aggregate.DateOf(parsed, time.UTC)
	if endOfDay {
		return d.AddDays(1).Start(loc).Add(-time.Nanosecond), nil
	}
	return d.Start(loc), nil
}
