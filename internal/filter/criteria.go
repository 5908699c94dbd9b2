package filter

import (
	"time"

	"eventpulse/internal/agegroup"
)

// Criteria is the immutable filter record the dashboard builds from the
// filter bar. Nil / empty fields mean "no constraint on this axis"; populated
// axes combine with AND, values inside Brackets combine with OR.
type Criteria struct {
	// HasAccount keeps only users whose account flag equals the value.
	HasAccount *bool

	// Brackets keeps only users classified into one of the given brackets.
	Brackets []agegroup.Bracket

	// From / To bound created_at of check-ins, redemptions and surveys to
	// the inclusive window [From 00:00:00, To 23:59:59] (UTC days). An
	// absent bound is unbounded on that side.
	From *time.Time
	To   *time.Time

	// ActivationID restricts check-ins to a single activation; zero means
	// no restriction.
	ActivationID int64
}

// IsZero reports whether no axis is constrained.
func (c Criteria) IsZero() bool {
	return c.HasAccount == nil &&
		len(c.Brackets) == 0 &&
		c.From == nil &&
		c.To == nil &&
		c.ActivationID == 0
}

// hasUserConstraint reports whether step 1 of the filter pass will produce an
// eligibility set.
func (c Criteria) hasUserConstraint() bool {
	return c.HasAccount != nil || len(c.Brackets) > 0
}

// hasDateConstraint reports whether the date window is active.
func (c Criteria) hasDateConstraint() bool {
	return c.From != nil || c.To != nil
}

// windowStart returns the inclusive lower bound of the date window.
func (c Criteria) windowStart() (time.Time, bool) {
	if c.From == nil {
		return time.Time{}, false
	}
	f := c.From.UTC()
	return time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC), true
}

// windowEnd returns the inclusive upper bound of the date window.
func (c Criteria) windowEnd() (time.Time, bool) {
	if c.To == nil {
		return time.Time{}, false
	}
	t := c.To.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC), true
}

// inWindow reports whether an instant falls inside the (possibly half-open)
// date window.
func (c Criteria) inWindow(t time.Time) bool {
	if start, ok := c.windowStart(); ok && t.Before(start) {
		return false
	}
	if end, ok := c.windowEnd(); ok && t.After(end) {
		return false
	}
	return true
}
