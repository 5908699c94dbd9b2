// Package engine is the library boundary the dashboard talks to: it holds the
// current snapshot and filter criteria, and serves every derived view from
// the filtered snapshot. Both inputs are replaced wholesale, never mutated in
// place, so readers always observe a complete old or new value.
//
// The filtered snapshot is memoized per (snapshot, criteria) pair as a
// performance measure only: recomputing from scratch yields identical
// results, since filtering and every aggregate are pure.
package engine

import (
	"sync"
	"time"

	"eventpulse/internal/dataset"
	"eventpulse/internal/filter"
	"eventpulse/internal/metrics"
	"eventpulse/internal/relations"
	"eventpulse/internal/survey"
)

// Engine serves filtered tables and derived metrics for one snapshot.
type Engine struct {
	mu        sync.RWMutex
	snapshot  *dataset.Snapshot
	criteria  filter.Criteria
	filtered  *dataset.Snapshot // memoized Apply result, nil when stale
	surveyCfg survey.Config
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithSurveyConfig overrides the default survey scoring configuration.
func WithSurveyConfig(cfg survey.Config) Option {
	return func(e *Engine) { e.surveyCfg = cfg }
}

// WithClock overrides the reference clock. Age classification and nothing
// else depends on it; tests pin it to a fixed instant.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an engine over an empty snapshot.
func New(opts ...Option) *Engine {
	e := &Engine{
		snapshot:  &dataset.Snapshot{Tables: map[string]*dataset.Table{}},
		surveyCfg: survey.DefaultConfig(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load replaces the snapshot. A nil snapshot loads as empty. Active filter
// criteria survive the reload.
func (e *Engine) Load(snap *dataset.Snapshot) {
	if snap == nil {
		snap = &dataset.Snapshot{Tables: map[string]*dataset.Table{}}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshot = snap
	e.filtered = nil
}

// UpdateFilters replaces the active criteria.
func (e *Engine) UpdateFilters(c filter.Criteria) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.criteria = c
	e.filtered = nil
}

// ClearFilters resets the criteria to unconstrained.
func (e *Engine) ClearFilters() {
	e.UpdateFilters(filter.Criteria{})
}

// Criteria returns the active filter criteria.
func (e *Engine) Criteria() filter.Criteria {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.criteria
}

// Snapshot returns the current unfiltered snapshot. Treat it as read-only.
func (e *Engine) Snapshot() *dataset.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Filtered returns the snapshot narrowed by the active criteria. Treat it as
// read-only; it is shared between calls until the inputs change.
func (e *Engine) Filtered() *dataset.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filteredLocked()
}

func (e *Engine) filteredLocked() *dataset.Snapshot {
	if e.filtered == nil {
		e.filtered = filter.Apply(e.snapshot, e.criteria, e.now())
	}
	return e.filtered
}

// Summary computes the headline metrics over the filtered snapshot.
func (e *Engine) Summary() metrics.Summary {
	return metrics.Summarize(e.Filtered())
}

// CheckinsByActivation serves the per-activation chart.
func (e *Engine) CheckinsByActivation() []metrics.ActivationCheckins {
	return metrics.CheckinsByActivation(e.Filtered())
}

// CheckinsByDay serves the daily chart.
func (e *Engine) CheckinsByDay() []metrics.DayCheckins {
	return metrics.CheckinsByDay(e.Filtered())
}

// CheckinsByActivationByDay serves the activation/day matrix.
func (e *Engine) CheckinsByActivationByDay() metrics.ActivationDayMatrix {
	return metrics.CheckinsByActivationByDay(e.Filtered())
}

// PeakHours serves the hourly histogram, optionally for one day.
func (e *Engine) PeakHours(day string) metrics.PeakHours {
	return metrics.PeakHoursByDay(e.Filtered(), day)
}

// RedemptionsByGift serves the per-gift chart.
func (e *Engine) RedemptionsByGift() []metrics.GiftRedemptions {
	return metrics.RedemptionsByGift(e.Filtered())
}

// Funnel serves the engagement funnel.
func (e *Engine) Funnel() []metrics.FunnelStage {
	return metrics.Funnel(e.Filtered())
}

// AgeDistribution serves the age chart over checked-in users.
func (e *Engine) AgeDistribution() []metrics.BracketShare {
	return metrics.AgeDistribution(e.Filtered(), e.now())
}

// AccountDistribution serves the account-ownership split.
func (e *Engine) AccountDistribution() metrics.AccountSplit {
	return metrics.AccountDistribution(e.Filtered())
}

// FilterStats compares the unfiltered check-in count against the filtered
// one under the active criteria.
func (e *Engine) FilterStats() metrics.FilterStats {
	e.mu.Lock()
	snap := e.snapshot
	criteria := e.criteria
	filtered := e.filteredLocked()
	e.mu.Unlock()
	return metrics.CompareFilterStats(snap, filtered, !criteria.IsZero())
}

// SurveyAnalysis scores the filtered surveys.
func (e *Engine) SurveyAnalysis() *survey.Analysis {
	return survey.Analyze(e.Filtered(), e.surveyCfg, e.now())
}

// UniqueValues lists the distinct values of a field over the unfiltered
// snapshot, for filter pickers.
func (e *Engine) UniqueValues(table, field string) []string {
	return e.Snapshot().UniqueValues(table, field)
}

// UserProfile assembles one user's engagement profile from the filtered
// snapshot.
func (e *Engine) UserProfile(userID int64) (relations.UserProfile, bool) {
	return relations.Profile(e.Filtered(), userID, e.now())
}

// ActivationStats assembles one activation's stats from the filtered
// snapshot.
func (e *Engine) ActivationStats(activationID int64) (relations.ActivationStats, bool) {
	return relations.StatsForActivation(e.Filtered(), activationID)
}
