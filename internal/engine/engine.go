// Package engine owns the filter/sort state of the dashboard and derives the
// working view every visualization reads.
//
// The canonical record set is committed once per load and is immutable;
// only the selection and order exposed through View change. Every mutator
// updates its criterion, rebuilds the view from scratch inside one critical
// section, and then fires the single-slot notifier exactly once, so a
// mutation is never observed half-applied. The listener runs after the
// rebuild has committed and may safely read the engine.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nightsift/sighting-data-service/internal/domain"
	"github.com/nightsift/sighting-data-service/internal/observability"
)

// Engine is the single owner of the canonical record set and the filter
// criteria. Construct one per process and hand it to every consumer; there
// are no package-level singletons.
type Engine struct {
	logger  *slog.Logger
	metrics *observability.Metrics

	notifier Notifier

	mu         sync.Mutex
	canonical  []domain.Sighting
	view       []domain.Sighting
	criteria   Criteria
	activeView ViewKind
	loaded     bool
}

// New creates an Engine with default criteria and an empty canonical set.
func New(logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		logger:     logger,
		metrics:    metrics,
		criteria:   defaultCriteria(),
		activeView: ViewGrid,
	}
}

// OnViewChanged registers the refresh callback of the active visualization,
// replacing whatever was registered before.
func (e *Engine) OnViewChanged(fn func()) {
	e.notifier.SetListener(fn)
}

// CheckReadiness returns nil once a dataset has been committed, or an error
// describing why the service is not yet ready.
func (e *Engine) CheckReadiness(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return errors.New("no dataset loaded yet")
	}
	return nil
}

// SetDataset commits a canonical record set, replacing any previous one, and
// recomputes the working view. The engine takes ownership of the slice; the
// loader must not retain it. Concurrent loads serialize here, the later
// commit wins whole.
func (e *Engine) SetDataset(records []domain.Sighting) {
	e.mu.Lock()
	e.canonical = records
	e.loaded = true
	e.metrics.DatasetSize.Set(float64(len(records)))
	e.rebuildLocked()
	e.mu.Unlock()

	e.fireViewChanged()
}

// Recompute rebuilds the working view from unchanged criteria and notifies.
// Rebuilding is idempotent: the same criteria over the same canonical set
// always produce the same records in the same order.
func (e *Engine) Recompute() {
	e.mu.Lock()
	e.rebuildLocked()
	e.mu.Unlock()

	e.fireViewChanged()
}

// ToggleCountry flips membership of a country code in the accepted set.
// An empty set accepts all countries.
func (e *Engine) ToggleCountry(code string) {
	e.mu.Lock()
	if e.criteria.Countries[code] {
		delete(e.criteria.Countries, code)
	} else {
		e.criteria.Countries[code] = true
	}
	e.rebuildLocked()
	e.mu.Unlock()

	e.fireViewChanged()
}

// ToggleShape flips membership of a shape category in the accepted set.
func (e *Engine) ToggleShape(shape string) {
	e.mu.Lock()
	if e.criteria.Shapes[shape] {
		delete(e.criteria.Shapes, shape)
	} else {
		e.criteria.Shapes[shape] = true
	}
	e.rebuildLocked()
	e.mu.Unlock()

	e.fireViewChanged()
}

// SetDurationBucketFilter restricts the view to one duration bucket, or
// "all" to disable the restriction.
func (e *Engine) SetDurationBucketFilter(value string) error {
	if value != BucketFilterAll && !domain.ValidBucket(value) {
		return errors.New("duration bucket must be short, medium, long or all")
	}

	e.mu.Lock()
	e.criteria.DurationBucket = value
	e.rebuildLocked()
	e.mu.Unlock()

	e.fireViewChanged()
	return nil
}

// SetYearRange sets the inclusive bounds on the sighting year. Inverted or
// degenerate pairs are clamped, never rejected: range controls produce valid
// values by construction and the clamp is a backstop, not a user-facing error.
func (e *Engine) SetYearRange(reqMin, reqMax int) {
	e.mu.Lock()
	e.criteria.YearMin, e.criteria.YearMax = clampRange(reqMin, reqMax)
	e.rebuildLocked()
	e.mu.Unlock()

	e.fireViewChanged()
}

// SetDurationMinutesRange sets the inclusive bounds on duration in minutes,
// with the same clamping as SetYearRange.
func (e *Engine) SetDurationMinutesRange(reqMin, reqMax int) {
	e.mu.Lock()
	e.criteria.DurMinutesMin, e.criteria.DurMinutesMax = clampRange(reqMin, reqMax)
	e.rebuildLocked()
	e.mu.Unlock()

	e.fireViewChanged()
}

// SetSortMode selects the working view ordering.
func (e *Engine) SetSortMode(mode SortMode) {
	e.mu.Lock()
	e.criteria.Sort = mode
	e.rebuildLocked()
	e.mu.Unlock()

	e.fireViewChanged()
}

// SetActiveView records which visualization is active. Leaving the grid view
// clears the duration-bucket filter: no other view can show or clear it, and
// it must not silently keep suppressing data there.
func (e *Engine) SetActiveView(v ViewKind) {
	e.mu.Lock()
	e.activeView = v
	if v != ViewGrid && e.criteria.DurationBucket != BucketFilterAll {
		e.criteria.DurationBucket = BucketFilterAll
	}
	e.rebuildLocked()
	e.mu.Unlock()

	e.fireViewChanged()
}

// View returns a copy of the current working view in its sorted order.
// Callers may not mutate pipeline state through it.
func (e *Engine) View() []domain.Sighting {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Sighting, len(e.view))
	copy(out, e.view)
	return out
}

// TotalCount returns the size of the canonical set, filters ignored.
func (e *Engine) TotalCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.canonical)
}

// SortMode returns the active sort mode.
func (e *Engine) SortMode() SortMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.criteria.Sort
}

// ActiveView returns the active visualization.
func (e *Engine) ActiveView() ViewKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeView
}

// Criteria returns a read-only snapshot of the current filter state.
func (e *Engine) Criteria() CriteriaSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.criteria.snapshot()
}

// BucketCounts returns how many records of the canonical set fall in each
// duration bucket, filters ignored, for summary displays.
func (e *Engine) BucketCounts() map[domain.DurationBucket]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	counts := make(map[domain.DurationBucket]int, 3)
	for _, s := range e.canonical {
		counts[s.DurationBucket]++
	}
	return counts
}

// rebuildLocked recreates the working view from the canonical set.
// Callers must hold e.mu and fire the notifier after releasing it.
func (e *Engine) rebuildLocked() {
	start := time.Now()

	view := make([]domain.Sighting, 0, len(e.canonical))
	for _, s := range e.canonical {
		if e.criteria.matches(s) {
			view = append(view, s)
		}
	}
	sortView(view, e.criteria.Sort)
	e.view = view

	e.metrics.WorkingViewSize.Set(float64(len(view)))
	e.metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	e.logger.Debug("working view rebuilt",
		"shown", len(view),
		"total", len(e.canonical),
		"sort", e.criteria.Sort,
	)
}

func (e *Engine) fireViewChanged() {
	e.metrics.ViewNotifications.Inc()
	e.notifier.Notify()
}

// sortView orders the view per mode. Stable: records with equal keys keep
// their relative order from the canonical set. Zero times sort as the
// earliest possible value; comparison never panics.
func sortView(view []domain.Sighting, mode SortMode) {
	var less func(a, b domain.Sighting) bool
	switch mode {
	case SortNewest:
		less = func(a, b domain.Sighting) bool { return a.OccurredAt.After(b.OccurredAt) }
	case SortOldest:
		less = func(a, b domain.Sighting) bool { return a.OccurredAt.Before(b.OccurredAt) }
	case SortDurationHigh:
		less = func(a, b domain.Sighting) bool { return a.DurationSeconds > b.DurationSeconds }
	case SortDurationLow:
		less = func(a, b domain.Sighting) bool { return a.DurationSeconds < b.DurationSeconds }
	case SortCountryAZ:
		less = func(a, b domain.Sighting) bool { return a.CountryCode < b.CountryCode }
	case SortShapeAZ:
		less = func(a, b domain.Sighting) bool { return a.ShapeCategory < b.ShapeCategory }
	default:
		return
	}

	sort.SliceStable(view, func(i, j int) bool { return less(view[i], view[j]) })
}
