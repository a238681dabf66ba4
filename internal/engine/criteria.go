package engine

import (
	"fmt"
	"sort"

	"github.com/nightsift/sighting-data-service/internal/domain"
)

// SortMode selects the comparator applied to the working view.
type SortMode string

const (
	SortNewest       SortMode = "newest"
	SortOldest       SortMode = "oldest"
	SortDurationHigh SortMode = "durationHigh"
	SortDurationLow  SortMode = "durationLow"
	SortCountryAZ    SortMode = "countryAZ"
	SortShapeAZ      SortMode = "shapeAZ"
)

// ParseSortMode validates a sort mode supplied by a UI control.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case SortNewest, SortOldest, SortDurationHigh, SortDurationLow, SortCountryAZ, SortShapeAZ:
		return SortMode(s), nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// ViewKind identifies which visualization is active. The duration-bucket
// filter belongs to the grid view; every other view resets it on entry.
type ViewKind string

const (
	ViewGrid     ViewKind = "grid"
	ViewMap      ViewKind = "map"
	ViewTimeline ViewKind = "timeline"
	ViewHeatmap  ViewKind = "heatmap"
)

// ParseViewKind validates a view name supplied by the UI.
func ParseViewKind(s string) (ViewKind, error) {
	switch ViewKind(s) {
	case ViewGrid, ViewMap, ViewTimeline, ViewHeatmap:
		return ViewKind(s), nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// BucketFilterAll disables the duration-bucket filter.
const BucketFilterAll = "all"

// Criteria is the single mutable filter/sort state the engine owns. It is
// created once with defaults and mutated in place; it is never replaced
// wholesale.
type Criteria struct {
	Countries      map[string]bool // empty means accept all
	Shapes         map[string]bool // empty means accept all
	DurationBucket string          // "all" or one bucket value
	YearMin        int             // inclusive; invariant YearMin < YearMax
	YearMax        int
	DurMinutesMin  int // inclusive bounds on durationSeconds/60
	DurMinutesMax  int
	Sort           SortMode
}

// Criteria defaults: the full slider extents of the dashboard.
const (
	defaultYearMin       = 1940
	defaultYearMax       = 2015
	defaultDurMinutesMin = 0
	defaultDurMinutesMax = 120
)

func defaultCriteria() Criteria {
	return Criteria{
		Countries:      make(map[string]bool),
		Shapes:         make(map[string]bool),
		DurationBucket: BucketFilterAll,
		YearMin:        defaultYearMin,
		YearMax:        defaultYearMax,
		DurMinutesMin:  defaultDurMinutesMin,
		DurMinutesMax:  defaultDurMinutesMax,
		Sort:           SortNewest,
	}
}

// matches reports whether a record belongs in the working view. All clauses
// must hold.
func (c *Criteria) matches(s domain.Sighting) bool {
	if s.OccurredAt.IsZero() {
		return false
	}
	if len(c.Countries) > 0 && !c.Countries[s.CountryCode] {
		return false
	}
	if len(c.Shapes) > 0 && !c.Shapes[s.ShapeCategory] {
		return false
	}
	year := s.Year()
	if year < c.YearMin || year > c.YearMax {
		return false
	}
	minutes := s.DurationMinutes()
	if minutes < float64(c.DurMinutesMin) || minutes > float64(c.DurMinutesMax) {
		return false
	}
	if c.DurationBucket != BucketFilterAll && string(s.DurationBucket) != c.DurationBucket {
		return false
	}
	return true
}

// clampRange reorders a requested [min, max] pair so that min < max strictly,
// even when the caller supplies min == max or min > max. Applied on every
// range mutation, before any recompute.
func clampRange(reqMin, reqMax int) (int, int) {
	newMin := min(reqMin, reqMax-1)
	newMax := max(reqMin+1, reqMax)
	return newMin, newMax
}

// CriteriaSnapshot is the read-only form exposed to visualizations.
type CriteriaSnapshot struct {
	Countries      []string `json:"countries"`
	Shapes         []string `json:"shapes"`
	DurationBucket string   `json:"duration_bucket"`
	YearMin        int      `json:"year_min"`
	YearMax        int      `json:"year_max"`
	DurMinutesMin  int      `json:"duration_minutes_min"`
	DurMinutesMax  int      `json:"duration_minutes_max"`
	Sort           SortMode `json:"sort_mode"`
}

func (c *Criteria) snapshot() CriteriaSnapshot {
	return CriteriaSnapshot{
		Countries:      sortedKeys(c.Countries),
		Shapes:         sortedKeys(c.Shapes),
		DurationBucket: c.DurationBucket,
		YearMin:        c.YearMin,
		YearMax:        c.YearMax,
		DurMinutesMin:  c.DurMinutesMin,
		DurMinutesMax:  c.DurMinutesMax,
		Sort:           c.Sort,
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
