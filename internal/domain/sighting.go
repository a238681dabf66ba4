package domain

import (
	"time"
)

// DurationBucket is the three-way partition of sighting duration that drives
// categorical filtering and the visual weight a record gets downstream.
type DurationBucket string

const (
	BucketShort  DurationBucket = "short"  // under 5 minutes
	BucketMedium DurationBucket = "medium" // 5 to 30 minutes inclusive
	BucketLong   DurationBucket = "long"   // over 30 minutes
)

// Bucket boundaries in seconds.
const (
	shortBucketMax  = 300
	mediumBucketMax = 1800
)

// AllowedCountries is the fixed set of supported country codes. Rows from any
// other country are rejected at ingestion, not merely filtered out.
var AllowedCountries = []string{"us", "gb", "au", "ca"}

// AllowedShapes is the fixed set of supported shape categories. "unknown" is
// a real category, used when the source column is blank.
var AllowedShapes = []string{
	"circle", "disk", "light", "fireball",
	"oval", "triangle", "formation", "cylinder", "unknown",
}

// shapeAliases collapses rarer shape names onto supported categories.
// Currently the only known alias: the source dataset reports "sphere",
// which the category set folds into "oval".
var shapeAliases = map[string]string{
	"sphere": "oval",
}

// Sighting is the validated, typed representation of one raw row.
// Immutable once constructed: the pipeline never mutates a retained record,
// only the selection and order exposed to views change.
type Sighting struct {
	ID              string         `json:"id"`
	RawDatetimeText string         `json:"datetime"`
	OccurredAt      time.Time      `json:"occurred_at"`
	ReportedAt      time.Time      `json:"reported_at,omitzero"`
	City            string         `json:"city"`
	RegionCode      string         `json:"region"`
	CountryCode     string         `json:"country"`
	ShapeCategory   string         `json:"shape"`
	DurationSeconds float64        `json:"duration_seconds"`
	DurationBucket  DurationBucket `json:"duration_bucket"`
	Comments        string         `json:"comments"`
	Latitude        float64        `json:"latitude"`
	Longitude       float64        `json:"longitude"`

	IngestedAt time.Time `json:"ingested_at"`
}

// Year returns the year component of the sighting time, the value the year
// range filter operates on.
func (s Sighting) Year() int {
	return s.OccurredAt.Year()
}

// DurationMinutes returns the duration in minutes, the unit the duration
// range filter operates on.
func (s Sighting) DurationMinutes() float64 {
	return s.DurationSeconds / 60
}

// DeriveDurationBucket classifies a duration in seconds:
// short < 300s, medium 300-1800s inclusive, long > 1800s.
func DeriveDurationBucket(seconds float64) DurationBucket {
	switch {
	case seconds < shortBucketMax:
		return BucketShort
	case seconds <= mediumBucketMax:
		return BucketMedium
	default:
		return BucketLong
	}
}

// ValidBucket reports whether s names a defined duration bucket.
func ValidBucket(s string) bool {
	switch DurationBucket(s) {
	case BucketShort, BucketMedium, BucketLong:
		return true
	}
	return false
}

func countryAllowed(code string) bool {
	for _, c := range AllowedCountries {
		if c == code {
			return true
		}
	}
	return false
}

func shapeAllowed(shape string) bool {
	for _, s := range AllowedShapes {
		if s == shape {
			return true
		}
	}
	return false
}
