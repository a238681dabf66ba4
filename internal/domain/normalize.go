package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Row rejection reasons. The loader counts these as diagnostics; none of
// them is fatal to a bulk load.
var (
	ErrCountryNotAllowed = errors.New("country not in allow-list")
	ErrShapeNotAllowed   = errors.New("shape not in allow-list")
	ErrBadTimestamp      = errors.New("unparseable event timestamp")
)

const (
	// eventTimeLayout is the strict pattern the source uses for the
	// sighting timestamp, e.g. "10/10/1949 20:30".
	eventTimeLayout = "1/2/2006 15:04"

	// postedDateLayout is the looser date-only pattern for the report
	// posted column, e.g. "4/27/2004".
	postedDateLayout = "1/2/2006"
)

// fallbackTimeLayouts are tried in order when the strict event pattern does
// not match, mirroring the generic date handling of exports that mix formats.
var fallbackTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/2006",
	time.RFC3339,
}

// NormalizeRow parses one raw tabular row into a validated Sighting or
// rejects it with one of the sentinel reasons above. Pure: the input map is
// never mutated and every call returns a fresh record.
//
// Column names are matched case- and punctuation-insensitively: "Duration
// (seconds)", "duration_seconds" and "durationseconds" all resolve to the
// same field.
func NormalizeRow(row map[string]string) (Sighting, error) {
	fields := canonicalizeKeys(row)

	// Country first: it is the cheapest check and rejects the most rows.
	country := normalizeCountry(fields["country"])
	if !countryAllowed(country) {
		return Sighting{}, fmt.Errorf("country %q: %w", fields["country"], ErrCountryNotAllowed)
	}

	shape := normalizeShape(fields["shape"])
	if !shapeAllowed(shape) {
		return Sighting{}, fmt.Errorf("shape %q: %w", fields["shape"], ErrShapeNotAllowed)
	}

	rawTime := fields["datetime"]
	occurredAt, err := parseEventTime(rawTime)
	if err != nil {
		return Sighting{}, err
	}

	// The posted date is allowed to fail silently; absence does not
	// invalidate the record.
	reportedAt, _ := time.Parse(postedDateLayout, strings.TrimSpace(fields["dateposted"]))

	duration := parseDurationSeconds(fields["durationseconds"])

	return Sighting{
		ID:              uuid.NewString(),
		RawDatetimeText: rawTime,
		OccurredAt:      occurredAt,
		ReportedAt:      reportedAt,
		City:            defaultIfEmpty(fields["city"], "Unknown"),
		RegionCode:      fields["state"],
		CountryCode:     country,
		ShapeCategory:   shape,
		DurationSeconds: duration,
		DurationBucket:  DeriveDurationBucket(duration),
		Comments:        fields["comments"],
		Latitude:        parseCoordinate(fields["latitude"]),
		Longitude:       parseCoordinate(fields["longitude"]),
		IngestedAt:      clock.Now(),
	}, nil
}

// canonicalizeKeys lowercases every key and strips non-alphanumerics so
// source column-naming variance does not cause field loss.
func canonicalizeKeys(row map[string]string) map[string]string {
	fields := make(map[string]string, len(row))
	for k, v := range row {
		var b strings.Builder
		for _, r := range strings.ToLower(k) {
			if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		fields[b.String()] = v
	}
	return fields
}

// normalizeCountry lowercases and strips everything but letters.
func normalizeCountry(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeShape lowercases, trims, defaults blanks to "unknown" and applies
// the alias table.
func normalizeShape(raw string) string {
	shape := strings.ToLower(strings.TrimSpace(raw))
	if shape == "" {
		return "unknown"
	}
	if alias, ok := shapeAliases[shape]; ok {
		return alias
	}
	return shape
}

// parseEventTime tries the strict source pattern first, then the generic
// fallbacks. Both failing rejects the record.
func parseEventTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(eventTimeLayout, raw); err == nil {
		return t, nil
	}
	for _, layout := range fallbackTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("datetime %q: %w", raw, ErrBadTimestamp)
}

// parseDurationSeconds parses the duration column, treating anything
// unparseable or negative as zero rather than rejecting the row.
func parseDurationSeconds(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// parseCoordinate parses a latitude/longitude column. Failures become NaN:
// consumers treat non-finite coordinates as unplottable, never as errors.
func parseCoordinate(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func defaultIfEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
