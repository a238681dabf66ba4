// Package domain models recorded UFO sighting reports.
//
// # Data Source
//
// Sightings come from a public export of the National UFO Reporting Center
// (NUFORC) archive: one row per report with the event date/time, the date
// the report was posted, city, state/region, country, shape, duration in
// seconds, free-text comments, and coordinates. Column naming varies between
// export versions ("Duration (seconds)" vs "duration_seconds"), so lookups
// canonicalize keys by lowercasing and stripping punctuation.
//
// # Validation
//
// A row is retained only if all three hold:
//
//   - country normalizes to one of [AllowedCountries] (lowercase, letters
//     only). Any other country is a hard rejection, not a soft filter.
//   - shape normalizes to one of [AllowedShapes]. Blank means "unknown",
//     which is itself a supported category; "sphere" is aliased to "oval".
//   - the event timestamp parses, first against the strict "M/D/YYYY HH:MM"
//     source pattern, then against a small set of generic fallbacks.
//
// Everything else degrades instead of rejecting: unparseable durations
// become 0, missing cities become "Unknown", bad coordinates become NaN
// (unplottable), and the posted date is simply absent when it fails to parse.
//
// # Duration Buckets
//
// Raw duration seconds are collapsed into three buckets that drive both
// categorical filtering and the visual weight of a record:
//
//	short:  < 300 s   (under 5 minutes)
//	medium: 300–1800 s inclusive
//	long:   > 1800 s  (over 30 minutes)
//
// # IDs
//
// IDs are random UUIDs minted at ingestion. They identify a record within
// one session's working set only; the same source row gets a new ID on every
// load. Nothing downstream assumes cross-session stability.
package domain
