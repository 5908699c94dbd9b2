package dataset

import (
	"encoding/json"
	"fmt"
	"time"
)

// Typed extraction from Row values. JSON decoding leaves everything as
// string/float64/bool/nil/map/slice; these helpers absorb that plus the
// int/int64 values test fixtures construct by hand, so callers never type
// assert on raw row fields. Missing fields and nulls report !ok, never panic.

// Int64 extracts an integer field. Numeric strings are accepted because some
// exporters serialize ids as strings.
func (r Row) Int64(field string) (int64, bool) {
	switch v := r[field].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case float32:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		var n int64
		_, err := fmt.Sscanf(v, "%d", &n)
		return n, err == nil
	default:
		return 0, false
	}
}

// Float64 extracts a numeric field.
func (r Row) Float64(field string) (float64, bool) {
	switch v := r[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		var f float64
		_, err := fmt.Sscanf(v, "%g", &f)
		return f, err == nil
	default:
		return 0, false
	}
}

// String extracts a string field.
func (r Row) String(field string) (string, bool) {
	switch v := r[field].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

// Bool extracts a boolean field.
func (r Row) Bool(field string) (bool, bool) {
	v, ok := r[field].(bool)
	return v, ok
}

// ID is shorthand for the row's id field.
func (r Row) ID() (int64, bool) {
	return r.Int64(FieldID)
}

// HasValue reports whether the field is present and non-null. This is how
// published_at is checked: null means draft.
func (r Row) HasValue(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// timeLayouts are tried in order when parsing timestamp fields. The exporter
// writes RFC 3339; date-only birth dates and zone-less timestamps occur in
// older exports.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time extracts and parses a timestamp field. Malformed values report !ok so
// downstream date arithmetic never runs on garbage.
func (r Row) Time(field string) (time.Time, bool) {
	s, ok := r.String(field)
	if !ok || s == "" {
		return time.Time{}, false
	}
	return ParseTime(s)
}

// ParseTime parses a timestamp string using the known exporter layouts.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DayKey returns the UTC calendar day (YYYY-MM-DD) of a timestamp. All
// per-day grouping uses this key so rows bucket consistently regardless of
// the offset they were recorded with.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
