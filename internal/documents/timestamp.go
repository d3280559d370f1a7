package documents

import (
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds
const epochMillisThreshold = 1e11

// ParseTime normalizes a string timestamp into a UTC time.
// Returns false when the value is empty or cannot be parsed.
func ParseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}

	// Numeric strings are epoch values
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return fromEpoch(n), true
	}

	return time.Time{}, false
}

// parseTimestamp normalizes a JSON value (string or number) into a UTC time pointer
func parseTimestamp(v gjson.Result) *time.Time {
	switch v.Type {
	case gjson.Number:
		t := fromEpoch(v.Float())
		return &t
	case gjson.String:
		if t, ok := ParseTime(v.String()); ok {
			return &t
		}
	}
	return nil
}

func fromEpoch(n float64) time.Time {
	if n >= epochMillisThreshold {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}
