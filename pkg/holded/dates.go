package holded

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ISOLayout matches JavaScript's Date.toISOString output.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// millisThreshold separates Unix seconds from Unix milliseconds.
const millisThreshold = 1_000_000_000_000

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// ConvertDate normalises a Holded date value into an ISO8601 string.
// Digits (as number or string) are Unix seconds or milliseconds, strings with
// a dash are assumed to already be ISO and returned as-is, time values are
// formatted. Everything else, including zero, yields false.
func ConvertDate(value interface{}) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.UTC().Format(ISOLayout), true
	case *time.Time:
		if v == nil {
			return "", false
		}
		return ConvertDate(*v)
	case json.Number:
		return convertNumeric(string(v))
	case float64:
		return fromUnix(v)
	case float32:
		return fromUnix(float64(v))
	case int:
		return fromUnix(float64(v))
	case int64:
		return fromUnix(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return "", false
		}
		if isDigits(s) {
			return convertNumeric(s)
		}
		if strings.Contains(s, "-") {
			return s, true
		}
		return "", false
	default:
		return "", false
	}
}

// DateValue converts a Holded date value into a time.
func DateValue(value interface{}) (time.Time, bool) {
	iso, ok := ConvertDate(value)
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(iso)
}

// ParseDate parses the date encodings accepted by the invoice store.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func convertNumeric(s string) (string, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", false
	}
	return fromUnix(f)
}

func fromUnix(v float64) (string, bool) {
	if v <= 0 {
		return "", false
	}
	ms := int64(v * 1000)
	if v > millisThreshold {
		ms = int64(v)
	}
	return time.UnixMilli(ms).UTC().Format(ISOLayout), true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
