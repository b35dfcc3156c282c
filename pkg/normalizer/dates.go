package normalizer

import (
	"time"

	"github.com/solucions-socials/platform/pkg/holded"
)

// ConvertHoldedDate converts a Holded date value to an ISO8601 string.
func ConvertHoldedDate(value interface{}) (string, bool) {
	return holded.ConvertDate(value)
}

func convertedOrNil(value interface{}) interface{} {
	if iso, ok := ConvertHoldedDate(value); ok {
		return iso
	}
	return nil
}

// parseDateField accepts the values a raw record may hold for a date column.
func parseDateField(value interface{}) (*time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case time.Time:
		if v.IsZero() {
			return nil, true
		}
		t := v.UTC()
		return &t, true
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil, true
		}
		t := v.UTC()
		return &t, true
	case string:
		if v == "" {
			return nil, true
		}
		t, ok := holded.ParseDate(v)
		if !ok {
			return nil, false
		}
		t = t.UTC()
		return &t, true
	default:
		t, ok := holded.DateValue(v)
		if !ok {
			return nil, false
		}
		t = t.UTC()
		return &t, true
	}
}
