package holded

import (
	"strings"
	"time"
)

// CollectMode selects how open purchases are gathered for a sync.
type CollectMode string

const (
	// CollectSingle walks the purchase list once and applies both filters to it.
	CollectSingle CollectMode = "single"
	// CollectDual walks the list once per filter and unions the results.
	CollectDual CollectMode = "dual"
)

func ParseCollectMode(s string) CollectMode {
	if strings.EqualFold(strings.TrimSpace(s), string(CollectDual)) {
		return CollectDual
	}
	return CollectSingle
}

// IsPending reports whether the purchase still has to be paid. Confirmed
// purchases (status 1) are excluded.
func IsPending(p Purchase) bool {
	switch p.StatusCode() {
	case StatusDraft, StatusSpecialPending:
		return true
	default:
		return false
	}
}

// IsOverdue reports whether a pending purchase is due strictly before the
// calendar day of now. Days are compared in now's location.
func IsOverdue(p Purchase, now time.Time) bool {
	if !IsPending(p) {
		return false
	}
	due, ok := DateValue(p.DueDate())
	if !ok {
		return false
	}
	return calendarDay(due.In(now.Location())).Before(calendarDay(now))
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func FilterPending(purchases []Purchase) []Purchase {
	out := make([]Purchase, 0, len(purchases))
	for _, p := range purchases {
		if IsPending(p) {
			out = append(out, p)
		}
	}
	return out
}

func FilterOverdue(purchases []Purchase, now time.Time) []Purchase {
	out := make([]Purchase, 0, len(purchases))
	for _, p := range purchases {
		if IsOverdue(p, now) {
			out = append(out, p)
		}
	}
	return out
}

// DedupeByID concatenates the lists keeping the first occurrence of each id.
// Documents without an id are always kept.
func DedupeByID(lists ...[]Purchase) []Purchase {
	seen := make(map[string]struct{})
	var out []Purchase
	for _, list := range lists {
		for _, p := range list {
			id := p.ID()
			if id != "" {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
			}
			out = append(out, p)
		}
	}
	return out
}
