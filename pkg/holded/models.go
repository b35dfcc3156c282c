package holded

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Status codes carried by Holded purchase documents.
const (
	StatusDraft          = 0
	StatusConfirmed      = 1
	StatusSpecialPending = 2
	StatusOther          = 3
)

// Purchase is a purchase document exactly as returned by Holded. Holded is
// inconsistent about field names and encodings, so documents are kept as raw
// JSON objects and read through accessors.
type Purchase map[string]interface{}

// Contact is a Holded contact record.
type Contact map[string]interface{}

func (p Purchase) ID() string {
	return getString(p["id"])
}

// StatusCode returns the numeric document status, or -1 when absent.
func (p Purchase) StatusCode() int {
	if n, ok := toFloat(p["status"]); ok {
		return int(n)
	}
	return -1
}

func (p Purchase) DueDate() interface{} {
	return p["dueDate"]
}

// Contact returns the embedded contact. Holded sometimes sends the contact as
// a bare id with the name in contactName; both shapes are returned as a Contact.
func (p Purchase) Contact() Contact {
	switch c := p["contact"].(type) {
	case map[string]interface{}:
		out := Contact(c)
		if out.Name() == "" {
			if name := getString(p["contactName"]); name != "" {
				out = out.Merge(Contact{"name": name})
			}
		}
		return out
	case Contact:
		return c
	case string:
		out := Contact{}
		if c != "" {
			out["id"] = c
		}
		if name := getString(p["contactName"]); name != "" {
			out["name"] = name
		}
		return out
	default:
		if name := getString(p["contactName"]); name != "" {
			return Contact{"name": name}
		}
		return Contact{}
	}
}

// ContactName is the provider name of the purchase.
func (p Purchase) ContactName() string {
	if name := p.Contact().Name(); name != "" {
		return name
	}
	return getString(p["contactName"])
}

func (p Purchase) Tags() []string {
	switch tags := p["tags"].(type) {
	case []string:
		return tags
	case []interface{}:
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if s := getString(t); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(tags) == "" {
			return nil
		}
		var out []string
		for _, part := range strings.Split(tags, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// WithContact returns a shallow copy of p whose embedded contact is c.
func (p Purchase) WithContact(c Contact) Purchase {
	out := make(Purchase, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out["contact"] = map[string]interface{}(c)
	return out
}

func (c Contact) ID() string {
	return getString(c["id"])
}

// Name prefers the contact name and falls back to the company name.
func (c Contact) Name() string {
	if name := getString(c["name"]); name != "" {
		return name
	}
	return getString(c["company"])
}

func (c Contact) Email() string {
	return getString(c["email"])
}

// IBAN resolves the contact's bank account through the IBAN alias chain.
func (c Contact) IBAN() string {
	return ResolveIBAN(c)
}

// Merge returns a copy of c overwritten by every field of other.
func (c Contact) Merge(other Contact) Contact {
	out := make(Contact, len(c)+len(other))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func getString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return ""
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case float64:
		return val, !math.IsNaN(val)
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
