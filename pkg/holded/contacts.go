package holded

import (
	"context"
	"strings"

	"github.com/solucions-socials/platform/pkg/common/logger"
)

// DetailFetcher loads a single contact by id.
type DetailFetcher func(ctx context.Context, id string) (Contact, error)

// ContactKey is the lookup key used to match a purchase to a contact.
func ContactKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BuildContactIndex indexes contacts by normalised name. When two contacts
// share a name the later one in directory order wins.
func BuildContactIndex(contacts []Contact) map[string]Contact {
	index := make(map[string]Contact, len(contacts))
	for _, c := range contacts {
		key := ContactKey(c.Name())
		if key == "" {
			continue
		}
		index[key] = c
	}
	return index
}

// Enrich attaches the matching directory contact, including its resolved
// IBAN, to every purchase. Inputs are not mutated.
func Enrich(purchases []Purchase, contacts []Contact) []Purchase {
	return EnrichWithDetail(context.Background(), purchases, contacts, nil)
}

// EnrichWithDetail behaves like Enrich and, for purchases whose contact name
// is not in the directory, falls back to fetching the contact by id. Detail
// failures leave the purchase unchanged.
func EnrichWithDetail(ctx context.Context, purchases []Purchase, contacts []Contact, detail DetailFetcher) []Purchase {
	index := BuildContactIndex(contacts)
	out := make([]Purchase, 0, len(purchases))

	for _, p := range purchases {
		embedded := p.Contact()
		match, ok := index[ContactKey(p.ContactName())]

		if !ok && detail != nil && embedded.ID() != "" {
			c, err := detail(ctx, embedded.ID())
			if err != nil {
				logger.Log.WithError(err).WithField("contact_id", embedded.ID()).
					Debug("contact detail lookup failed")
			} else if len(c) > 0 {
				match, ok = c, true
			}
		}

		if !ok {
			out = append(out, p)
			continue
		}

		merged := embedded.Merge(match)
		iban := match.IBAN()
		if iban == "" {
			iban = merged.IBAN()
		}
		if iban != "" {
			merged["iban"] = iban
		}
		out = append(out, p.WithContact(merged))
	}
	return out
}
