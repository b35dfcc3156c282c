package holded

import (
	"context"
	"errors"
	"testing"
)

func TestEnrichMergesDirectoryContact(t *testing.T) {
	purchases := []Purchase{
		{"id": "p1", "contact": map[string]interface{}{"id": "c1", "name": "Acme SL"}},
		{"id": "p2", "contactName": "Unknown Ltd"},
	}
	contacts := []Contact{
		{"id": "c1", "name": "  acme sl ", "email": "billing@acme.test", "bankAccount": "ES12 3456"},
	}

	out := Enrich(purchases, contacts)
	if len(out) != 2 {
		t.Fatalf("expected 2 purchases, got %d", len(out))
	}

	enriched := out[0].Contact()
	if enriched.IBAN() != "ES12 3456" || enriched["iban"] != "ES12 3456" {
		t.Fatalf("expected iban to be resolved, got %v", enriched)
	}
	if enriched.Email() != "billing@acme.test" {
		t.Fatalf("expected directory email, got %v", enriched)
	}
	if _, ok := purchases[0]["contact"].(map[string]interface{})["iban"]; ok {
		t.Fatal("input purchase must not be mutated")
	}
	if out[1].ContactName() != "Unknown Ltd" {
		t.Fatalf("unmatched purchase must be unchanged, got %v", out[1])
	}
	if _, ok := out[1]["contact"]; ok {
		t.Fatal("unmatched purchase must not gain a contact")
	}
}

func TestBuildContactIndexLastDuplicateWins(t *testing.T) {
	index := BuildContactIndex([]Contact{
		{"id": "first", "name": "Acme"},
		{"id": "second", "name": "ACME "},
		{"id": "company-only", "company": "Forn Vell"},
	})

	if index["acme"].ID() != "second" {
		t.Fatalf("expected last contact to win, got %v", index["acme"])
	}
	if index["forn vell"].ID() != "company-only" {
		t.Fatal("expected company name to be indexed")
	}
}

func TestEnrichWithDetailFallback(t *testing.T) {
	purchases := []Purchase{
		{"id": "p1", "contact": "c9", "contactName": "Renamed Provider"},
		{"id": "p2", "contact": "c10", "contactName": "Broken"},
	}
	detail := func(ctx context.Context, id string) (Contact, error) {
		if id == "c9" {
			return Contact{"id": "c9", "name": "Renamed Provider", "iban": "ES00"}, nil
		}
		return nil, errors.New("not found")
	}

	out := EnrichWithDetail(context.Background(), purchases, nil, detail)
	if out[0].Contact().IBAN() != "ES00" {
		t.Fatalf("expected detail contact iban, got %v", out[0].Contact())
	}
	if out[1]["contact"] != "c10" {
		t.Fatalf("expected purchase unchanged on detail failure, got %v", out[1])
	}
}

func TestEnrichKeepsEmbeddedIBANWhenDirectoryHasNone(t *testing.T) {
	purchases := []Purchase{
		{"id": "p1", "contact": map[string]interface{}{"name": "Acme", "iban": "ES11"}},
		{"id": "p2", "contact": map[string]interface{}{"name": "Forn", "bankAccount": "ES22"}},
	}
	contacts := []Contact{
		{"id": "c1", "name": "Acme", "email": "billing@acme.test"},
		{"id": "c2", "name": "Forn", "iban": "ES33"},
	}

	out := Enrich(purchases, contacts)
	if got := out[0].Contact()["iban"]; got != "ES11" {
		t.Fatalf("expected embedded iban to survive, got %v", got)
	}
	if out[0].Contact().Email() != "billing@acme.test" {
		t.Fatalf("expected directory fields merged, got %v", out[0].Contact())
	}
	if got := out[1].Contact()["iban"]; got != "ES33" {
		t.Fatalf("expected directory iban to take priority, got %v", got)
	}
}
