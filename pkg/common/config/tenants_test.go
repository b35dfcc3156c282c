package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTenantsFromKeys(t *testing.T) {
	cfg := &Config{
		HoldedBaseURL:         DefaultHoldedBaseURL,
		HoldedAPIKeySolucions: "key-s",
		HoldedAPIKeyMenjar:    "key-m",
	}

	tenants, err := LoadTenants(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := tenants.IDs()
	if len(ids) != 2 || ids[0] != "menjar" || ids[1] != "solucions" {
		t.Fatalf("unexpected tenant ids %v", ids)
	}
	solucions, ok := tenants.Lookup(" Solucions ")
	if !ok {
		t.Fatal("expected solucions tenant")
	}
	if solucions.APIKey != "key-s" || solucions.BaseURL != DefaultHoldedBaseURL {
		t.Fatalf("unexpected tenant %+v", solucions)
	}
}

func TestLoadTenantsRequiresAKey(t *testing.T) {
	_, err := LoadTenants(&Config{HoldedBaseURL: DefaultHoldedBaseURL})
	if !errors.Is(err, ErrNoTenants) {
		t.Fatalf("expected ErrNoTenants, got %v", err)
	}
}

func TestLoadTenantsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	content := `tenants:
  - id: solucions
    api_key: abc
  - id: cooperativa
    api_key: def
    base_url: http://holded.local/api
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write tenants file: %v", err)
	}

	tenants, err := LoadTenantsFile(path, DefaultHoldedBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	coop, ok := tenants.Lookup("cooperativa")
	if !ok || coop.BaseURL != "http://holded.local/api" {
		t.Fatalf("unexpected cooperativa tenant %+v", coop)
	}
	sol, _ := tenants.Lookup("solucions")
	if sol.BaseURL != DefaultHoldedBaseURL {
		t.Fatalf("expected default base url, got %q", sol.BaseURL)
	}
}

func TestNewTenantsRejectsInvalid(t *testing.T) {
	if _, err := NewTenants([]Tenant{{ID: "solucions"}}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewTenants([]Tenant{{ID: "a", APIKey: "k", BaseURL: "not a url"}}); err == nil {
		t.Fatal("expected error for invalid base url")
	}
	if _, err := NewTenants([]Tenant{{ID: "a", APIKey: "k"}, {ID: "A", APIKey: "k2"}}); err == nil {
		t.Fatal("expected error for duplicate tenant")
	}
}
