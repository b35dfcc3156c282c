package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var ErrNoTenants = errors.New("no Holded tenants configured")

// Tenant is one Holded account the service can synchronise.
type Tenant struct {
	ID      string `yaml:"id" json:"id" validate:"required,lowercase"`
	APIKey  string `yaml:"api_key" json:"-" validate:"required"`
	BaseURL string `yaml:"base_url" json:"base_url,omitempty" validate:"omitempty,url"`
}

type tenantsFile struct {
	Tenants []Tenant `yaml:"tenants"`
}

// Tenants indexes configured tenants by id.
type Tenants struct {
	byID map[string]Tenant
}

func NewTenants(list []Tenant) (*Tenants, error) {
	v := validator.New()
	t := &Tenants{byID: make(map[string]Tenant, len(list))}
	for _, tenant := range list {
		tenant.ID = strings.ToLower(strings.TrimSpace(tenant.ID))
		if err := v.Struct(tenant); err != nil {
			return nil, fmt.Errorf("tenant %q: %w", tenant.ID, err)
		}
		if _, dup := t.byID[tenant.ID]; dup {
			return nil, fmt.Errorf("tenant %q configured twice", tenant.ID)
		}
		t.byID[tenant.ID] = tenant
	}
	if len(t.byID) == 0 {
		return nil, ErrNoTenants
	}
	return t, nil
}

func (t *Tenants) Lookup(id string) (Tenant, bool) {
	if t == nil {
		return Tenant{}, false
	}
	tenant, ok := t.byID[strings.ToLower(strings.TrimSpace(id))]
	return tenant, ok
}

// IDs returns the tenant ids in a stable order.
func (t *Tenants) IDs() []string {
	if t == nil {
		return nil
	}
	ids := make([]string, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadTenants reads TENANTS_FILE when set, otherwise builds the two historical
// tenants (solucions, menjar) from their API key variables.
func LoadTenants(cfg *Config) (*Tenants, error) {
	if cfg.TenantsFile != "" {
		return LoadTenantsFile(cfg.TenantsFile, cfg.HoldedBaseURL)
	}

	var list []Tenant
	if cfg.HoldedAPIKeySolucions != "" {
		list = append(list, Tenant{ID: "solucions", APIKey: cfg.HoldedAPIKeySolucions, BaseURL: cfg.HoldedBaseURL})
	}
	if cfg.HoldedAPIKeyMenjar != "" {
		list = append(list, Tenant{ID: "menjar", APIKey: cfg.HoldedAPIKeyMenjar, BaseURL: cfg.HoldedBaseURL})
	}
	return NewTenants(list)
}

func LoadTenantsFile(path, defaultBaseURL string) (*Tenants, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading tenants file: %w", err)
	}

	var file tenantsFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parsing tenants file: %w", err)
	}
	if len(file.Tenants) == 0 {
		return nil, ErrNoTenants
	}

	for i := range file.Tenants {
		if file.Tenants[i].BaseURL == "" {
			file.Tenants[i].BaseURL = defaultBaseURL
		}
	}
	return NewTenants(file.Tenants)
}
