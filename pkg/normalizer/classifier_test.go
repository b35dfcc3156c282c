package normalizer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassifierDefaultRules(t *testing.T) {
	c := DefaultClassifier()
	cases := []struct {
		provider string
		tags     []string
		want     string
	}{
		{"Càtering Sant Pau", nil, ChannelCatering},
		{"Acme", nil, ChannelOtros},
		{"Ferreteria", []string{"Estructura"}, ChannelEstructura},
		{"Botiga Idoni", nil, ChannelIdoni},
		{"Proveidor", []string{"obrador"}, ChannelObrador},
		{"Menjar d'Hort SCCL", nil, ChannelMenjarDHort},
		{"Catering de l'Hort", nil, ChannelCatering},
		{"Hort del Pep", nil, ChannelMenjarDHort},
		{"Shorts SL", nil, ChannelOtros},
		{"Northgate Supplies", nil, ChannelOtros},
		{"Proveidor", []string{"hort"}, ChannelMenjarDHort},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.provider, tc.tags); got != tc.want {
			t.Fatalf("Classify(%q, %v) = %s, want %s", tc.provider, tc.tags, got, tc.want)
		}
	}
}

func TestLoadClassifierFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := []byte("rules:\n  - channel: HORT\n    keywords: [hort]\n  - channel: CATERING\n    keywords: [catering]\ndefault: ALTRES\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	c, err := LoadClassifier(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Classify("Catering de l'Hort", nil); got != "HORT" {
		t.Fatalf("expected table order to decide, got %s", got)
	}
	if got := c.Classify("Acme", nil); got != "ALTRES" {
		t.Fatalf("expected configured default, got %s", got)
	}
}

func TestLoadClassifierRejectsEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("rules: []\n"), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	if _, err := LoadClassifier(path); err == nil {
		t.Fatal("expected error for empty rule table")
	}
}
