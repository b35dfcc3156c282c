package normalizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	ChannelCatering    = "CATERING"
	ChannelEstructura  = "ESTRUCTURA"
	ChannelIdoni       = "IDONI"
	ChannelObrador     = "OBRADOR"
	ChannelMenjarDHort = "MENJAR_D_HORT"
	ChannelOtros       = "OTROS"
)

// ChannelRule assigns Channel when any keyword occurs as a whole word (or
// phrase) in the search text.
type ChannelRule struct {
	Channel  string   `yaml:"channel" json:"channel"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Classifier evaluates its rules in order; the first match wins.
type Classifier struct {
	Rules   []ChannelRule `yaml:"rules" json:"rules"`
	Default string        `yaml:"default" json:"default"`
}

// DefaultClassifier puts catering before menjar d'hort, so a catering
// provider whose name mentions the garden stays in CATERING.
func DefaultClassifier() *Classifier {
	return &Classifier{
		Rules: []ChannelRule{
			{Channel: ChannelCatering, Keywords: []string{"catering", "càtering"}},
			{Channel: ChannelEstructura, Keywords: []string{"estructura"}},
			{Channel: ChannelIdoni, Keywords: []string{"idoni"}},
			{Channel: ChannelObrador, Keywords: []string{"obrador"}},
			{Channel: ChannelMenjarDHort, Keywords: []string{"menjar d'hort", "menjar dhort", "hort"}},
		},
		Default: ChannelOtros,
	}
}

func LoadClassifier(path string) (*Classifier, error) {
	if path == "" {
		return DefaultClassifier(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultClassifier(), err
	}
	var c Classifier
	if err := yaml.Unmarshal(content, &c); err != nil {
		return nil, err
	}
	if len(c.Rules) == 0 {
		return nil, fmt.Errorf("classifier rule table empty")
	}
	for i, rule := range c.Rules {
		if rule.Channel == "" || len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("classifier rule %d needs a channel and keywords", i)
		}
	}
	if c.Default == "" {
		c.Default = ChannelOtros
	}
	return &c, nil
}

// Classify returns the business channel of a provider and its tags.
func (c *Classifier) Classify(provider string, tags []string) string {
	search := strings.ToLower(provider + " " + strings.Join(tags, " "))
	for _, rule := range c.Rules {
		for _, keyword := range rule.Keywords {
			if keyword != "" && containsWord(search, strings.ToLower(keyword)) {
				return rule.Channel
			}
		}
	}
	return c.Default
}

// containsWord reports whether keyword occurs in text with no letter or digit
// directly before or after it.
func containsWord(text, keyword string) bool {
	for offset := 0; offset <= len(text)-len(keyword); {
		i := strings.Index(text[offset:], keyword)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(keyword)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
