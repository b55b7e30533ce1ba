// Package extract applies a configurable, ordered set of field patterns to
// product titles and falls back to word-shape heuristics when the primary
// pass leaves required evidence missing. Patterns are data, not code: the
// recognised brand/model/engine tokens live in config and can be swapped at
// runtime without touching extraction logic.
package extract

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/fitmentworks/fitment-engine/engine/domain"
	"gopkg.in/yaml.v3"
)

// FieldPattern configures extraction for one field. Either Pattern (a raw
// regular expression) or Tokens (a word list compiled into a word-bounded
// alternation, longest token first) must be set; Pattern wins if both are.
type FieldPattern struct {
	Field   string   `yaml:"field"`
	Pattern string   `yaml:"pattern,omitempty"`
	Tokens  []string `yaml:"tokens,omitempty"`
}

// Config is the externally supplied extraction configuration. The order of
// Fields is the iteration order of the primary pass.
type Config struct {
	// StopKeywords triage non-vehicle products: a case-insensitive
	// substring hit skips extraction entirely.
	StopKeywords []string       `yaml:"stop_keywords"`
	Fields       []FieldPattern `yaml:"fields"`
	// Required is the field set that must be present before a catalog
	// lookup is attempted. Defaults to brand, model, engine_code.
	Required []string `yaml:"required"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read pattern config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse pattern config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the built-in European-catalog pattern set. The
// token lists are illustrative defaults, not an attempt to cover every
// naming convention; operators extend them through the config file.
func DefaultConfig() Config {
	return Config{
		StopKeywords: []string{
			"shirt", "t-shirt", "jacket", "hoodie", "cap", "mug",
			"sticker", "poster", "keychain", "phone", "case", "wallet",
		},
		Fields: []FieldPattern{
			{Field: domain.FieldBrand, Tokens: []string{
				"bmw", "audi", "volkswagen", "vw", "mercedes-benz", "mercedes",
				"skoda", "seat", "ford", "opel", "renault", "peugeot",
				"citroen", "fiat", "volvo", "toyota", "honda", "nissan",
				"mazda", "hyundai", "kia", "dacia", "mini", "porsche",
			}},
			{Field: domain.FieldModel, Tokens: []string{
				"e30", "e36", "e39", "e46", "e60", "e61", "e87", "e90",
				"e91", "e92", "f10", "f20", "f30", "g20", "g30",
				"a1", "a3", "a4", "a5", "a6", "a7", "a8", "q3", "q5", "q7",
				"golf", "polo", "passat", "tiguan", "touran", "caddy",
				"octavia", "fabia", "superb", "leon", "ibiza",
				"focus", "fiesta", "mondeo", "kuga",
				"astra", "corsa", "insignia", "vectra",
				"megane", "clio", "laguna", "scenic",
				"307", "308", "407", "508", "c3", "c4", "c5",
				"logan", "duster", "sandero",
			}},
			{Field: domain.FieldGeneration, Tokens: []string{
				"b5", "b6", "b7", "b8", "b9", "8l", "8p", "8v",
				"mk3", "mk4", "mk5", "mk6", "mk7", "mk8",
				"w202", "w203", "w204", "w210", "w211", "w212",
			}},
			{Field: domain.FieldEngine, Pattern: `\b\d\.\d\s?(?:tdi|tsi|tfsi|fsi|hdi|dci|cdti|crdi|jtd|d4d|mjet|d|i|t)\b`},
			{Field: domain.FieldEngineCode, Tokens: []string{
				"n47", "n57", "m47", "m57", "b47", "b57", "n42", "n46",
				"om611", "om646", "om651",
				"caga", "cagb", "cjca", "clja", "cbab", "cffb", "czda",
				"bkd", "bkc", "alh", "asz", "azv", "bmn", "bls", "bxe",
				"axr", "avf", "awx", "bpw",
			}},
			{Field: domain.FieldType, Pattern: `\b\d{3}\s?[dit]\b|\bxdrive\d{2}[di]\b|\b[12]\.\d\s?(?:16v|8v)\b`},
		},
		Required: []string{domain.FieldBrand, domain.FieldModel, domain.FieldEngineCode},
	}
}

// compileField builds the case-insensitive regexp for one FieldPattern.
func compileField(fp FieldPattern) (*regexp.Regexp, error) {
	if !domain.KnownField(fp.Field) {
		return nil, fmt.Errorf("unknown field %q", fp.Field)
	}
	expr := fp.Pattern
	if expr == "" {
		if len(fp.Tokens) == 0 {
			return nil, fmt.Errorf("field %q: pattern or tokens required", fp.Field)
		}
		expr = tokenAlternation(fp.Tokens)
	}
	re, err := regexp.Compile(`(?i)` + expr)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", fp.Field, err)
	}
	return re, nil
}

// tokenAlternation joins tokens into a word-bounded alternation, longest
// first so "mercedes-benz" beats "mercedes".
func tokenAlternation(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return `\b(?:` + strings.Join(quoted, "|") + `)\b`
}
