package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/fitmentworks/fitment-engine/engine/domain"
	"github.com/fitmentworks/fitment-engine/engine/normalize"
)

// Result is one extraction outcome. Every value has passed through
// normalize.Normalize; the empty string means "no evidence found".
type Result struct {
	Brand      string
	Model      string
	Generation string
	Engine     string
	EngineCode string
	Type       string
}

// Get returns the value for a field name, "" for unknown names.
func (r Result) Get(field string) string {
	switch field {
	case domain.FieldBrand:
		return r.Brand
	case domain.FieldModel:
		return r.Model
	case domain.FieldGeneration:
		return r.Generation
	case domain.FieldEngine:
		return r.Engine
	case domain.FieldEngineCode:
		return r.EngineCode
	case domain.FieldType:
		return r.Type
	}
	return ""
}

func (r *Result) set(field, value string) {
	switch field {
	case domain.FieldBrand:
		r.Brand = value
	case domain.FieldModel:
		r.Model = value
	case domain.FieldGeneration:
		r.Generation = value
	case domain.FieldEngine:
		r.Engine = value
	case domain.FieldEngineCode:
		r.EngineCode = value
	case domain.FieldType:
		r.Type = value
	}
}

// IsZero reports whether no field was extracted.
func (r Result) IsZero() bool { return r == Result{} }

type compiledField struct {
	name string
	re   *regexp.Regexp
}

// Extractor applies a compiled pattern set to product titles. It is
// immutable after construction and safe for concurrent use; hot reload
// swaps whole Extractor values (see Reloader).
type Extractor struct {
	stop     []string // lowercased stop keywords
	fields   []compiledField
	required []string
	log      *slog.Logger
}

// New compiles cfg into an Extractor. The declared order of cfg.Fields is
// the primary-pass iteration order.
func New(cfg Config, log *slog.Logger) (*Extractor, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(cfg.Fields) == 0 {
		return nil, fmt.Errorf("extract: no field patterns configured")
	}
	e := &Extractor{log: log}
	seen := make(map[string]bool)
	for _, fp := range cfg.Fields {
		if seen[fp.Field] {
			return nil, fmt.Errorf("extract: duplicate field %q", fp.Field)
		}
		seen[fp.Field] = true
		re, err := compileField(fp)
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		e.fields = append(e.fields, compiledField{name: fp.Field, re: re})
	}
	for _, kw := range cfg.StopKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			e.stop = append(e.stop, kw)
		}
	}
	e.required = cfg.Required
	if len(e.required) == 0 {
		e.required = []string{domain.FieldBrand, domain.FieldModel, domain.FieldEngineCode}
	}
	for _, f := range e.required {
		if !domain.KnownField(f) {
			return nil, fmt.Errorf("extract: unknown required field %q", f)
		}
	}
	return e, nil
}

// Required returns the configured required-field set.
func (e *Extractor) Required() []string { return e.required }

// Extract derives a Result from a product title. It is a pure function of
// the title and the compiled config: malformed or unrecognisable input
// yields empty fields, never an error.
func (e *Extractor) Extract(title string) Result {
	var res Result
	if title == "" {
		return res
	}

	// Triage: skip products that are clearly not vehicle parts.
	lower := strings.ToLower(title)
	for _, kw := range e.stop {
		if strings.Contains(lower, kw) {
			e.log.Debug("extract: triaged out", "keyword", kw)
			return res
		}
	}

	// Primary pass, fixed field order.
	for _, f := range e.fields {
		m := f.re.FindString(title)
		if m == "" {
			continue
		}
		if v := normalize.Normalize(m); v != "" {
			res.set(f.name, v)
		}
	}

	if res.Brand == "" || res.Model == "" || res.Type == "" {
		e.fallback(title, &res)
	}

	e.log.Debug("extract: done", "title", title,
		"brand", res.Brand, "model", res.Model, "engine_code", res.EngineCode)
	return res
}

// Word-shape tests for the fallback pass. Illustrative by design: the
// primary patterns are authoritative, these only rescue titles the
// configured tokens missed.
var (
	capitalWordRe = regexp.MustCompile(`^[A-Z][A-Za-z]+$`)
	modelTokenRe  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`)
	numDotNumRe   = regexp.MustCompile(`^\d+\.\d+$`)
	codeTokenRe   = regexp.MustCompile(`^(?:\d+[A-Za-z]+[A-Za-z0-9]*|[A-Za-z]+\d+[A-Za-z0-9]*)$`)
	alphaTokenRe  = regexp.MustCompile(`^[A-Za-z]+$`)
)

// fallback scans whitespace-delimited words left to right and commits at
// most one candidate per still-missing field. A field set by the primary
// pass is never reconsidered, even if a later word would score better.
func (e *Extractor) fallback(title string, res *Result) {
	words := strings.Fields(title)
	claimed := make([]bool, len(words))

	// Words whose normalised form already produced a primary-pass value
	// are spoken for; the fallback must not reinterpret them as evidence
	// for a different field.
	taken := map[string]bool{}
	for _, f := range domain.FieldOrder {
		if v := res.Get(f); v != "" {
			taken[v] = true
		}
	}
	for i, w := range words {
		if taken[normalize.Normalize(w)] {
			claimed[i] = true
		}
	}

	// Position of the word carrying the brand, whether it came from the
	// primary pass or gets claimed below. Model candidates must sit
	// strictly after it.
	brandPos := -1
	if res.Brand != "" {
		for i, w := range words {
			if normalize.Normalize(w) == res.Brand {
				brandPos = i
				break
			}
		}
	}

	for i, w := range words {
		if claimed[i] {
			continue
		}
		switch {
		case res.Brand == "" && capitalWordRe.MatchString(w):
			res.Brand = normalize.Normalize(w)
			brandPos = i
			claimed[i] = true

		case res.Model == "" && brandPos >= 0 && i > brandPos && modelTokenRe.MatchString(w):
			res.Model = normalize.Normalize(w)
			claimed[i] = true

		case res.Engine == "" && numDotNumRe.MatchString(w):
			// Pair with the following alphabetic token when present,
			// e.g. "2.0 TDI".
			v := w
			if i+1 < len(words) && alphaTokenRe.MatchString(words[i+1]) {
				v = w + " " + words[i+1]
				claimed[i+1] = true
			}
			res.Engine = normalize.Normalize(v)
			claimed[i] = true

		case res.Type == "" && codeTokenRe.MatchString(w):
			res.Type = normalize.Normalize(w)
			claimed[i] = true
		}
	}
}
