// Package tags expands a catalog match (or, when no record exists, the raw
// extraction) into the deduplicated tag set attached to a product.
package tags

import (
	"sort"
	"strings"

	"github.com/fitmentworks/fitment-engine/engine/catalog"
	"github.com/fitmentworks/fitment-engine/engine/extract"
	"github.com/fitmentworks/fitment-engine/engine/normalize"
	"github.com/fitmentworks/fitment-engine/pkg/fn"
)

// parts are the conceptual fields tag composition draws from, regardless
// of whether they came from a catalog record or raw extraction.
type parts struct {
	brand        string
	model        string
	typ          string
	engineCode   string
	engineName   string
	fuelType     string
	displacement string
	generation   string
}

// Derive builds the tag set for a match outcome.
//
// NoQuery yields nil: insufficient evidence must not fabricate tags.
// Found composes from the catalog record — authoritative data wins over
// raw extraction wherever both exist. NotFound degrades to the same shape
// built from extraction values only, so an unmatched vehicle still gets a
// classification, just an unverified one. Output is deduplicated and
// sorted; composites appear only when every constituent is present.
func Derive(m catalog.Match, res extract.Result) []string {
	switch m.Outcome {
	case catalog.OutcomeFound:
		r := m.Record
		return compose(parts{
			brand:        r.Brand,
			model:        r.Model,
			typ:          r.Type,
			engineCode:   r.EngineCode,
			engineName:   r.EngineName,
			fuelType:     r.FuelType,
			displacement: r.Displacement,
			generation:   r.Generation,
		})
	case catalog.OutcomeNotFound:
		return compose(parts{
			brand:      res.Brand,
			model:      res.Model,
			typ:        res.Type,
			engineCode: res.EngineCode,
			engineName: res.Engine,
			generation: res.Generation,
		})
	default: // OutcomeNoQuery
		return nil
	}
}

func compose(p parts) []string {
	brand := normalize.Normalize(p.brand)
	model := normalize.Normalize(p.model)
	typ := normalize.Normalize(p.typ)
	generation := normalize.Normalize(p.generation)

	var out []string
	add := func(v string) {
		if v != "" {
			out = append(out, v)
		}
	}

	add(brand)
	add(model)
	add(typ)
	if brand != "" && model != "" {
		add(normalize.Join(brand, model))
		if typ != "" {
			add(normalize.Join(brand, model, typ))
		}
	}
	add(normalize.Normalize(p.engineCode))
	add(normalize.Normalize(p.engineName))
	add(normalize.Normalize(p.fuelType))
	add(normalize.Normalize(p.displacement))
	add(generation)
	if brand != "" && model != "" && generation != "" {
		add(normalize.Join(brand, model, generation))
	}

	out = fn.Unique(out)
	sort.Strings(out)
	return out
}

// Composites returns the composite tags (those containing a space), which
// drive collection reconciliation.
func Composites(tags []string) []string {
	return fn.Filter(tags, func(t string) bool {
		return strings.Contains(t, " ")
	})
}
