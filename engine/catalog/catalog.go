// Package catalog matches extracted fitment evidence against the vehicle
// catalog. Matching is exact (case-insensitive equality over the required
// field set) — never fuzzy. The store behind the Finder interface is
// Neo4j in production and a plain fake in tests.
package catalog

import (
	"context"

	"github.com/fitmentworks/fitment-engine/engine/domain"
	"github.com/fitmentworks/fitment-engine/engine/extract"
)

// Outcome classifies a match attempt.
type Outcome int

const (
	// OutcomeNoQuery: a required field was missing, so no lookup ran.
	// A partial key is insufficient evidence, not a wildcard search.
	OutcomeNoQuery Outcome = iota
	// OutcomeFound: exactly one catalog record matched.
	OutcomeFound
	// OutcomeNotFound: the lookup ran and matched nothing.
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoQuery:
		return "no_query"
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Match is the result of one catalog lookup attempt. Record is non-nil
// only for OutcomeFound.
type Match struct {
	Outcome Outcome
	Record  *domain.VehicleRecord
}

// Finder is the read contract the matcher needs from the catalog store:
// one case-insensitive equality lookup across all criteria (logical AND),
// at most one record returned, nil when nothing matches.
type Finder interface {
	FindVehicle(ctx context.Context, criteria map[string]string) (*domain.VehicleRecord, error)
}

// defaultRequired is the field set used when none is configured.
var defaultRequired = []string{domain.FieldBrand, domain.FieldModel, domain.FieldEngineCode}

// Matcher resolves extraction results to catalog records. The required
// field set is read through a function on every match so that a matcher
// built over a hot-reloadable extraction config follows its swaps.
type Matcher struct {
	finder   Finder
	required func() []string
}

// NewMatcher creates a Matcher with a fixed required-field set; nil
// defaults to brand, model, engine_code.
func NewMatcher(f Finder, required []string) *Matcher {
	return NewMatcherFunc(f, func() []string { return required })
}

// NewMatcherFunc creates a Matcher that re-reads the required-field set on
// every match. required returning an empty set selects the default.
func NewMatcherFunc(f Finder, required func() []string) *Matcher {
	return &Matcher{finder: f, required: required}
}

// Match looks up the catalog record for an extraction result. It returns
// OutcomeNoQuery without touching the store when any required field is
// empty. A store error is returned alongside OutcomeNotFound so the caller
// can degrade while logging the infrastructure fault.
func (m *Matcher) Match(ctx context.Context, res extract.Result) (Match, error) {
	required := m.required()
	if len(required) == 0 {
		required = defaultRequired
	}
	criteria := make(map[string]string, len(required))
	for _, f := range required {
		v := res.Get(f)
		if v == "" {
			return Match{Outcome: OutcomeNoQuery}, nil
		}
		criteria[f] = v
	}

	rec, err := m.finder.FindVehicle(ctx, criteria)
	if err != nil {
		return Match{Outcome: OutcomeNotFound}, err
	}
	if rec == nil {
		return Match{Outcome: OutcomeNotFound}, nil
	}
	return Match{Outcome: OutcomeFound, Record: rec}, nil
}
