package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/fitmentworks/fitment-engine/engine/domain"
	"github.com/fitmentworks/fitment-engine/engine/extract"
)

// countingFinder records lookups so tests can assert the no-query guard.
type countingFinder struct {
	calls    int
	criteria map[string]string
	rec      *domain.VehicleRecord
	err      error
}

func (f *countingFinder) FindVehicle(_ context.Context, criteria map[string]string) (*domain.VehicleRecord, error) {
	f.calls++
	f.criteria = criteria
	return f.rec, f.err
}

func fullExtraction() extract.Result {
	return extract.Result{Brand: "bmw", Model: "e90", EngineCode: "n47"}
}

func TestMatch_NoQueryOnMissingRequiredField(t *testing.T) {
	missing := []extract.Result{
		{},
		{Brand: "bmw"},
		{Brand: "bmw", Model: "e90"},
		{Model: "e90", EngineCode: "n47"},
	}
	for _, res := range missing {
		f := &countingFinder{}
		m := NewMatcher(f, nil)
		match, err := m.Match(context.Background(), res)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if match.Outcome != OutcomeNoQuery {
			t.Errorf("outcome = %v, want no_query for %+v", match.Outcome, res)
		}
		if f.calls != 0 {
			t.Errorf("finder called %d times for partial key %+v, want 0", f.calls, res)
		}
	}
}

func TestMatch_Found(t *testing.T) {
	rec := &domain.VehicleRecord{Brand: "BMW", Model: "E90", EngineCode: "N47", FuelType: "diesel"}
	f := &countingFinder{rec: rec}
	m := NewMatcher(f, nil)

	match, err := m.Match(context.Background(), fullExtraction())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Outcome != OutcomeFound || match.Record != rec {
		t.Fatalf("match = %+v, want found with record", match)
	}
	if f.calls != 1 {
		t.Errorf("finder called %d times, want exactly 1", f.calls)
	}
	if f.criteria["brand"] != "bmw" || f.criteria["model"] != "e90" || f.criteria["engine_code"] != "n47" {
		t.Errorf("criteria = %v", f.criteria)
	}
}

func TestMatch_NotFound(t *testing.T) {
	f := &countingFinder{}
	m := NewMatcher(f, nil)

	match, err := m.Match(context.Background(), fullExtraction())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Outcome != OutcomeNotFound || match.Record != nil {
		t.Fatalf("match = %+v, want not_found", match)
	}
}

func TestMatch_StoreErrorSurfaced(t *testing.T) {
	f := &countingFinder{err: errors.New("connection refused")}
	m := NewMatcher(f, nil)

	match, err := m.Match(context.Background(), fullExtraction())
	if err == nil {
		t.Fatal("expected store error to surface")
	}
	if match.Outcome != OutcomeNotFound {
		t.Errorf("outcome = %v, want not_found alongside the error", match.Outcome)
	}
}

func TestMatch_TypeKeyedRequiredSet(t *testing.T) {
	f := &countingFinder{}
	m := NewMatcher(f, []string{domain.FieldBrand, domain.FieldModel, domain.FieldType})

	// engine_code present but type missing: still no query.
	match, _ := m.Match(context.Background(), fullExtraction())
	if match.Outcome != OutcomeNoQuery || f.calls != 0 {
		t.Fatalf("match = %+v calls = %d, want no_query without lookup", match, f.calls)
	}

	res := extract.Result{Brand: "bmw", Model: "e90", Type: "320d"}
	if match, _ = m.Match(context.Background(), res); match.Outcome != OutcomeNotFound {
		t.Fatalf("outcome = %v, want not_found", match.Outcome)
	}
	if f.criteria["type"] != "320d" {
		t.Errorf("criteria = %v, want type keyed", f.criteria)
	}
}

func TestMatch_RequiredSetFollowsProvider(t *testing.T) {
	f := &countingFinder{}
	required := []string{domain.FieldBrand, domain.FieldModel, domain.FieldEngineCode}
	m := NewMatcherFunc(f, func() []string { return required })

	res := extract.Result{Brand: "bmw", Model: "e90", Type: "320d"}
	match, _ := m.Match(context.Background(), res)
	if match.Outcome != OutcomeNoQuery || f.calls != 0 {
		t.Fatalf("match = %+v calls = %d, want no_query under the initial set", match, f.calls)
	}

	// Swap the required set the way a config reload would.
	required = []string{domain.FieldBrand, domain.FieldModel, domain.FieldType}
	if match, _ = m.Match(context.Background(), res); match.Outcome != OutcomeNotFound {
		t.Fatalf("outcome = %v, want not_found under the swapped set", match.Outcome)
	}
	if f.calls != 1 || f.criteria["type"] != "320d" {
		t.Fatalf("calls = %d criteria = %v, want one type-keyed lookup", f.calls, f.criteria)
	}

	// An empty set from the provider falls back to the default.
	required = nil
	if match, _ = m.Match(context.Background(), fullExtraction()); match.Outcome != OutcomeNotFound {
		t.Fatalf("outcome = %v, want not_found under the default set", match.Outcome)
	}
	if f.criteria["engine_code"] != "n47" {
		t.Fatalf("criteria = %v, want the default key", f.criteria)
	}
}

func TestOutcomeString(t *testing.T) {
	pairs := map[Outcome]string{
		OutcomeNoQuery:  "no_query",
		OutcomeFound:    "found",
		OutcomeNotFound: "not_found",
		Outcome(42):     "unknown",
	}
	for o, want := range pairs {
		if o.String() != want {
			t.Errorf("%d.String() = %q, want %q", o, o.String(), want)
		}
	}
}
