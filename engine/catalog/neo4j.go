package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fitmentworks/fitment-engine/engine/domain"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// CypherResult is the minimal result surface the store needs.
type CypherResult interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
}

// CypherSession is the minimal session surface the store needs.
type CypherSession interface {
	Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error)
	Close(ctx context.Context) error
}

// SessionOpener opens Cypher sessions. The production opener wraps the
// Neo4j driver; tests supply mocks.
type SessionOpener interface {
	OpenSession(ctx context.Context) CypherSession
}

// criterionProps whitelists criterion names against Vehicle node
// properties. Anything else is rejected before it reaches a query string.
var criterionProps = map[string]string{
	domain.FieldBrand:      "brand",
	domain.FieldModel:      "model",
	domain.FieldEngineCode: "engine_code",
	domain.FieldType:       "type",
	domain.FieldGeneration: "generation",
}

// Store is the Neo4j-backed vehicle catalog.
type Store struct {
	opener SessionOpener
}

// NewStore creates a Store on a Neo4j driver.
func NewStore(driver neo4j.DriverWithContext) *Store {
	return &Store{opener: driverOpener{driver: driver}}
}

// NewStoreWithOpener creates a Store with a custom session opener.
func NewStoreWithOpener(opener SessionOpener) *Store {
	return &Store{opener: opener}
}

var _ Finder = (*Store)(nil)

// FindVehicle issues one case-insensitive equality lookup across all
// criteria and returns the first matching record, or nil.
func (s *Store) FindVehicle(ctx context.Context, criteria map[string]string) (*domain.VehicleRecord, error) {
	if len(criteria) == 0 {
		return nil, fmt.Errorf("catalog: empty criteria")
	}

	// Sorted keys keep the generated Cypher deterministic.
	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		if _, ok := criterionProps[k]; !ok {
			return nil, fmt.Errorf("catalog: unknown criterion %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var where []string
	params := make(map[string]any, len(criteria))
	for _, k := range keys {
		prop := criterionProps[k]
		where = append(where, fmt.Sprintf("toLower(v.%s) = $%s", prop, prop))
		params[prop] = strings.ToLower(criteria[k])
	}

	cypher := "MATCH (v:Vehicle) WHERE " + strings.Join(where, " AND ") + " RETURN v LIMIT 1"
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("catalog: lookup: %w", err)
	}
	if !result.Next(ctx) {
		return nil, nil
	}
	rec, err := vehicleFromRecord(result.Record())
	if err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return &rec, nil
}

// SaveVehicle creates or updates a catalog record, keyed on
// brand+model+engine_code. Used by cmd/seed only; the serving path never
// writes.
func (s *Store) SaveVehicle(ctx context.Context, rec domain.VehicleRecord) error {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MERGE (v:Vehicle {brand: $brand, model: $model, engine_code: $engine_code})
	           SET v.generation = $generation, v.type = $type, v.engine_name = $engine_name,
	               v.fuel_type = $fuel_type, v.displacement = $displacement, v.power = $power`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"brand":        rec.Brand,
		"model":        rec.Model,
		"engine_code":  rec.EngineCode,
		"generation":   rec.Generation,
		"type":         rec.Type,
		"engine_name":  rec.EngineName,
		"fuel_type":    rec.FuelType,
		"displacement": rec.Displacement,
		"power":        rec.Power,
	})
	return err
}

func vehicleFromRecord(rec *neo4j.Record) (domain.VehicleRecord, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "v")
	if err != nil {
		return domain.VehicleRecord{}, err
	}
	p := node.Props
	return domain.VehicleRecord{
		Brand:        strProp(p, "brand"),
		Model:        strProp(p, "model"),
		Generation:   strProp(p, "generation"),
		Type:         strProp(p, "type"),
		EngineCode:   strProp(p, "engine_code"),
		EngineName:   strProp(p, "engine_name"),
		FuelType:     strProp(p, "fuel_type"),
		Displacement: strProp(p, "displacement"),
		Power:        strProp(p, "power"),
	}, nil
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// --- driver adapters ---

type driverOpener struct {
	driver neo4j.DriverWithContext
}

func (o driverOpener) OpenSession(ctx context.Context) CypherSession {
	return sessionAdapter{sess: o.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

type sessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a sessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a sessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}
