// Package domain defines the core fitment types and the error taxonomy
// shared across the extraction, matching, and dispatch packages.
package domain

import (
	"bytes"
	"fmt"
	"time"
)

// VehicleRecord is a catalog fitment entry. Records are maintained by an
// external catalog process (cmd/seed) and are read-only for the engine.
// brand+model+engine_code identifies a record; brand+model+type in the
// type-keyed configuration.
type VehicleRecord struct {
	Brand        string `json:"brand" yaml:"brand"`
	Model        string `json:"model" yaml:"model"`
	Generation   string `json:"generation,omitempty" yaml:"generation,omitempty"`
	Type         string `json:"type,omitempty" yaml:"type,omitempty"`
	EngineCode   string `json:"engine_code" yaml:"engine_code"`
	EngineName   string `json:"engine_name,omitempty" yaml:"engine_name,omitempty"`
	FuelType     string `json:"fuel_type,omitempty" yaml:"fuel_type,omitempty"`
	Displacement string `json:"displacement,omitempty" yaml:"displacement,omitempty"`
	Power        string `json:"power,omitempty" yaml:"power,omitempty"`
}

// Extraction field names. These are the only names the pattern config and
// the required-set config may reference.
const (
	FieldBrand      = "brand"
	FieldModel      = "model"
	FieldGeneration = "generation"
	FieldEngine     = "engine"
	FieldEngineCode = "engine_code"
	FieldType       = "type"
)

// FieldOrder is the fixed iteration order for the primary extraction pass.
var FieldOrder = []string{
	FieldBrand, FieldModel, FieldGeneration, FieldEngine, FieldEngineCode, FieldType,
}

// KnownField reports whether name is a recognised extraction field.
func KnownField(name string) bool {
	for _, f := range FieldOrder {
		if f == name {
			return true
		}
	}
	return false
}

// ProductID is an opaque product identifier. Senders deliver it either as
// a JSON integer or a string; it is treated as text everywhere downstream.
type ProductID string

func (p *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if data[0] == '"' {
		if len(data) < 2 || data[len(data)-1] != '"' {
			return fmt.Errorf("product id: malformed string %q", data)
		}
		*p = ProductID(data[1 : len(data)-1])
		return nil
	}
	// Numeric literal: keep its textual form.
	for _, c := range data {
		if (c < '0' || c > '9') && c != '-' {
			return fmt.Errorf("product id: unsupported literal %q", data)
		}
	}
	*p = ProductID(data)
	return nil
}

// InboundEvent is one authenticated webhook payload. It lives for the
// duration of a single request and is never persisted.
type InboundEvent struct {
	ProductID ProductID `json:"id"`
	Title     string    `json:"title"`
}

// TaggedEvent is published to NATS after a product has been tagged and
// dispatched. Downstream consumers (cmd/audit) use it for reconciliation.
type TaggedEvent struct {
	ProductID string    `json:"product_id"`
	Tags      []string  `json:"tags"`
	Matched   bool      `json:"matched"` // true if tags came from a catalog record
	TaggedAt  time.Time `json:"tagged_at"`
}
