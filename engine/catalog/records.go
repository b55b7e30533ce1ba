package catalog

import (
	"fmt"
	"os"

	"github.com/fitmentworks/fitment-engine/engine/domain"
	"gopkg.in/yaml.v3"
)

// recordsFile is the YAML shape cmd/seed consumes.
type recordsFile struct {
	Vehicles []domain.VehicleRecord `yaml:"vehicles"`
}

// LoadRecords reads catalog records from a YAML file. Records missing any
// part of the brand+model+engine_code key are rejected, since they could
// never be matched.
func LoadRecords(path string) ([]domain.VehicleRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var f recordsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	for i, r := range f.Vehicles {
		if r.Brand == "" || r.Model == "" || r.EngineCode == "" {
			return nil, fmt.Errorf("catalog record %d: brand, model, and engine_code are required", i)
		}
	}
	return f.Vehicles, nil
}
