package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a Specification from a YAML or JSON file, chosen by
// extension (.yaml/.yml vs .json).
func LoadFile(path string) (Specification, error) {
	var s Specification

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read specification: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse specification yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse specification json: %w", err)
		}
	default:
		return s, fmt.Errorf("unsupported specification format: %s", filepath.Ext(path))
	}

	return s, nil
}
