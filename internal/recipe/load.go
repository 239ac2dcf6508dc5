package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a recipe from a .json, .yaml or .yml file.
func LoadFile(path string) (*Recipe, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the CLI user
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported recipe format %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// ParseJSON decodes a JSON recipe.
func ParseJSON(data []byte) (*Recipe, error) {
	var r Recipe
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("invalid recipe JSON: %w", err)
	}
	normalize(&r)
	return &r, nil
}

// ParseYAML decodes a YAML recipe.
func ParseYAML(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid recipe YAML: %w", err)
	}
	normalize(&r)
	return &r, nil
}

// normalize converts json.Number params to float64 and fills missing step IDs.
func normalize(r *Recipe) {
	for i := range r.Steps {
		s := &r.Steps[i]
		if s.ID == "" {
			s.ID = fmt.Sprintf("step-%d", i+1)
		}
		for k, v := range s.Params {
			if n, ok := v.(json.Number); ok {
				if f, err := n.Float64(); err == nil {
					s.Params[k] = f
				} else {
					s.Params[k] = n.String()
				}
			}
		}
	}
}
