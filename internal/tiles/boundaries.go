package tiles

import (
	"encoding/json"
	"fmt"
	"os"
)

// BoundaryFeature is one district polygon with the properties the map and
// tooltips rely on.
type BoundaryFeature struct {
	Type       string          `json:"type"`
	ID         any             `json:"id,omitempty"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// BoundaryCollection is a GeoJSON FeatureCollection of district polygons.
type BoundaryCollection struct {
	Type     string            `json:"type"`
	Features []BoundaryFeature `json:"features"`
}

// LoadBoundaries reads and validates the districts GeoJSON. Every feature
// must carry a numeric district id, a name, and a borough id, since the
// hover layer and the cluster join key off them.
func LoadBoundaries(path string) (*BoundaryCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading boundaries: %w", err)
	}
	var fc BoundaryCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing boundaries: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("boundaries: expected FeatureCollection, got %q", fc.Type)
	}
	for i, f := range fc.Features {
		if !hasNumeric(f.Properties, "no_qr") {
			return nil, fmt.Errorf("boundaries: feature %d missing numeric no_qr", i)
		}
		if !hasString(f.Properties, "nom_qr") {
			return nil, fmt.Errorf("boundaries: feature %d missing nom_qr", i)
		}
		if !hasNumeric(f.Properties, "no_arr") {
			return nil, fmt.Errorf("boundaries: feature %d missing numeric no_arr", i)
		}
	}
	return &fc, nil
}

func hasNumeric(props map[string]any, key string) bool {
	v, ok := props[key]
	if !ok {
		return false
	}
	switch v.(type) {
	case float64, int, int64:
		return true
	}
	return false
}

func hasString(props map[string]any, key string) bool {
	v, ok := props[key]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s != ""
}
