package tiles

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sleepysunflower/traffic-collisions/internal/mapview"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadMetadata(t *testing.T) {
	path := writeFile(t, "meta.json", `{
		"vector_layers": [
			{"id": "incidents", "fields": {"GRAVITE": "String", "AN": "Number"}}
		]
	}`)
	m, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if len(m.VectorLayers) != 1 || m.VectorLayers[0].ID != "incidents" {
		t.Fatalf("unexpected layers: %+v", m.VectorLayers)
	}

	s := NewStore()
	s.SetMetadata(m)
	if got := s.SourceLayer(); got != "incidents" {
		t.Fatalf("SourceLayer = %q", got)
	}
	keys := s.SchemaKeys()
	if len(keys) != 2 {
		t.Fatalf("SchemaKeys = %v", keys)
	}
}

func TestStoreSampleAndCount(t *testing.T) {
	s := NewStore()
	if s.RenderedCount() != 0 {
		t.Fatal("expected empty store")
	}
	s.ReportFeatures([]mapview.Feature{
		{"GRAVITE": "Mortel"},
		{"GRAVITE": "Leger"},
		{"GRAVITE": "Grave"},
	})
	if s.RenderedCount() != 3 {
		t.Fatalf("RenderedCount = %d", s.RenderedCount())
	}
	if got := s.Sample(2); len(got) != 2 {
		t.Fatalf("Sample(2) = %d features", len(got))
	}
	if got := s.Sample(0); len(got) != 3 {
		t.Fatalf("Sample(0) = %d features", len(got))
	}
}

func TestStoreIdleSignal(t *testing.T) {
	s := NewStore()
	ch := s.Idle()
	select {
	case <-ch:
		t.Fatal("idle fired before any report")
	default:
	}
	s.ReportFeatures(nil)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("idle never fired")
	}
	// A second report must not touch the already-consumed channel.
	s.ReportFeatures(nil)
}

func TestLoadBoundaries(t *testing.T) {
	good := `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {"no_qr": 12, "nom_qr": "Centre", "no_arr": 3},
			 "geometry": {"type": "Polygon", "coordinates": []}}
		]
	}`
	fc, err := LoadBoundaries(writeFile(t, "good.geojson", good))
	if err != nil {
		t.Fatalf("LoadBoundaries: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("features = %d", len(fc.Features))
	}

	bad := []struct {
		name string
		body string
	}{
		{"wrong type", `{"type": "Feature", "features": []}`},
		{"missing no_qr", `{"type": "FeatureCollection", "features": [
			{"type": "Feature", "properties": {"nom_qr": "X", "no_arr": 1}, "geometry": null}]}`},
		{"string no_qr", `{"type": "FeatureCollection", "features": [
			{"type": "Feature", "properties": {"no_qr": "12", "nom_qr": "X", "no_arr": 1}, "geometry": null}]}`},
		{"missing name", `{"type": "FeatureCollection", "features": [
			{"type": "Feature", "properties": {"no_qr": 12, "no_arr": 1}, "geometry": null}]}`},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadBoundaries(writeFile(t, "bad.geojson", tc.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
