// Package tiles tracks what the client-side tile renderer exposes: the
// tileset's vector-layer schema and a bounded sample of currently rendered
// point features. The schema loads from the tileset metadata file; rendered
// features are reported by the frontend, since only the renderer knows what
// is materialized.
package tiles

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sleepysunflower/traffic-collisions/internal/mapview"
)

// VectorLayer describes one layer of a tileset's metadata.
type VectorLayer struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// Metadata is the tileset metadata document (the PMTiles/TileJSON shape).
type Metadata struct {
	VectorLayers []VectorLayer `json:"vector_layers"`
}

// LoadMetadata reads a tileset metadata JSON file.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tileset metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing tileset metadata: %w", err)
	}
	return &m, nil
}

// Store holds the incidents layer schema and the latest rendered-feature
// sample. It is safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	sourceLayer string
	schemaKeys []string
	features   []mapview.Feature
	idleChans  []chan struct{}
}

// NewStore returns an empty store; the schema arrives via SetMetadata and
// features via ReportFeatures.
func NewStore() *Store { return &Store{} }

// SetMetadata installs the schema from the first vector layer, matching how
// the tileset is built (one incidents layer per archive).
func (s *Store) SetMetadata(m *Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(m.VectorLayers) == 0 {
		return
	}
	layer := m.VectorLayers[0]
	s.sourceLayer = layer.ID
	s.schemaKeys = s.schemaKeys[:0]
	for k := range layer.Fields {
		s.schemaKeys = append(s.schemaKeys, k)
	}
}

// SourceLayer returns the incidents source-layer id, "" before metadata.
func (s *Store) SourceLayer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceLayer
}

// SchemaKeys returns the property names the tileset schema declares.
func (s *Store) SchemaKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.schemaKeys...)
}

// ReportFeatures replaces the rendered-feature sample and wakes everything
// blocked on the idle signal. The frontend posts this after the renderer
// settles.
func (s *Store) ReportFeatures(features []mapview.Feature) {
	s.mu.Lock()
	s.features = features
	waiters := s.idleChans
	s.idleChans = nil
	s.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}

// Sample returns up to limit rendered features.
func (s *Store) Sample(limit int) []mapview.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.features)
	if limit > 0 && n > limit {
		n = limit
	}
	return append([]mapview.Feature(nil), s.features[:n]...)
}

// RenderedCount returns how many features the renderer reported.
func (s *Store) RenderedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.features)
}

// Idle returns a channel closed on the next feature report. The bounded
// retry in the color refresh waits on it instead of polling.
func (s *Store) Idle() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.idleChans = append(s.idleChans, ch)
	return ch
}
