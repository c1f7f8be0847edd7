package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// SeverityMetrics is the precomputed evaluation sidecar for the severity
// model, passed through to the dashboard as-is.
type SeverityMetrics struct {
	Labels          []string           `json:"labels,omitempty"`
	ConfusionMatrix [][]int            `json:"confusion_matrix,omitempty"`
	PerClass        []PerClassMetrics  `json:"per_class,omitempty"`
	Overall         map[string]float64 `json:"overall,omitempty"`
}

// PerClassMetrics is one class row of the evaluation report.
type PerClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// LoadSeverityMetrics reads the metrics JSON sidecar.
func LoadSeverityMetrics(path string) (*SeverityMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading severity metrics: %w", err)
	}
	var m SeverityMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing severity metrics: %w", err)
	}
	return &m, nil
}

// OccurrenceMetrics are the scalar regression scores (MAE, RMSE, R2 for the
// base and final fits).
type OccurrenceMetrics map[string]float64

// LoadOccurrenceMetrics reads the occurrence metrics JSON sidecar.
func LoadOccurrenceMetrics(path string) (OccurrenceMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading occurrence metrics: %w", err)
	}
	var m OccurrenceMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing occurrence metrics: %w", err)
	}
	return m, nil
}
