// Package model loads the collision regression artifacts and runs on-device
// inference: the occurrence count model and the severity class model. Each
// model ships a metadata JSON describing its input layout, a serialized ONNX
// weights file, and optional importance/metrics sidecars.
package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MetadataError marks a malformed or unusable metadata document.
type MetadataError struct {
	Model string
	Err   error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("%s metadata: %v", e.Model, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// OccurrenceMeta describes the occurrence count model's flat feature list.
type OccurrenceMeta struct {
	ModelName   string
	Target      string
	IsLogTarget bool
	Features    []string
}

// occurrence metadata files vary in their field spellings across training
// runs; each alias list is tried in order.
type rawOccurrenceMeta struct {
	ModelName string `json:"model_name"`
	Name      string `json:"name"`
	Model     string `json:"model"`

	Target    string `json:"target"`
	YName     string `json:"y_name"`
	Dependent string `json:"dependent"`

	IsLogTarget *bool `json:"is_log_target"`
	LogTarget   *bool `json:"log_target"`

	Features      []string `json:"features"`
	FeatureNames  []string `json:"feature_names"`
	InputFeatures []string `json:"input_features"`
	Columns       []string `json:"columns"`
}

// ParseOccurrenceMeta decodes occurrence model metadata, accepting the field
// aliases older exports used. A metadata document with no feature list is
// rejected: without the declared ordering no vector can be built.
func ParseOccurrenceMeta(data []byte) (*OccurrenceMeta, error) {
	var raw rawOccurrenceMeta
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MetadataError{Model: "occurrence", Err: err}
	}

	m := &OccurrenceMeta{
		ModelName: firstNonEmpty(raw.ModelName, raw.Name, raw.Model),
		Target:    firstNonEmpty(raw.Target, raw.YName, raw.Dependent),
	}
	for _, fs := range [][]string{raw.Features, raw.FeatureNames, raw.InputFeatures, raw.Columns} {
		if len(fs) > 0 {
			m.Features = fs
			break
		}
	}
	if raw.IsLogTarget != nil {
		m.IsLogTarget = *raw.IsLogTarget
	} else if raw.LogTarget != nil {
		m.IsLogTarget = *raw.LogTarget
	}

	if len(m.Features) == 0 {
		return nil, &MetadataError{Model: "occurrence", Err: fmt.Errorf("no feature list")}
	}
	return m, nil
}

// SeverityMeta describes the severity model's numeric and categorical
// inputs plus the ordinal decision thresholds.
type SeverityMeta struct {
	ModelName      string               `json:"model_name"`
	NumCols        []string             `json:"num_cols"`
	NumFill        map[string]*float64  `json:"num_fill"`
	CatCols        []string             `json:"cat_cols"`
	CatCategories  map[string][]string  `json:"cat_categories"`
	Thresholds     []float64            `json:"thresholds"`
	SeverityLabels []string             `json:"severity_labels"`
	InputName      string               `json:"input_name"`
}

// ParseSeverityMeta decodes severity model metadata. Thresholds must be
// sorted ascending; an unsorted list means the artifact is corrupt and is
// rejected rather than silently reordered.
func ParseSeverityMeta(data []byte) (*SeverityMeta, error) {
	var m SeverityMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &MetadataError{Model: "severity", Err: err}
	}
	if len(m.NumCols) == 0 && len(m.CatCols) == 0 {
		return nil, &MetadataError{Model: "severity", Err: fmt.Errorf("no input columns")}
	}
	if !sort.Float64sAreSorted(m.Thresholds) {
		return nil, &MetadataError{Model: "severity",
			Err: fmt.Errorf("thresholds not sorted ascending: %v", m.Thresholds)}
	}
	if len(m.SeverityLabels) > 0 && len(m.SeverityLabels) != len(m.Thresholds)+1 {
		return nil, &MetadataError{Model: "severity",
			Err: fmt.Errorf("%d labels for %d thresholds", len(m.SeverityLabels), len(m.Thresholds))}
	}
	return &m, nil
}

// VectorWidth is the severity design vector length: one slot per numeric
// column plus the one-hot width of every categorical column. A categorical
// column with no declared category list contributes a single numeric slot.
func (m *SeverityMeta) VectorWidth() int {
	w := len(m.NumCols)
	for _, col := range m.CatCols {
		if cats := m.CatCategories[col]; len(cats) > 0 {
			w += len(cats)
		} else {
			w++
		}
	}
	return w
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
