package model

import (
	"fmt"
	"math"
)

// PredictOccurrence builds the occurrence feature vector, runs inference,
// and undoes the log1p target transform when the model was fit on a log
// scale, flooring the count at zero.
func PredictOccurrence(s *Session, meta *OccurrenceMeta, form OccurrenceForm) (float64, error) {
	x := BuildOccurrenceVector(meta, form)
	y, err := s.Run(x)
	if err != nil {
		return 0, err
	}
	if meta.IsLogTarget {
		y = math.Max(0, math.Expm1(y))
	}
	return y, nil
}

// SeverityPrediction is the severity model's output: the raw regression
// score plus its ordinal class.
type SeverityPrediction struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// PredictSeverity builds the severity design vector, runs inference, and
// maps the score onto the ordinal class labels.
func PredictSeverity(s *Session, meta *SeverityMeta, form SeverityForm) (*SeverityPrediction, error) {
	x := BuildSeverityVector(meta, form)
	if len(x) == 0 {
		return nil, fmt.Errorf("severity design vector is empty")
	}
	y, err := s.Run(x)
	if err != nil {
		return nil, err
	}
	return &SeverityPrediction{Score: y, Label: ScoreToClass(meta, y)}, nil
}

// ScoreToClass walks the ascending thresholds: the class index is the count
// of thresholds at or below the score. With thresholds [0.5 1.5 2.5] and
// labels [Low Mid High Severe], 0.4 is Low, 0.5 is Mid, 2.6 is Severe.
func ScoreToClass(meta *SeverityMeta, y float64) string {
	idx := 0
	for idx < len(meta.Thresholds) && y >= meta.Thresholds[idx] {
		idx++
	}
	if idx < len(meta.SeverityLabels) {
		return meta.SeverityLabels[idx]
	}
	return fmt.Sprintf("Class %d", idx)
}
