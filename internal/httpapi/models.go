package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"

	"github.com/sleepysunflower/traffic-collisions/internal/model"
	"github.com/sleepysunflower/traffic-collisions/internal/monitoring/logging"
)

// modelState tracks one model's parsed metadata and last prediction. The
// displayed prediction is cleared at the start of every attempt, so a
// failure shows its error rather than a stale number.
type modelState struct {
	paths ModelPaths

	mu       sync.Mutex
	occMeta  *model.OccurrenceMeta
	sevMeta  *model.SeverityMeta
	lastPred any
	lastErr  string
}

func (m *modelState) setResult(pred any, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.lastPred = nil
		m.lastErr = err.Error()
		return
	}
	m.lastPred = pred
	m.lastErr = ""
}

func (m *modelState) clear() {
	m.mu.Lock()
	m.lastPred = nil
	m.lastErr = ""
	m.mu.Unlock()
}

func (m *modelState) result() (any, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPred, m.lastErr
}

func (m *modelState) occurrenceMeta() (*model.OccurrenceMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.occMeta != nil {
		return m.occMeta, nil
	}
	data, err := os.ReadFile(m.paths.Meta)
	if err != nil {
		return nil, err
	}
	meta, err := model.ParseOccurrenceMeta(data)
	if err != nil {
		return nil, err
	}
	m.occMeta = meta
	return meta, nil
}

func (m *modelState) severityMeta() (*model.SeverityMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sevMeta != nil {
		return m.sevMeta, nil
	}
	data, err := os.ReadFile(m.paths.Meta)
	if err != nil {
		return nil, err
	}
	meta, err := model.ParseSeverityMeta(data)
	if err != nil {
		return nil, err
	}
	m.sevMeta = meta
	return meta, nil
}

type predictionBody struct {
	Prediction any    `json:"prediction"`
	Error      string `json:"error,omitempty"`
}

func (s *Server) recordPrediction(name string, err error) {
	if s.cfg.Metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.cfg.Metrics.Predictions.WithLabelValues(name, outcome).Inc()
	}
	if err != nil {
		s.log.Warn("prediction failed", logging.String("model", name), logging.Err(err))
	}
}

type occurrencePrediction struct {
	Value float64 `json:"value"`
}

func (s *Server) postOccurrencePredict(w http.ResponseWriter, r *http.Request) {
	var form model.OccurrenceForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	s.occurrence.clear()

	pred, err := s.runOccurrence(r.Context(), form)
	s.occurrence.setResult(pred, err)
	s.recordPrediction("occurrence", err)
	if err != nil {
		writeJSON(w, http.StatusOK, predictionBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, predictionBody{Prediction: pred})
}

func (s *Server) runOccurrence(ctx context.Context, form model.OccurrenceForm) (*occurrencePrediction, error) {
	meta, err := s.occurrence.occurrenceMeta()
	if err != nil {
		return nil, err
	}
	sess, err := s.cfg.Sessions.Load(ctx, s.occurrence.paths.Weights, "")
	if err != nil {
		return nil, err
	}
	y, err := model.PredictOccurrence(sess, meta, form)
	if err != nil {
		return nil, err
	}
	return &occurrencePrediction{Value: y}, nil
}

func (s *Server) postSeverityPredict(w http.ResponseWriter, r *http.Request) {
	var form model.SeverityForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	s.severity.clear()

	pred, err := s.runSeverity(r.Context(), form)
	s.severity.setResult(pred, err)
	s.recordPrediction("severity", err)
	if err != nil {
		writeJSON(w, http.StatusOK, predictionBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, predictionBody{Prediction: pred})
}

func (s *Server) runSeverity(ctx context.Context, form model.SeverityForm) (*model.SeverityPrediction, error) {
	meta, err := s.severity.severityMeta()
	if err != nil {
		return nil, err
	}
	sess, err := s.cfg.Sessions.Load(ctx, s.severity.paths.Weights, meta.InputName)
	if err != nil {
		return nil, err
	}
	return model.PredictSeverity(sess, meta, form)
}

func (s *Server) modelByName(name string) *modelState {
	switch name {
	case "occurrence":
		return &s.occurrence
	case "severity":
		return &s.severity
	}
	return nil
}

func (s *Server) getPrediction(w http.ResponseWriter, r *http.Request) {
	m := s.modelByName(r.PathValue("model"))
	if m == nil {
		writeError(w, http.StatusNotFound, "unknown model")
		return
	}
	pred, errMsg := m.result()
	writeJSON(w, http.StatusOK, predictionBody{Prediction: pred, Error: errMsg})
}

func (s *Server) getModelProgress(w http.ResponseWriter, r *http.Request) {
	m := s.modelByName(r.PathValue("model"))
	if m == nil {
		writeError(w, http.StatusNotFound, "unknown model")
		return
	}
	download, initp := s.cfg.Sessions.Progress(m.paths.Weights)
	writeJSON(w, http.StatusOK, map[string]float64{
		"download": download.Current(),
		"init":     initp.Current(),
	})
}

func (s *Server) getModelImportance(w http.ResponseWriter, r *http.Request) {
	m := s.modelByName(r.PathValue("model"))
	if m == nil {
		writeError(w, http.StatusNotFound, "unknown model")
		return
	}
	data, err := os.ReadFile(m.paths.Importance)
	if err != nil {
		writeError(w, http.StatusNotFound, "importance table unavailable")
		return
	}
	rows, err := model.ParseImportance(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) getModelMetrics(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("model")
	m := s.modelByName(name)
	if m == nil {
		writeError(w, http.StatusNotFound, "unknown model")
		return
	}
	var (
		doc any
		err error
	)
	if name == "severity" {
		doc, err = model.LoadSeverityMetrics(m.paths.Metrics)
	} else {
		doc, err = model.LoadOccurrenceMetrics(m.paths.Metrics)
	}
	if err != nil {
		writeError(w, http.StatusNotFound, "metrics unavailable")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
