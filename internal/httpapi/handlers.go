package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sleepysunflower/traffic-collisions/internal/charts"
	"github.com/sleepysunflower/traffic-collisions/internal/filters"
	"github.com/sleepysunflower/traffic-collisions/internal/labels"
	"github.com/sleepysunflower/traffic-collisions/internal/mapview"
	"github.com/sleepysunflower/traffic-collisions/internal/monitoring/logging"
	"github.com/sleepysunflower/traffic-collisions/internal/theme"
)

func (s *Server) getFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Filters.Snapshot())
}

func (s *Server) patchFilters(w http.ResponseWriter, r *http.Request) {
	var p filters.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid patch body")
		return
	}
	s.cfg.Filters.SetFilters(p)
	writeJSON(w, http.StatusOK, s.cfg.Filters.Snapshot())
}

func (s *Server) clearFilters(w http.ResponseWriter, r *http.Request) {
	s.cfg.Filters.ClearAll()
	writeJSON(w, http.StatusOK, s.cfg.Filters.Snapshot())
}

func (s *Server) clearFilterKey(w http.ResponseWriter, r *http.Request) {
	d, ok := filters.ParseDimension(r.PathValue("dimension"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown filter dimension")
		return
	}
	s.cfg.Filters.ClearKey(d)
	writeJSON(w, http.StatusOK, s.cfg.Filters.Snapshot())
}

func (s *Server) getTrend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Dashboard.Trend())
}

func (s *Server) getHeatmap(w http.ResponseWriter, r *http.Request) {
	if mode := r.URL.Query().Get("mode"); mode != "" {
		m := charts.HeatmapMode(mode)
		if m != charts.HeatmapByHour && m != charts.HeatmapByMonth {
			writeError(w, http.StatusBadRequest, "mode must be hour or month")
			return
		}
		s.cfg.Dashboard.SetHeatmapMode(r.Context(), m)
	}
	writeJSON(w, http.StatusOK, s.cfg.Dashboard.Heatmap())
}

func (s *Server) getDistribution(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("variable"); v != "" && v != s.cfg.Dashboard.Variable() {
		s.cfg.Dashboard.SetVariable(r.Context(), v)
	}
	writeJSON(w, http.StatusOK, s.cfg.Dashboard.Distribution())
}

type variableOption struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

func (s *Server) getVariables(w http.ResponseWriter, r *http.Request) {
	var dict *labels.Dictionary
	if s.cfg.Dict != nil {
		dict, _ = s.cfg.Dict.Load()
	}
	out := make([]variableOption, 0, len(labels.VarOptions))
	for _, v := range labels.VarOptions {
		out = append(out, variableOption{Name: v, Label: dict.VariableLabel(v)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getEncoding(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Dashboard.Encoding())
}

func (s *Server) getLayerFilter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"source_layer": s.cfg.Tiles.SourceLayer(),
		"filter":       s.cfg.Dashboard.LayerFilter(),
	})
}

func (s *Server) getClusterStyle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapview.BuildClusterStyle())
}

func (s *Server) getClusterLegend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapview.ClusterLegend())
}

func (s *Server) getBoundaries(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Boundaries == nil {
		writeError(w, http.StatusNotFound, "boundaries not loaded")
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Boundaries)
}

// postFeatures receives the renderer's settled feature sample and wakes any
// pending color-encoding retry.
func (s *Server) postFeatures(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Features []mapview.Feature `json:"features"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid features body")
		return
	}
	s.cfg.Tiles.ReportFeatures(body.Features)
	writeJSON(w, http.StatusOK, map[string]int{"rendered": s.cfg.Tiles.RenderedCount()})
}

type hoverBody struct {
	ID         int64          `json:"id"`
	Properties map[string]any `json:"properties"`
}

type hoverResponse struct {
	Transition mapview.HoverTransition `json:"transition"`
	Tooltip    []mapview.TooltipRow    `json:"tooltip,omitempty"`
}

func (s *Server) getHover(w http.ResponseWriter, r *http.Request) {
	s.hoverMu.Lock()
	id, hovered := s.hover.Current()
	tooltip := s.hover.Tooltip()
	s.hoverMu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"hovered": hovered,
		"id":      id,
		"tooltip": tooltip,
	})
}

func (s *Server) postHoverEnter(w http.ResponseWriter, r *http.Request) {
	var body hoverBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid hover body")
		return
	}
	s.hoverMu.Lock()
	tr := s.hover.Enter(body.ID, body.Properties)
	tooltip := s.hover.Tooltip()
	s.hoverMu.Unlock()
	writeJSON(w, http.StatusOK, hoverResponse{Transition: tr, Tooltip: tooltip})
}

func (s *Server) postHoverLeave(w http.ResponseWriter, r *http.Request) {
	s.hoverMu.Lock()
	tr := s.hover.Leave()
	s.hoverMu.Unlock()
	writeJSON(w, http.StatusOK, hoverResponse{Transition: tr})
}

func (s *Server) getDictionary(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Dict == nil {
		writeError(w, http.StatusNotFound, "dictionary not configured")
		return
	}
	dict, err := s.cfg.Dict.Load()
	if err != nil {
		s.log.Warn("dictionary load failed", logging.Err(err))
		writeError(w, http.StatusNotFound, "dictionary unavailable")
		return
	}
	writeJSON(w, http.StatusOK, dict.Export())
}

func (s *Server) getTheme(w http.ResponseWriter, r *http.Request) {
	doc := theme.Get(r.PathValue("name"))
	if doc == nil {
		writeError(w, http.StatusNotFound, "unknown theme")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Engine.Init(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded", "engine": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getDiag(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Diag == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Diag.Events())
}
