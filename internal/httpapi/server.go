// Package httpapi exposes the dashboard over HTTP: filter mutation, the
// chart views, map styling artifacts, model inference, and operational
// endpoints. View errors ride inside the payloads rather than as transport
// errors, so a failing view renders inline instead of blanking the page.
package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/sleepysunflower/traffic-collisions/internal/dashboard"
	"github.com/sleepysunflower/traffic-collisions/internal/diag"
	"github.com/sleepysunflower/traffic-collisions/internal/engine"
	"github.com/sleepysunflower/traffic-collisions/internal/filters"
	"github.com/sleepysunflower/traffic-collisions/internal/labels"
	"github.com/sleepysunflower/traffic-collisions/internal/mapview"
	"github.com/sleepysunflower/traffic-collisions/internal/model"
	"github.com/sleepysunflower/traffic-collisions/internal/monitoring/logging"
	"github.com/sleepysunflower/traffic-collisions/internal/monitoring/metrics"
	"github.com/sleepysunflower/traffic-collisions/internal/tiles"
)

// ModelPaths locates one model's artifacts on disk.
type ModelPaths struct {
	Weights    string
	Meta       string
	Importance string
	Metrics    string
}

// Config wires the server's collaborators.
type Config struct {
	Engine     *engine.Engine
	Filters    *filters.Store
	Dashboard  *dashboard.Coordinator
	Tiles      *tiles.Store
	Boundaries *tiles.BoundaryCollection
	Dict       *labels.Loader
	Sessions   *model.Cache
	Occurrence ModelPaths
	Severity   ModelPaths
	Metrics    *metrics.Metrics
	Diag       *diag.Recorder
	Log        logging.Logger
}

// Server is the HTTP surface.
type Server struct {
	cfg Config
	log logging.Logger

	hoverMu sync.Mutex
	hover   mapview.HoverState

	occurrence modelState
	severity   modelState
}

// NewServer builds the server and its routes.
func NewServer(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logging.NopLogger{}
	}
	s := &Server{cfg: cfg, log: log.Named("http")}
	s.occurrence.paths = cfg.Occurrence
	s.severity.paths = cfg.Severity
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/filters", s.getFilters)
	mux.HandleFunc("PATCH /api/v1/filters", s.patchFilters)
	mux.HandleFunc("DELETE /api/v1/filters", s.clearFilters)
	mux.HandleFunc("DELETE /api/v1/filters/{dimension}", s.clearFilterKey)

	mux.HandleFunc("GET /api/v1/views/trend", s.getTrend)
	mux.HandleFunc("GET /api/v1/views/heatmap", s.getHeatmap)
	mux.HandleFunc("GET /api/v1/views/distribution", s.getDistribution)
	mux.HandleFunc("GET /api/v1/variables", s.getVariables)

	mux.HandleFunc("GET /api/v1/map/encoding", s.getEncoding)
	mux.HandleFunc("GET /api/v1/map/layer-filter", s.getLayerFilter)
	mux.HandleFunc("GET /api/v1/map/clusters/style", s.getClusterStyle)
	mux.HandleFunc("GET /api/v1/map/clusters/legend", s.getClusterLegend)
	mux.HandleFunc("GET /api/v1/map/boundaries", s.getBoundaries)
	mux.HandleFunc("POST /api/v1/map/features", s.postFeatures)
	mux.HandleFunc("GET /api/v1/map/hover", s.getHover)
	mux.HandleFunc("POST /api/v1/map/hover/enter", s.postHoverEnter)
	mux.HandleFunc("POST /api/v1/map/hover/leave", s.postHoverLeave)

	mux.HandleFunc("GET /api/v1/dictionary", s.getDictionary)
	mux.HandleFunc("GET /api/v1/themes/{name}", s.getTheme)

	mux.HandleFunc("POST /api/v1/models/occurrence/predict", s.postOccurrencePredict)
	mux.HandleFunc("POST /api/v1/models/severity/predict", s.postSeverityPredict)
	mux.HandleFunc("GET /api/v1/models/{model}/prediction", s.getPrediction)
	mux.HandleFunc("GET /api/v1/models/{model}/progress", s.getModelProgress)
	mux.HandleFunc("GET /api/v1/models/{model}/importance", s.getModelImportance)
	mux.HandleFunc("GET /api/v1/models/{model}/metrics", s.getModelMetrics)

	mux.HandleFunc("GET /healthz", s.getHealth)
	mux.HandleFunc("GET /api/v1/diag", s.getDiag)
	if s.cfg.Metrics != nil {
		mux.Handle("GET /metrics", s.cfg.Metrics.Handler())
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
