// Package dashboard coordinates the filter-driven views: it subscribes to
// the filter store and recomputes the trend, heatmap, distribution and map
// color encoding on every selection change. Each view owns its own result
// and error slot so one failing view never blanks the others, and each
// commit is guarded by a generation counter so the answer to an out-of-date
// selection can never overwrite a newer one.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/sleepysunflower/traffic-collisions/internal/charts"
	"github.com/sleepysunflower/traffic-collisions/internal/diag"
	"github.com/sleepysunflower/traffic-collisions/internal/engine"
	"github.com/sleepysunflower/traffic-collisions/internal/filters"
	"github.com/sleepysunflower/traffic-collisions/internal/labels"
	"github.com/sleepysunflower/traffic-collisions/internal/mapview"
	"github.com/sleepysunflower/traffic-collisions/internal/monitoring/logging"
	"github.com/sleepysunflower/traffic-collisions/internal/monitoring/metrics"
	"github.com/sleepysunflower/traffic-collisions/internal/query"
	"github.com/sleepysunflower/traffic-collisions/internal/tiles"
)

// View names used for generations, metrics labels and diagnostics.
const (
	ViewTrend        = "trend"
	ViewHeatmap      = "heatmap"
	ViewDistribution = "distribution"
	ViewEncoding     = "encoding"
)

// idleWait bounds how long an encoding retry waits for the renderer.
const idleWait = 3 * time.Second

// State is one view's current result. Data is nil until the first
// successful refresh; Err carries the latest failure as a display string.
type State[T any] struct {
	Data    T         `json:"data"`
	Err     string    `json:"error,omitempty"`
	Updated time.Time `json:"updated"`
}

// Config seeds the coordinator's view parameters.
type Config struct {
	// Variable is the initially selected categorical variable.
	Variable string
	// HeatmapMode is the initial second heatmap axis.
	HeatmapMode charts.HeatmapMode
}

// Coordinator owns the per-view states and their refresh pipeline.
type Coordinator struct {
	log   logging.Logger
	met   *metrics.Metrics
	eng   *engine.Engine
	store *filters.Store
	tiles *tiles.Store
	dict  *labels.Loader
	rec   *diag.Recorder

	unsubscribe func()

	mu          sync.Mutex
	gens        map[string]uint64
	variable    string
	heatmapMode charts.HeatmapMode
	layerFilter []any
	retry       mapview.RetryGate

	trend        State[*charts.Trend]
	heatmap      State[*charts.Heatmap]
	distribution State[*charts.Distribution]
	encoding     State[*mapview.Encoding]
}

// New wires a coordinator to its collaborators and subscribes it to the
// filter store. The caller owns Close.
func New(cfg Config, eng *engine.Engine, store *filters.Store, ts *tiles.Store,
	dict *labels.Loader, met *metrics.Metrics, rec *diag.Recorder, log logging.Logger) *Coordinator {
	if log == nil {
		log = logging.NopLogger{}
	}
	if cfg.Variable == "" {
		cfg.Variable = labels.VarOptions[0]
	}
	if cfg.HeatmapMode == "" {
		cfg.HeatmapMode = charts.HeatmapByHour
	}
	c := &Coordinator{
		log:         log.Named("dashboard"),
		met:         met,
		eng:         eng,
		store:       store,
		tiles:       ts,
		dict:        dict,
		rec:         rec,
		gens:        map[string]uint64{},
		variable:    cfg.Variable,
		heatmapMode: cfg.HeatmapMode,
		layerFilter: query.LayerFilter(filters.Selection{}),
	}
	c.unsubscribe = store.Subscribe(func(sel filters.Selection) {
		go c.refreshAll(context.Background(), sel)
	})
	return c
}

// Close detaches the coordinator from the filter store.
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// Refresh recomputes every view against the current selection. Called once
// at startup; afterwards the store subscription drives it.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.refreshAll(ctx, c.store.Snapshot())
}

// bump starts a new generation for a view and returns it. Any in-flight
// compute holding an older generation loses the commit race.
func (c *Coordinator) bump(view string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[view]++
	return c.gens[view]
}

func (c *Coordinator) currentGen(view string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[view]
}

// stale reports and records a lost commit race.
func (c *Coordinator) stale(view string) {
	if c.met != nil {
		c.met.StaleDiscards.WithLabelValues(view).Inc()
	}
	if c.rec != nil {
		c.rec.Record("stale_discard", "discarded out-of-date result", map[string]any{"view": view})
	}
	c.log.Debug("stale result discarded", logging.String("view", view))
}

func (c *Coordinator) refreshAll(ctx context.Context, sel filters.Selection) {
	pred := query.Build(sel)

	c.mu.Lock()
	c.layerFilter = query.LayerFilter(sel)
	c.retry.Reset()
	variable := c.variable
	mode := c.heatmapMode
	c.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); c.refreshTrend(ctx, pred) }()
	go func() { defer wg.Done(); c.refreshHeatmap(ctx, pred, mode) }()
	go func() { defer wg.Done(); c.refreshDistribution(ctx, pred, variable) }()
	wg.Wait()

	// The encoding depends on the distribution's category keys.
	c.refreshEncoding(ctx, variable)
}

func (c *Coordinator) observe(view string, start time.Time, err error) {
	if c.met == nil {
		return
	}
	c.met.ViewRefreshes.WithLabelValues(view).Inc()
	c.met.QueryDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
	if err != nil {
		kind := "query"
		switch {
		case engine.IsDataUnavailable(err):
			kind = "data_unavailable"
		case engine.IsSchemaMismatch(err):
			kind = "schema_mismatch"
		}
		c.met.QueryErrors.WithLabelValues(view, kind).Inc()
	}
}

func (c *Coordinator) refreshTrend(ctx context.Context, pred query.Predicate) {
	gen := c.bump(ViewTrend)
	start := time.Now()
	data, err := charts.ComputeTrend(ctx, c.eng, pred)
	c.observe(ViewTrend, start, err)
	c.commitTrend(gen, data, err)
}

// commitTrend installs a trend result unless a newer refresh started since
// gen was taken. Reports whether the commit won.
func (c *Coordinator) commitTrend(gen uint64, data *charts.Trend, err error) bool {
	c.mu.Lock()
	if gen != c.gens[ViewTrend] {
		c.mu.Unlock()
		c.stale(ViewTrend)
		return false
	}
	c.trend = commit(c.trend, data, err)
	c.mu.Unlock()
	return true
}

func (c *Coordinator) refreshHeatmap(ctx context.Context, pred query.Predicate, mode charts.HeatmapMode) {
	gen := c.bump(ViewHeatmap)
	start := time.Now()
	data, err := charts.ComputeHeatmap(ctx, c.eng, pred, mode)
	c.observe(ViewHeatmap, start, err)
	c.commitHeatmap(gen, data, err)
}

func (c *Coordinator) commitHeatmap(gen uint64, data *charts.Heatmap, err error) bool {
	c.mu.Lock()
	if gen != c.gens[ViewHeatmap] {
		c.mu.Unlock()
		c.stale(ViewHeatmap)
		return false
	}
	c.heatmap = commit(c.heatmap, data, err)
	c.mu.Unlock()
	return true
}

func (c *Coordinator) refreshDistribution(ctx context.Context, pred query.Predicate, variable string) {
	gen := c.bump(ViewDistribution)
	start := time.Now()
	var dict *labels.Dictionary
	if c.dict != nil {
		dict, _ = c.dict.Load() // missing dictionary degrades to raw codes
	}
	data, err := charts.ComputeDistribution(ctx, c.eng, pred, variable, dict)
	c.observe(ViewDistribution, start, err)
	c.commitDistribution(gen, data, err)
}

func (c *Coordinator) commitDistribution(gen uint64, data *charts.Distribution, err error) bool {
	c.mu.Lock()
	if gen != c.gens[ViewDistribution] {
		c.mu.Unlock()
		c.stale(ViewDistribution)
		return false
	}
	c.distribution = commit(c.distribution, data, err)
	c.mu.Unlock()
	return true
}

// refreshEncoding recomputes the map color encoding from the distribution's
// categories and the rendered-feature sample, retrying once after the
// renderer's idle signal when no features were materialized yet.
func (c *Coordinator) refreshEncoding(ctx context.Context, variable string) {
	gen := c.bump(ViewEncoding)

	for {
		c.mu.Lock()
		var keys []string
		if c.distribution.Data != nil {
			keys = c.distribution.Data.Keys()
		}
		c.mu.Unlock()

		enc := mapview.Refresh(mapview.RefreshInput{
			Field:         labels.DatasetColumn(variable),
			AggregateKeys: keys,
			SchemaKeys:    c.tiles.SchemaKeys(),
			Features:      c.tiles.Sample(mapview.SampleLimit),
		})

		rendered := c.tiles.RenderedCount()
		c.mu.Lock()
		if gen != c.gens[ViewEncoding] {
			c.mu.Unlock()
			c.stale(ViewEncoding)
			return
		}
		retry := rendered == 0 && c.retry.ShouldRetry(rendered)
		if !retry {
			c.encoding = State[*mapview.Encoding]{Data: enc, Updated: time.Now()}
			c.mu.Unlock()
			if enc.State == mapview.StateNeutralFallback && c.rec != nil {
				c.rec.Record("missing_variable", "variable absent from tile schema",
					map[string]any{"variable": enc.MissingVariable, "schema": enc.SchemaKeys})
			}
			return
		}
		c.mu.Unlock()

		if c.rec != nil {
			c.rec.Record("encode_retry", "no rendered features, waiting for idle",
				map[string]any{"variable": variable})
		}
		select {
		case <-c.tiles.Idle():
		case <-time.After(idleWait):
		case <-ctx.Done():
			return
		}
	}
}

func commit[T any](prev State[T], data T, err error) State[T] {
	if err != nil {
		// Keep the previous data visible; only the error slot changes.
		prev.Err = err.Error()
		return prev
	}
	return State[T]{Data: data, Updated: time.Now()}
}

// SetVariable changes the selected categorical variable and recomputes the
// dependent views.
func (c *Coordinator) SetVariable(ctx context.Context, v string) {
	c.mu.Lock()
	c.variable = v
	c.retry.Reset()
	c.mu.Unlock()
	pred := query.Build(c.store.Snapshot())
	c.refreshDistribution(ctx, pred, v)
	c.refreshEncoding(ctx, v)
}

// SetHeatmapMode switches the heatmap's second axis and recomputes it.
func (c *Coordinator) SetHeatmapMode(ctx context.Context, m charts.HeatmapMode) {
	c.mu.Lock()
	c.heatmapMode = m
	c.mu.Unlock()
	c.refreshHeatmap(ctx, query.Build(c.store.Snapshot()), m)
}

// Variable returns the selected categorical variable.
func (c *Coordinator) Variable() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.variable
}

// Trend returns the trend view state.
func (c *Coordinator) Trend() State[*charts.Trend] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trend
}

// Heatmap returns the heatmap view state.
func (c *Coordinator) Heatmap() State[*charts.Heatmap] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.heatmap
}

// Distribution returns the distribution view state.
func (c *Coordinator) Distribution() State[*charts.Distribution] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.distribution
}

// Encoding returns the map color-encoding state.
func (c *Coordinator) Encoding() State[*mapview.Encoding] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encoding
}

// LayerFilter returns the tile-layer filter expression for the selection.
func (c *Coordinator) LayerFilter() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layerFilter
}
