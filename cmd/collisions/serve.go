package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sleepysunflower/traffic-collisions/internal/config"
	"github.com/sleepysunflower/traffic-collisions/internal/dashboard"
	"github.com/sleepysunflower/traffic-collisions/internal/diag"
	"github.com/sleepysunflower/traffic-collisions/internal/engine"
	"github.com/sleepysunflower/traffic-collisions/internal/filters"
	"github.com/sleepysunflower/traffic-collisions/internal/httpapi"
	"github.com/sleepysunflower/traffic-collisions/internal/labels"
	"github.com/sleepysunflower/traffic-collisions/internal/model"
	"github.com/sleepysunflower/traffic-collisions/internal/monitoring/logging"
	"github.com/sleepysunflower/traffic-collisions/internal/monitoring/metrics"
	"github.com/sleepysunflower/traffic-collisions/internal/tiles"
)

const dictionaryTTL = 5 * time.Minute

func parseResolveOptions(args []string) (config.ResolveOptions, error) {
	var opts config.ResolveOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		value := func() (string, error) {
			i++
			if i >= len(args) {
				return "", fmt.Errorf("%s requires a value", arg)
			}
			return args[i], nil
		}
		var err error
		switch arg {
		case "--config":
			opts.ConfigPath, err = value()
		case "--listen":
			opts.CLIListen, err = value()
		case "--data":
			opts.CLIDataRoot, err = value()
		default:
			if strings.HasPrefix(arg, "-") {
				return opts, fmt.Errorf("unknown flag: %s", arg)
			}
			return opts, fmt.Errorf("unexpected argument: %s", arg)
		}
		if err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func runServe(args []string) error {
	opts, err := parseResolveOptions(args)
	if err != nil {
		return err
	}
	cfg, err := config.ResolveConfig(opts)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Config{
		Level:  cfg.LogLevel.Value,
		Format: cfg.LogFormat.Value,
	})
	if err != nil {
		return err
	}

	met := metrics.New()
	rec := diag.NewRecorder(diag.DefaultCapacity)

	eng := engine.New(engine.Config{
		DataRoot: cfg.DataRoot.Value,
		Datasets: cfg.Datasets,
	}, log)
	defer eng.Close()

	store := filters.NewStore()

	ts := tiles.NewStore()
	if meta, err := tiles.LoadMetadata(cfg.InDataRoot(cfg.TilesetMeta.Value)); err != nil {
		log.Warn("tileset metadata unavailable", logging.Err(err))
	} else {
		ts.SetMetadata(meta)
	}

	var boundaries *tiles.BoundaryCollection
	if b, err := tiles.LoadBoundaries(cfg.InDataRoot(cfg.Boundaries.Value)); err != nil {
		log.Warn("boundaries unavailable", logging.Err(err))
	} else {
		boundaries = b
	}

	dict := labels.NewLoader(cfg.InDataRoot(cfg.Dictionary.Value), dictionaryTTL)
	dict.OnHit = met.DictCacheHits.Inc
	dict.OnMiss = met.DictCacheMisses.Inc

	sessions := model.NewCache(model.CacheConfig{
		LibraryPath: cfg.OnnxLibrary.Value,
		Dir:         cfg.InDataRoot("cache"),
	}, log)
	defer sessions.Close()

	coord := dashboard.New(dashboard.Config{}, eng, store, ts, dict, met, rec, log)
	defer coord.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coord.Refresh(ctx)

	api := httpapi.NewServer(httpapi.Config{
		Engine:     eng,
		Filters:    store,
		Dashboard:  coord,
		Tiles:      ts,
		Boundaries: boundaries,
		Dict:       dict,
		Sessions:   sessions,
		Occurrence: httpapi.ModelPaths{
			Weights:    cfg.InDataRoot(cfg.OccurrenceModel.Value),
			Meta:       cfg.InDataRoot(cfg.OccurrenceMeta.Value),
			Importance: cfg.InDataRoot(cfg.OccurrenceImportance.Value),
			Metrics:    cfg.InDataRoot(cfg.OccurrenceMetrics.Value),
		},
		Severity: httpapi.ModelPaths{
			Weights:    cfg.InDataRoot(cfg.SeverityModel.Value),
			Meta:       cfg.InDataRoot(cfg.SeverityMeta.Value),
			Importance: cfg.InDataRoot(cfg.SeverityImportance.Value),
			Metrics:    cfg.InDataRoot(cfg.SeverityMetrics.Value),
		},
		Metrics: met,
		Diag:    rec,
		Log:     log,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr.Value,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info("listening", logging.String("addr", cfg.ListenAddr.Value))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.Info("stopped")
	return nil
}
