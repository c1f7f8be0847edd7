package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sleepysunflower/traffic-collisions/internal/config"
	"github.com/sleepysunflower/traffic-collisions/internal/model"
)

func runPredict(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: collisions predict <occurrence|severity> [--config <path>] < form.json")
	}
	name := args[0]

	var opts config.ResolveOptions
	for i := 1; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			i++
			opts.ConfigPath = args[i]
		case args[i] == "--data" && i+1 < len(args):
			i++
			opts.CLIDataRoot = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	cfg, err := config.ResolveConfig(opts)
	if err != nil {
		return err
	}

	cache := model.NewCache(model.CacheConfig{
		LibraryPath: cfg.OnnxLibrary.Value,
		Dir:         cfg.InDataRoot("cache"),
	}, nil)
	defer cache.Close()

	ctx := context.Background()
	dec := json.NewDecoder(os.Stdin)

	var out any
	switch name {
	case "occurrence":
		var form model.OccurrenceForm
		if err := dec.Decode(&form); err != nil {
			return fmt.Errorf("reading form: %w", err)
		}
		raw, err := os.ReadFile(cfg.InDataRoot(cfg.OccurrenceMeta.Value))
		if err != nil {
			return err
		}
		meta, err := model.ParseOccurrenceMeta(raw)
		if err != nil {
			return err
		}
		sess, err := cache.Load(ctx, cfg.InDataRoot(cfg.OccurrenceModel.Value), "")
		if err != nil {
			return err
		}
		y, err := model.PredictOccurrence(sess, meta, form)
		if err != nil {
			return err
		}
		out = map[string]float64{"value": y}
	case "severity":
		var form model.SeverityForm
		if err := dec.Decode(&form); err != nil {
			return fmt.Errorf("reading form: %w", err)
		}
		raw, err := os.ReadFile(cfg.InDataRoot(cfg.SeverityMeta.Value))
		if err != nil {
			return err
		}
		meta, err := model.ParseSeverityMeta(raw)
		if err != nil {
			return err
		}
		sess, err := cache.Load(ctx, cfg.InDataRoot(cfg.SeverityModel.Value), meta.InputName)
		if err != nil {
			return err
		}
		out, err = model.PredictSeverity(sess, meta, form)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown model: %s", name)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runConfig(args []string) error {
	opts, err := parseResolveOptions(args)
	if err != nil {
		return err
	}
	cfg, err := config.ResolveConfig(opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
