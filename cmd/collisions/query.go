package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sleepysunflower/traffic-collisions/internal/charts"
	"github.com/sleepysunflower/traffic-collisions/internal/config"
	"github.com/sleepysunflower/traffic-collisions/internal/engine"
	"github.com/sleepysunflower/traffic-collisions/internal/filters"
	"github.com/sleepysunflower/traffic-collisions/internal/labels"
	"github.com/sleepysunflower/traffic-collisions/internal/query"
)

func runQuery(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: collisions query <trend|heatmap|distribution> [flags]")
	}
	view := args[0]

	var (
		opts     config.ResolveOptions
		sel      filters.Selection
		variable string
		mode     = charts.HeatmapByHour
	)

	for i := 1; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			i++
			opts.ConfigPath = args[i]
		case args[i] == "--data" && i+1 < len(args):
			i++
			opts.CLIDataRoot = args[i]
		case args[i] == "--variable" && i+1 < len(args):
			i++
			variable = args[i]
		case args[i] == "--mode" && i+1 < len(args):
			i++
			mode = charts.HeatmapMode(args[i])
			if mode != charts.HeatmapByHour && mode != charts.HeatmapByMonth {
				return fmt.Errorf("--mode must be hour or month")
			}
		case args[i] == "--severity" && i+1 < len(args):
			i++
			sel.Severities = append(sel.Severities, args[i])
		case args[i] == "--year" && i+1 < len(args):
			i++
			y, err := strconv.Atoi(args[i])
			if err != nil {
				return fmt.Errorf("--year: %w", err)
			}
			sel.Years = append(sel.Years, y)
		case strings.HasPrefix(args[i], "-"):
			return fmt.Errorf("unknown flag: %s", args[i])
		default:
			return fmt.Errorf("unexpected argument: %s", args[i])
		}
	}

	cfg, err := config.ResolveConfig(opts)
	if err != nil {
		return err
	}
	eng := engine.New(engine.Config{
		DataRoot: cfg.DataRoot.Value,
		Datasets: cfg.Datasets,
	}, nil)
	defer eng.Close()

	ctx := context.Background()
	pred := query.Build(sel)

	var out any
	switch view {
	case "trend":
		out, err = charts.ComputeTrend(ctx, eng, pred)
	case "heatmap":
		out, err = charts.ComputeHeatmap(ctx, eng, pred, mode)
	case "distribution":
		if variable == "" {
			variable = labels.VarOptions[0]
		}
		dict, _ := labels.NewLoader(cfg.InDataRoot(cfg.Dictionary.Value), dictionaryTTL).Load()
		out, err = charts.ComputeDistribution(ctx, eng, pred, variable, dict)
	default:
		return fmt.Errorf("unknown view: %s", view)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
