// Package config resolves the service configuration from a YAML file,
// environment variables, and CLI flags, in that precedence order. Every
// resolved value remembers where it came from so `collisions config` can
// show the effective setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries CLI overrides into resolution.
type ResolveOptions struct {
	ConfigPath  string
	CLIListen   string
	CLIDataRoot string
}

// ResolvedConfig is the effective service configuration.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	ListenAddr ResolvedValue `json:"listen_addr"`
	DataRoot   ResolvedValue `json:"data_root"`

	TilesetMeta ResolvedValue `json:"tileset_meta"`
	Boundaries  ResolvedValue `json:"boundaries"`
	Dictionary  ResolvedValue `json:"dictionary"`

	OccurrenceModel      ResolvedValue `json:"occurrence_model"`
	OccurrenceMeta       ResolvedValue `json:"occurrence_meta"`
	OccurrenceImportance ResolvedValue `json:"occurrence_importance"`
	OccurrenceMetrics    ResolvedValue `json:"occurrence_metrics"`
	SeverityModel        ResolvedValue `json:"severity_model"`
	SeverityMeta         ResolvedValue `json:"severity_meta"`
	SeverityImportance   ResolvedValue `json:"severity_importance"`
	SeverityMetrics      ResolvedValue `json:"severity_metrics"`
	OnnxLibrary          ResolvedValue `json:"onnx_library"`

	LogLevel  ResolvedValue `json:"log_level"`
	LogFormat ResolvedValue `json:"log_format"`

	// Datasets maps table names to CSV paths relative to the data root.
	Datasets map[string]string `json:"datasets,omitempty"`
}

type fileConfig struct {
	Listen   string            `yaml:"listen"`
	DataRoot string            `yaml:"data_root"`
	Datasets map[string]string `yaml:"datasets"`
	Tiles    struct {
		Metadata   string `yaml:"metadata"`
		Boundaries string `yaml:"boundaries"`
	} `yaml:"tiles"`
	Dictionary string `yaml:"dictionary"`
	Models     struct {
		Library    string `yaml:"library"`
		Occurrence struct {
			Weights    string `yaml:"weights"`
			Meta       string `yaml:"meta"`
			Importance string `yaml:"importance"`
			Metrics    string `yaml:"metrics"`
		} `yaml:"occurrence"`
		Severity struct {
			Weights    string `yaml:"weights"`
			Meta       string `yaml:"meta"`
			Importance string `yaml:"importance"`
			Metrics    string `yaml:"metrics"`
		} `yaml:"severity"`
	} `yaml:"models"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// DefaultConfigPath is ~/.collisions/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".collisions", "config.yaml")
}

// Built-in defaults, applied last.
var defaults = map[string]string{
	"listen":                ":8080",
	"data_root":             "data",
	"tileset_meta":          "tiles/incidents.json",
	"boundaries":            "boundaries.geojson",
	"dictionary":            "dictionary.json",
	"occurrence_model":      "models/occurrence.onnx",
	"occurrence_meta":       "models/occurrence_meta.json",
	"occurrence_importance": "models/occurrence_gini.csv",
	"occurrence_metrics":    "models/occurrence_metrics.json",
	"severity_model":        "models/severity.onnx",
	"severity_meta":         "models/severity_reg_meta.json",
	"severity_importance":   "models/severity_perm.csv",
	"severity_metrics":      "models/severity_metrics.json",
	"log_level":             "info",
	"log_format":            "json",
}

// ResolveConfig layers file, environment, and CLI values, highest last.
// A missing config file is fine; a malformed one is an error.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		apply(&out.ListenAddr, cfg.Listen, SourceConfig, path)
		apply(&out.DataRoot, cfg.DataRoot, SourceConfig, path)
		apply(&out.TilesetMeta, cfg.Tiles.Metadata, SourceConfig, path)
		apply(&out.Boundaries, cfg.Tiles.Boundaries, SourceConfig, path)
		apply(&out.Dictionary, cfg.Dictionary, SourceConfig, path)
		apply(&out.OnnxLibrary, cfg.Models.Library, SourceConfig, path)
		apply(&out.OccurrenceModel, cfg.Models.Occurrence.Weights, SourceConfig, path)
		apply(&out.OccurrenceMeta, cfg.Models.Occurrence.Meta, SourceConfig, path)
		apply(&out.OccurrenceImportance, cfg.Models.Occurrence.Importance, SourceConfig, path)
		apply(&out.OccurrenceMetrics, cfg.Models.Occurrence.Metrics, SourceConfig, path)
		apply(&out.SeverityModel, cfg.Models.Severity.Weights, SourceConfig, path)
		apply(&out.SeverityMeta, cfg.Models.Severity.Meta, SourceConfig, path)
		apply(&out.SeverityImportance, cfg.Models.Severity.Importance, SourceConfig, path)
		apply(&out.SeverityMetrics, cfg.Models.Severity.Metrics, SourceConfig, path)
		apply(&out.LogLevel, cfg.Log.Level, SourceConfig, path)
		apply(&out.LogFormat, cfg.Log.Format, SourceConfig, path)
		if len(cfg.Datasets) > 0 {
			out.Datasets = cfg.Datasets
		}
	}

	applyEnv(&out.ListenAddr, "COLLISIONS_LISTEN")
	applyEnv(&out.DataRoot, "COLLISIONS_DATA")
	applyEnv(&out.Dictionary, "COLLISIONS_DICTIONARY")
	applyEnv(&out.OnnxLibrary, "COLLISIONS_ONNX_LIB")
	applyEnv(&out.LogLevel, "COLLISIONS_LOG_LEVEL")
	applyEnv(&out.LogFormat, "COLLISIONS_LOG_FORMAT")

	apply(&out.ListenAddr, opts.CLIListen, SourceCLI, "--listen")
	apply(&out.DataRoot, opts.CLIDataRoot, SourceCLI, "--data")

	applyDefault(&out.ListenAddr, "listen")
	applyDefault(&out.DataRoot, "data_root")
	applyDefault(&out.TilesetMeta, "tileset_meta")
	applyDefault(&out.Boundaries, "boundaries")
	applyDefault(&out.Dictionary, "dictionary")
	applyDefault(&out.OccurrenceModel, "occurrence_model")
	applyDefault(&out.OccurrenceMeta, "occurrence_meta")
	applyDefault(&out.OccurrenceImportance, "occurrence_importance")
	applyDefault(&out.OccurrenceMetrics, "occurrence_metrics")
	applyDefault(&out.SeverityModel, "severity_model")
	applyDefault(&out.SeverityMeta, "severity_meta")
	applyDefault(&out.SeverityImportance, "severity_importance")
	applyDefault(&out.SeverityMetrics, "severity_metrics")
	applyDefault(&out.LogLevel, "log_level")
	applyDefault(&out.LogFormat, "log_format")

	out.DataRoot.Value = expandUserPath(out.DataRoot.Value)
	return out, nil
}

// InDataRoot anchors a relative path at the resolved data root.
func (r ResolvedConfig) InDataRoot(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.DataRoot.Value, p)
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, key string) {
	apply(dst, os.Getenv(key), SourceEnv, key)
}

func applyDefault(dst *ResolvedValue, key string) {
	if dst.Value != "" {
		return
	}
	*dst = ResolvedValue{Value: defaults[key], Source: SourceDefault, From: "built-in default"}
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
