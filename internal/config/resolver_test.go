package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConfig_Precedence_ConfigEnvCLI(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `listen: ":9000"
data_root: /srv/collisions
dictionary: dict-from-config.json
models:
  severity:
    weights: models/severity_v2.onnx
log:
  level: debug
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("COLLISIONS_DATA", "/srv/from-env")
	t.Setenv("COLLISIONS_DICTIONARY", "dict-from-env.json")

	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath:  cfgPath,
		CLIDataRoot: "/srv/from-cli",
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}

	if resolved.DataRoot.Source != SourceCLI || resolved.DataRoot.Value != "/srv/from-cli" {
		t.Fatalf("data root = %+v", resolved.DataRoot)
	}
	if resolved.Dictionary.Source != SourceEnv || resolved.Dictionary.Value != "dict-from-env.json" {
		t.Fatalf("dictionary = %+v", resolved.Dictionary)
	}
	if resolved.ListenAddr.Source != SourceConfig || resolved.ListenAddr.Value != ":9000" {
		t.Fatalf("listen = %+v", resolved.ListenAddr)
	}
	if resolved.SeverityModel.Value != "models/severity_v2.onnx" {
		t.Fatalf("severity model = %+v", resolved.SeverityModel)
	}
	if resolved.LogLevel.Value != "debug" {
		t.Fatalf("log level = %+v", resolved.LogLevel)
	}
}

func TestResolveConfig_Defaults(t *testing.T) {
	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"),
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if resolved.ListenAddr.Value != ":8080" || resolved.ListenAddr.Source != SourceDefault {
		t.Fatalf("listen = %+v", resolved.ListenAddr)
	}
	if resolved.OccurrenceMeta.Value != "models/occurrence_meta.json" {
		t.Fatalf("occurrence meta = %+v", resolved.OccurrenceMeta)
	}
	if resolved.LogFormat.Value != "json" {
		t.Fatalf("log format = %+v", resolved.LogFormat)
	}
}

func TestResolveConfig_MalformedFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("listen: [::"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := ResolveConfig(ResolveOptions{ConfigPath: cfgPath}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestInDataRoot(t *testing.T) {
	r := ResolvedConfig{DataRoot: ResolvedValue{Value: "/srv/data"}}
	if got := r.InDataRoot("dictionary.json"); got != filepath.Join("/srv/data", "dictionary.json") {
		t.Fatalf("relative = %q", got)
	}
	if got := r.InDataRoot("/abs/dict.json"); got != "/abs/dict.json" {
		t.Fatalf("absolute = %q", got)
	}
}
