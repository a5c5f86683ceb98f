package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Address != ":8000" {
		t.Errorf("expected address=:8000, got %s", cfg.Server.Address)
	}
	if cfg.Engine.Timeout.Duration != 10*time.Second {
		t.Errorf("expected engine.timeout=10s, got %s", cfg.Engine.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv(EnvVar, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Cache.Size != Default().Cache.Size {
		t.Errorf("expected default cache size, got %d", cfg.Cache.Size)
	}
}

func TestLoad_YAMLFromEnv(t *testing.T) {
	path := writeFile(t, "mathflow.yaml", `
server:
  address: ":${MATHFLOW_TEST_PORT:-9000}"
  rate_limit:
    requests_per_second: 5
    burst: 10
engine:
  timeout: 250ms
  max_terms: 50
log:
  level: debug
  format: text
`)
	t.Setenv(EnvVar, path)
	t.Setenv("MATHFLOW_TEST_PORT", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Address != ":9000" {
		t.Errorf("expected address=:9000, got %s", cfg.Server.Address)
	}
	if cfg.Server.RateLimit.Burst != 10 {
		t.Errorf("expected burst=10, got %d", cfg.Server.RateLimit.Burst)
	}
	if cfg.Engine.Timeout.Duration != 250*time.Millisecond {
		t.Errorf("expected timeout=250ms, got %s", cfg.Engine.Timeout)
	}
	if cfg.Engine.MaxTerms != 50 {
		t.Errorf("expected max_terms=50, got %d", cfg.Engine.MaxTerms)
	}
	// Untouched fields keep their defaults.
	if cfg.Engine.MaxDepth != Default().Engine.MaxDepth {
		t.Errorf("expected default max_depth, got %d", cfg.Engine.MaxDepth)
	}

	opts := cfg.EngineOptions(nil)
	if opts.MaxTerms != 50 || opts.Timeout != 250*time.Millisecond {
		t.Errorf("engine options not carried over: %+v", opts)
	}
}

func TestLoad_ExplicitPathWins(t *testing.T) {
	t.Setenv(EnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	path := writeFile(t, "mathflow.yaml", "cache:\n  size: 7\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Cache.Size != 7 {
		t.Errorf("expected cache.size=7, got %d", cfg.Cache.Size)
	}
}

func TestLoad_JSONC(t *testing.T) {
	path := writeFile(t, "mathflow.jsonc", `{
	// Smaller engine for tests.
	"engine": {"max_nodes": 100, "timeout": "2s"},
	"cache": {"size": 0},
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if cfg.Engine.MaxNodes != 100 {
		t.Errorf("expected max_nodes=100, got %d", cfg.Engine.MaxNodes)
	}
	if cfg.Engine.Timeout.Duration != 2*time.Second {
		t.Errorf("expected timeout=2s, got %s", cfg.Engine.Timeout)
	}
	if cfg.Cache.Size != 0 {
		t.Errorf("expected cache.size=0, got %d", cfg.Cache.Size)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	for name, content := range map[string]string{
		"bad.yaml": "engine:\n  max_nodez: 3\n",
		"bad.json": `{"engine": {"max_nodez": 3}}`,
	} {
		if _, err := LoadFile(writeFile(t, name, content)); err == nil {
			t.Errorf("%s: expected an error for an unknown field", name)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Engine.MaxNodes = 0
	cfg.Server.RateLimit.RequestsPerSecond = 1
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"engine.max_nodes", "rate_limit.burst", "log.level", "log.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %q", want, err)
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestNewLogger(t *testing.T) {
	var buf strings.Builder
	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept", "op", "factor")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, `"op":"factor"`) {
		t.Errorf("expected a JSON record, got %s", out)
	}
}
