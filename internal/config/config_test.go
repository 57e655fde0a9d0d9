package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/seenimoa/fairprice/internal/resolve"
	"github.com/seenimoa/fairprice/internal/valuation"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FAIRPRICE_PROVIDER_DART_KEY", "")
	t.Setenv("DART_API_KEY", "")
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	clearKeyEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Valuation defaults
	if cfg.Valuation.Metric != "PER" {
		t.Errorf("Valuation.Metric: got %q, want %q", cfg.Valuation.Metric, "PER")
	}
	if cfg.Valuation.Multiple != 10 {
		t.Errorf("Valuation.Multiple: got %f, want 10", cfg.Valuation.Multiple)
	}
	if cfg.Valuation.SafetyMarginPct != 20 {
		t.Errorf("Valuation.SafetyMarginPct: got %f, want 20", cfg.Valuation.SafetyMarginPct)
	}
	if cfg.Valuation.DefaultMultiple != valuation.DefaultHistoricalMultiple {
		t.Errorf("Valuation.DefaultMultiple: got %f, want %f", cfg.Valuation.DefaultMultiple, valuation.DefaultHistoricalMultiple)
	}

	// Data defaults
	if cfg.Data.Dir != "./data" {
		t.Errorf("Data.Dir: got %q", cfg.Data.Dir)
	}
	if cfg.Data.CacheTTL != 300 {
		t.Errorf("Data.CacheTTL: got %d, want 300", cfg.Data.CacheTTL)
	}
	if cfg.Data.Concurrency != 4 {
		t.Errorf("Data.Concurrency: got %d, want 4", cfg.Data.Concurrency)
	}

	// API defaults
	if cfg.API.Addr() != "0.0.0.0:8080" {
		t.Errorf("API.Addr(): got %q", cfg.API.Addr())
	}
	if cfg.API.RateLimit != 10 || cfg.API.RateBurst != 20 {
		t.Errorf("API rate limit: got %f/%d, want 10/20", cfg.API.RateLimit, cfg.API.RateBurst)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}

	if cfg.Provider.DARTKey != "" {
		t.Errorf("Provider.DARTKey should be empty, got %q", cfg.Provider.DARTKey)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	clearKeyEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FAIRPRICE_API_PORT", "9191")
	t.Setenv("FAIRPRICE_VALUATION_METRIC", "PBR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.Port != 9191 {
		t.Errorf("API.Port: got %d, want 9191", cfg.API.Port)
	}
	if cfg.Valuation.Metric != "PBR" {
		t.Errorf("Valuation.Metric: got %q, want PBR", cfg.Valuation.Metric)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	clearKeyEnv(t)
	os.Unsetenv("DART_API_KEY")
	t.Setenv("HOME", t.TempDir())

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DART_API_KEY=dotenv-dart-key-123\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("DART_API_KEY") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Provider.DARTKey != "dotenv-dart-key-123" {
		t.Errorf("Provider.DARTKey: got %q", cfg.Provider.DARTKey)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	clearKeyEnv(t)

	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
valuation:
  metric: "PSR"
  multiple: 2.5
  safety_margin_pct: 35
  default_multiple: 12
data:
  dir: "/var/lib/fairprice"
  concurrency: 8
sources:
  revenue: ["custom.sales", "sales"]
provider:
  dart_key: "config-dart-key-abcdef"
api:
  port: 9090
  rate_limit: 0
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Valuation.Metric != "PSR" || cfg.Valuation.Multiple != 2.5 || cfg.Valuation.SafetyMarginPct != 35 {
		t.Errorf("Valuation: got %+v", cfg.Valuation)
	}
	if cfg.Valuation.DefaultMultiple != 12 {
		t.Errorf("Valuation.DefaultMultiple: got %f, want 12", cfg.Valuation.DefaultMultiple)
	}
	if cfg.Data.Dir != "/var/lib/fairprice" || cfg.Data.Concurrency != 8 {
		t.Errorf("Data: got %+v", cfg.Data)
	}
	if cfg.Data.CacheTTL != 300 {
		t.Errorf("Data.CacheTTL should keep its default, got %d", cfg.Data.CacheTTL)
	}
	if cfg.Provider.DARTKey != "config-dart-key-abcdef" {
		t.Errorf("Provider.DARTKey: got %q", cfg.Provider.DARTKey)
	}
	if cfg.API.Port != 9090 || cfg.API.RateLimit != 0 {
		t.Errorf("API: got %+v", cfg.API)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}

	policy, err := cfg.Policy()
	if err != nil {
		t.Fatalf("Policy() error: %v", err)
	}
	if got := policy[resolve.Revenue]; len(got) != 2 || got[0].Path != "custom.sales" {
		t.Errorf("revenue sources: got %+v", got)
	}
	if len(policy[resolve.NetIncome]) == 0 {
		t.Error("net income should keep default sources")
	}

	params, err := cfg.Valuation.Params()
	if err != nil {
		t.Fatalf("Params() error: %v", err)
	}
	if params.Metric != valuation.PSR {
		t.Errorf("Params.Metric: got %q", params.Metric)
	}
}

func TestLoadFromFileRejectsUnknownSourceField(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	cfgPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("sources:\n  ebitda: [\"x\"]\n"), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if _, err := LoadFromFile(cfgPath); err == nil {
		t.Error("expected error for unknown source field")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── Params ──

func TestValuationConfigParams(t *testing.T) {
	tests := []struct {
		name string
		cfg  ValuationConfig
		ok   bool
	}{
		{"valid", ValuationConfig{Metric: "per", Multiple: 10, SafetyMarginPct: 20}, true},
		{"bad metric", ValuationConfig{Metric: "ev", Multiple: 10}, false},
		{"bad margin", ValuationConfig{Metric: "PER", Multiple: 10, SafetyMarginPct: 120}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Params()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, valuation.ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestValuationConfigHistoryFallback(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{12, 12},
		{0, valuation.DefaultHistoricalMultiple},
		{-5, valuation.DefaultHistoricalMultiple},
		{math.Inf(1), valuation.DefaultHistoricalMultiple},
		{math.NaN(), valuation.DefaultHistoricalMultiple},
	}
	for _, tt := range tests {
		got := ValuationConfig{DefaultMultiple: tt.in}.HistoryFallback()
		if got != tt.want {
			t.Errorf("HistoryFallback(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	cfg := &Config{Provider: ProviderConfig{DARTKey: "from-config"}}

	t.Setenv("FAIRPRICE_PROVIDER_DART_KEY", "")
	t.Setenv("DART_API_KEY", "plain-dart-key")
	overrideFromEnv(cfg)
	if cfg.Provider.DARTKey != "plain-dart-key" {
		t.Errorf("DARTKey: got %q", cfg.Provider.DARTKey)
	}

	t.Setenv("FAIRPRICE_PROVIDER_DART_KEY", "prefixed-dart-key")
	overrideFromEnv(cfg)
	if cfg.Provider.DARTKey != "prefixed-dart-key" {
		t.Errorf("prefixed variable should win, got %q", cfg.Provider.DARTKey)
	}
}

// ── Keys ──

func TestCheckAPIKeys(t *testing.T) {
	clearKeyEnv(t)

	keys := CheckAPIKeys(&Config{})
	if len(keys) != 1 || keys[0].IsSet || keys[0].Source != KeySourceNone {
		t.Errorf("unset key: got %+v", keys)
	}

	keys = CheckAPIKeys(&Config{Provider: ProviderConfig{DARTKey: "abcdef1234567890"}})
	if !keys[0].IsSet || keys[0].Source != KeySourceConfig || keys[0].Masked != "abc...890" {
		t.Errorf("config key: got %+v", keys[0])
	}

	t.Setenv("DART_API_KEY", "abcdef1234567890")
	keys = CheckAPIKeys(&Config{Provider: ProviderConfig{DARTKey: "abcdef1234567890"}})
	if keys[0].Source != KeySourceEnv {
		t.Errorf("env key source: got %q", keys[0].Source)
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"short", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.in); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
