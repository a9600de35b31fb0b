package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Interval() != 20*time.Second {
		t.Errorf("interval = %v", cfg.Interval())
	}
	if cfg.Retention() != 72*time.Hour {
		t.Errorf("retention = %v", cfg.Retention())
	}
	if cfg.FetchTimeout() != 10*time.Second {
		t.Errorf("fetch timeout = %v", cfg.FetchTimeout())
	}
	if cfg.Signals.PreferredTimeframe != "15m" {
		t.Errorf("preferred timeframe = %q", cfg.Signals.PreferredTimeframe)
	}
	if cfg.Web.Listen != ":8080" {
		t.Errorf("listen = %q", cfg.Web.Listen)
	}
	if len(cfg.ResolverRules()) == 0 {
		t.Error("default resolver rules missing")
	}
}

func TestLoadExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[collector]
interval_seconds = 60
retention_days = 7
fetch_timeout_seconds = 15

[signals]
preferred_timeframe = "1h"

[[resolver.rules]]
substring = "ltc"
asset = "LTCUSDT"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Interval() != time.Minute || cfg.Retention() != 7*24*time.Hour {
		t.Errorf("collector settings not applied: %+v", cfg.Collector)
	}
	rules := cfg.ResolverRules()
	if len(rules) != 1 || rules[0].Asset != "LTCUSDT" {
		t.Errorf("resolver rules = %+v", rules)
	}
}

func TestLoadRejectsTimeoutLongerThanInterval(t *testing.T) {
	_, err := Load(writeConfig(t, `
[collector]
interval_seconds = 10
fetch_timeout_seconds = 30
`))
	if err == nil {
		t.Fatal("fetch timeout >= interval must be rejected")
	}
}

func TestLoadRejectsIncompleteRule(t *testing.T) {
	_, err := Load(writeConfig(t, `
[[resolver.rules]]
substring = "ltc"
`))
	if err == nil {
		t.Fatal("rule without asset must be rejected")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KRAKEN_FUTURES_KEY", "env-key")
	t.Setenv("KRAKEN_FUTURES_SECRET", "env-secret")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("PORT", "9090")

	cfg, err := Load(writeConfig(t, `
[kraken]
api_key = "file-key"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Kraken.APIKey != "env-key" || cfg.Kraken.APISecret != "env-secret" {
		t.Errorf("kraken env override not applied: %+v", cfg.Kraken)
	}
	if cfg.Signals.PostgresDSN != "postgres://env" {
		t.Errorf("dsn = %q", cfg.Signals.PostgresDSN)
	}
	if cfg.Web.Listen != ":9090" {
		t.Errorf("listen = %q", cfg.Web.Listen)
	}
}
