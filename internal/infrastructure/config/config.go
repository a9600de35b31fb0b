package config

import (
	"errors"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"kfmon/internal/domain"
)

type Config struct {
	Collector struct {
		IntervalSeconds     int `toml:"interval_seconds"`
		RetentionDays       int `toml:"retention_days"`
		FetchTimeoutSeconds int `toml:"fetch_timeout_seconds"`
	} `toml:"collector"`

	Store struct {
		SQLitePath string `toml:"sqlite_path"`
	} `toml:"store"`

	Kraken struct {
		BaseURL   string `toml:"base_url"`
		APIKey    string `toml:"api_key"`
		APISecret string `toml:"api_secret"`
	} `toml:"kraken"`

	Signals struct {
		PreferredTimeframe string `toml:"preferred_timeframe"`
		PostgresDSN        string `toml:"postgres_dsn"`
	} `toml:"signals"`

	Redis struct {
		Enabled    bool   `toml:"enabled"`
		Addr       string `toml:"addr"`
		KeyPrefix  string `toml:"key_prefix"`
		TTLSeconds int    `toml:"ttl_seconds"`
	} `toml:"redis"`

	Web struct {
		Listen string `toml:"listen"`
	} `toml:"web"`

	Resolver struct {
		Rules []RuleConfig `toml:"rules"`
	} `toml:"resolver"`
}

type RuleConfig struct {
	Substring string `toml:"substring"`
	Asset     string `toml:"asset"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Collector.IntervalSeconds <= 0 {
		cfg.Collector.IntervalSeconds = 20
	}
	if cfg.Collector.RetentionDays <= 0 {
		cfg.Collector.RetentionDays = 3
	}
	if cfg.Collector.FetchTimeoutSeconds <= 0 {
		cfg.Collector.FetchTimeoutSeconds = 10
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "data/telemetry.db"
	}
	if cfg.Signals.PreferredTimeframe == "" {
		cfg.Signals.PreferredTimeframe = "15m"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "kfmon"
	}
	if cfg.Redis.TTLSeconds <= 0 {
		cfg.Redis.TTLSeconds = 120
	}
	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}
}

// applyEnv lets the deployment environment supply secrets and the listen
// port without touching the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("KRAKEN_FUTURES_KEY"); v != "" {
		cfg.Kraken.APIKey = v
	}
	if v := os.Getenv("KRAKEN_FUTURES_SECRET"); v != "" {
		cfg.Kraken.APISecret = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Signals.PostgresDSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Web.Listen = ":" + v
	}
}

func validate(cfg *Config) error {
	if cfg.Collector.FetchTimeoutSeconds >= cfg.Collector.IntervalSeconds {
		return errors.New("collector.fetch_timeout_seconds must be shorter than interval_seconds")
	}
	for _, r := range cfg.Resolver.Rules {
		if r.Substring == "" || r.Asset == "" {
			return errors.New("resolver.rules entries need both substring and asset")
		}
	}
	return nil
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.Collector.IntervalSeconds) * time.Second
}

func (c *Config) Retention() time.Duration {
	return time.Duration(c.Collector.RetentionDays) * 24 * time.Hour
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Collector.FetchTimeoutSeconds) * time.Second
}

// ResolverRules returns the configured mapping table, or the built-in
// default table when the config has none.
func (c *Config) ResolverRules() []domain.Rule {
	if len(c.Resolver.Rules) == 0 {
		return domain.DefaultRules()
	}
	rules := make([]domain.Rule, 0, len(c.Resolver.Rules))
	for _, r := range c.Resolver.Rules {
		rules = append(rules, domain.Rule{Substring: r.Substring, Asset: r.Asset})
	}
	return rules
}
