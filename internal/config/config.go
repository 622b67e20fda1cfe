// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Harvest HarvestConfig `mapstructure:"harvest"`
	Output  OutputConfig  `mapstructure:"output"`
	DB      DBConfig      `mapstructure:"db"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig controls access to the GovInfo collection API.
type APIConfig struct {
	BaseURL                string `mapstructure:"base_url"`
	Key                    string `mapstructure:"key"`
	PageSize               int    `mapstructure:"page_size"`
	TimeoutSeconds         int    `mapstructure:"timeout_seconds"`
	DownloadTimeoutSeconds int    `mapstructure:"download_timeout_seconds"`
	UserAgent              string `mapstructure:"user_agent"`
}

// HarvestConfig governs run pacing and bounded test runs.
type HarvestConfig struct {
	RateDelaySeconds float64 `mapstructure:"rate_delay_seconds"`
	MaxPackages      int     `mapstructure:"max_packages"`
	MaxGranules      int     `mapstructure:"max_granules"`
}

// OutputConfig sets the output directory and export toggles.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
	CSV bool   `mapstructure:"csv"`
}

// DBConfig enables the optional Postgres record store.
type DBConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// MetricsConfig enables the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The API key lives in the environment, never in a config file.
	if err := v.BindEnv("api.key", "GOVINFO_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind api key env: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.govinfo.gov")
	v.SetDefault("api.page_size", 100)
	v.SetDefault("api.timeout_seconds", 60)
	v.SetDefault("api.download_timeout_seconds", 90)
	v.SetDefault("api.user_agent", "crec-harvester/1.0 (+https://github.com/JakeFAU/crec-harvester)")
	v.SetDefault("harvest.rate_delay_seconds", 0.2)
	v.SetDefault("harvest.max_packages", 0)
	v.SetDefault("harvest.max_granules", 0)
	v.SetDefault("output.dir", "data")
	v.SetDefault("output.csv", false)
	v.SetDefault("db.table", "speeches")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.API.Key == "" {
		return fmt.Errorf("set GOVINFO_API_KEY environment variable with your GovInfo API key")
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("api.page_size must be > 0")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be > 0")
	}
	if c.API.DownloadTimeoutSeconds <= 0 {
		return fmt.Errorf("api.download_timeout_seconds must be > 0")
	}
	if c.Harvest.RateDelaySeconds < 0 {
		return fmt.Errorf("harvest.rate_delay_seconds must be >= 0")
	}
	if c.Harvest.MaxPackages < 0 {
		return fmt.Errorf("harvest.max_packages must be >= 0")
	}
	if c.Harvest.MaxGranules < 0 {
		return fmt.Errorf("harvest.max_granules must be >= 0")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	return nil
}

// APITimeout converts the API timeout config into a duration.
func (c Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// DownloadTimeout converts the download timeout config into a duration.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.API.DownloadTimeoutSeconds) * time.Second
}

// RateDelay converts the rate delay config into a duration.
func (c Config) RateDelay() time.Duration {
	return time.Duration(c.Harvest.RateDelaySeconds * float64(time.Second))
}
