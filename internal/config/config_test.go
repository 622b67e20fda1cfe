package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GOVINFO_API_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "https://api.govinfo.gov", cfg.API.BaseURL)
	require.Equal(t, "test-key", cfg.API.Key)
	require.Equal(t, 100, cfg.API.PageSize)
	require.Equal(t, 60*time.Second, cfg.APITimeout())
	require.Equal(t, 90*time.Second, cfg.DownloadTimeout())
	require.Equal(t, 200*time.Millisecond, cfg.RateDelay())
	require.Equal(t, "data", cfg.Output.Dir)
	require.False(t, cfg.Output.CSV)
	require.Equal(t, "speeches", cfg.DB.Table)
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Setenv("GOVINFO_API_KEY", "test-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
api:
  base_url: https://api.example.gov
  page_size: 25
  timeout_seconds: 30
  download_timeout_seconds: 45
harvest:
  rate_delay_seconds: 1.5
  max_packages: 2
  max_granules: 10
output:
  dir: out
  csv: true
db:
  dsn: postgres://localhost/crec
  table: crec_speeches
logging:
  development: false
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "https://api.example.gov", cfg.API.BaseURL)
	require.Equal(t, 25, cfg.API.PageSize)
	require.Equal(t, 30*time.Second, cfg.APITimeout())
	require.Equal(t, 45*time.Second, cfg.DownloadTimeout())
	require.Equal(t, 1500*time.Millisecond, cfg.RateDelay())
	require.Equal(t, 2, cfg.Harvest.MaxPackages)
	require.Equal(t, 10, cfg.Harvest.MaxGranules)
	require.Equal(t, "out", cfg.Output.Dir)
	require.True(t, cfg.Output.CSV)
	require.Equal(t, "crec_speeches", cfg.DB.Table)
	require.False(t, cfg.Logging.Development)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GOVINFO_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "GOVINFO_API_KEY")
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := Config{
		API: APIConfig{
			BaseURL:                "https://api.govinfo.gov",
			Key:                    "k",
			PageSize:               100,
			TimeoutSeconds:         60,
			DownloadTimeoutSeconds: 90,
		},
		Output: OutputConfig{Dir: "data"},
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero page size", func(c *Config) { c.API.PageSize = 0 }},
		{"negative rate delay", func(c *Config) { c.Harvest.RateDelaySeconds = -1 }},
		{"negative package cap", func(c *Config) { c.Harvest.MaxPackages = -1 }},
		{"empty output dir", func(c *Config) { c.Output.Dir = "" }},
		{"zero timeout", func(c *Config) { c.API.TimeoutSeconds = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
