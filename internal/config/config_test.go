package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60*time.Second, cfg.GetTotalTimeout())
	assert.Equal(t, 8, cfg.Listing.Workers)
	assert.Equal(t, 20, cfg.Listing.MaxItems)
	assert.True(t, cfg.Listing.Pages[0].LatestOnly)
}

func TestParseOverridesDefaults(t *testing.T) {
	yml := `
site:
  domain: bwfbadminton.com
http:
  total_timeout_ms: 45000
listing:
  pages:
    - url: https://bwfbadminton.com/news/
scheduler:
  mode: interval
  interval_s: 1800
`
	cfg, err := Parse(strings.NewReader(yml), env(nil))
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.GetTotalTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetConnectTimeout(), "unset fields keep defaults")
	require.Len(t, cfg.Listing.Pages, 1)
	assert.False(t, cfg.Listing.Pages[0].LatestOnly)
	assert.Equal(t, 30*time.Minute, cfg.GetSchedulerInterval())
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""), env(nil))
	require.NoError(t, err)
	assert.Equal(t, "bwfbadminton.com", cfg.Site.Domain)
}

func TestApplyEnv(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""), env(map[string]string{
		EnvUseProxy:       "1",
		EnvForceProxy:     "yes",
		EnvOutputPath:     "/tmp/out/bwf.json",
		EnvLogLevel:       "DEBUG",
		EnvScraperAPIKey:  " key-1 ",
		EnvScrapingBeeKey: "",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.Proxy.Enabled)
	assert.True(t, cfg.Proxy.Force)
	assert.Equal(t, "/tmp/out/bwf.json", cfg.Storage.OutputPath)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "key-1", cfg.Proxy.ScraperAPIKey)
	assert.True(t, cfg.Proxy.HasKey())
}

func TestApplyEnvInvalidBool(t *testing.T) {
	_, err := Parse(strings.NewReader(""), env(map[string]string{EnvUseProxy: "maybe"}))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no domain", func(c *Config) { c.Site.Domain = "" }},
		{"zero timeout", func(c *Config) { c.HTTP.TotalTimeoutMS = 0 }},
		{"backoff inverted", func(c *Config) { c.Backoff.MinMS = 9000 }},
		{"no pages", func(c *Config) { c.Listing.Pages = nil }},
		{"relative page", func(c *Config) { c.Listing.Pages = []ListingPage{{URL: "/news/"}} }},
		{"no workers", func(c *Config) { c.Listing.Workers = 0 }},
		{"no output", func(c *Config) { c.Storage.OutputPath = "" }},
		{"archive without dsn", func(c *Config) { c.Storage.Archive.Enabled = true }},
		{"bad mode", func(c *Config) { c.Scheduler.Mode = "daily" }},
		{"cron without expr", func(c *Config) { c.Scheduler.Mode = "cron" }},
		{"bad log level", func(c *Config) { c.Observability.LogLevel = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSelectors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
content_images:
  - ".news-body img"
action_keywords: ["smash"]
`), 0o644))

	cfg := Default()
	cfg.SelectorsFile = path
	cfg.Normalize.MaxPreviewChars = 150

	sel, err := cfg.Selectors()
	require.NoError(t, err)
	assert.Equal(t, []string{".news-body img"}, sel.ContentImages)
	assert.Equal(t, []string{"smash"}, sel.ActionKeywords)
	assert.Equal(t, "/wp-content/uploads/", sel.UploadPathSegment, "missing keys keep defaults")
	assert.Equal(t, 150, sel.MaxPreviewChars)

	cfg.SelectorsFile = ""
	sel, err = cfg.Selectors()
	require.NoError(t, err)
	assert.NotEmpty(t, sel.ContentParagraphs)
}

func TestLoadSelectorsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`upload_path_segment: ""`), 0o644))

	_, err := LoadSelectors(path)
	assert.Error(t, err)
}

func TestShippedConfigs(t *testing.T) {
	file, err := os.Open(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	defer file.Close()

	cfg, err := Parse(file, env(nil))
	require.NoError(t, err)
	assert.Equal(t, "bwfbadminton.com", cfg.Site.Domain)
	assert.Len(t, cfg.Listing.Pages, 6)
	assert.True(t, cfg.Listing.Pages[0].LatestOnly)
	assert.Equal(t, 60*time.Second, cfg.GetTotalTimeout())

	sel, err := LoadSelectors(filepath.Join("..", "..", "configs", "selectors.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "img", sel.ContentImages[len(sel.ContentImages)-1])
	assert.NotEmpty(t, sel.ContentText, "keys missing from the file keep defaults")
}
