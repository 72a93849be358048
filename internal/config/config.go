package config

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Site                SiteConfig          `yaml:"site"`
	HTTP                HttpConfig          `yaml:"http"`
	Backoff             BackoffConfig       `yaml:"backoff"`
	RateLimit           RateLimitConfig     `yaml:"rate_limit"`
	RespectRobots       bool                `yaml:"respect_robots"`
	RobotsCacheTTLHours int                 `yaml:"robots_cache_ttl_hours"`
	Proxy               ProxyConfig         `yaml:"proxy"`
	Rod                 RodConfig           `yaml:"rod"`
	Listing             ListingConfig       `yaml:"listing"`
	Discovery           DiscoveryConfig     `yaml:"discovery"`
	SelectorsFile       string              `yaml:"selectors_file"`
	Normalize           NormalizeConfig     `yaml:"normalize"`
	Storage             StorageConfig       `yaml:"storage"`
	Scheduler           SchedulerConfig     `yaml:"scheduler"`
	Observability       ObservabilityConfig `yaml:"observability"`
}

type SiteConfig struct {
	// Domain корневой домен; поддомены считаются доверенными
	Domain string `yaml:"domain"`
}

type HttpConfig struct {
	UserAgent                 string `yaml:"user_agent"`
	AcceptLanguage            string `yaml:"accept_language"`
	ConnectTimeoutMS          int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS            int    `yaml:"total_timeout_ms"`
	MaxRetries                int    `yaml:"max_retries"`
	MaxIdleConnections        int    `yaml:"max_idle_connections"`
	MaxIdleConnectionsPerHost int    `yaml:"max_idle_connections_per_host"`
	IdleConnectionTimeoutS    int    `yaml:"idle_connection_timeout_s"`
}

type BackoffConfig struct {
	MinMS     int `yaml:"min_ms"`
	MaxMS     int `yaml:"max_ms"`
	JitterPct int `yaml:"jitter_pct"`
}

type RateLimitConfig struct {
	MaxConcurrentPerHost int `yaml:"max_concurrent_per_host"`
	RPM                  int `yaml:"rpm"`
}

// ProxyConfig ключи сервисов берутся только из окружения
type ProxyConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Force          bool   `yaml:"force"`
	Country        string `yaml:"country"`
	ScraperAPIKey  string `yaml:"-"`
	ScrapingBeeKey string `yaml:"-"`
}

// HasKey задан ли ключ хотя бы одного сервиса
func (p ProxyConfig) HasKey() bool {
	return p.ScraperAPIKey != "" || p.ScrapingBeeKey != ""
}

type RodConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ChromePath       string `yaml:"chrome_path"`
	PageTimeoutS     int    `yaml:"page_timeout_s"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s"`
	LazyLoadDelayS   int    `yaml:"lazy_load_delay_s"`
}

type ListingPage struct {
	URL        string `yaml:"url"`
	LatestOnly bool   `yaml:"latest_only"`
}

type ListingConfig struct {
	Pages             []ListingPage `yaml:"pages"`
	MaxItems          int           `yaml:"max_items"`
	CandidatesPerPage int           `yaml:"candidates_per_page"`
	Workers           int           `yaml:"workers"`
}

type DiscoveryConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Feeds           []string `yaml:"feeds"`
	GoogleNewsQuery string   `yaml:"google_news_query"`
	Limit           int      `yaml:"limit"`
}

type NormalizeConfig struct {
	MaxPreviewChars int `yaml:"max_preview_chars"`
}

type StorageConfig struct {
	OutputPath    string        `yaml:"output_path"`
	OverridesPath string        `yaml:"overrides_path"`
	Archive       ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig зеркало опубликованных новостей в SQL Server
type ArchiveConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type SchedulerConfig struct {
	Mode      string `yaml:"mode"`
	IntervalS int    `yaml:"interval_s"`
	CronExpr  string `yaml:"cron_expr"`
}

type ObservabilityConfig struct {
	LogPath     string `yaml:"log_path"`
	LogLevel    string `yaml:"log_level"`
	MetricsPath string `yaml:"metrics_path"`
}

// Default значения, с которых начинается загрузка YAML
func Default() *Config {
	return &Config{
		Site: SiteConfig{Domain: "bwfbadminton.com"},
		HTTP: HttpConfig{
			UserAgent:                 "Mozilla/5.0 (compatible; BWFNewsBot/1.0)",
			AcceptLanguage:            "en-US,en;q=0.9",
			ConnectTimeoutMS:          10000,
			TotalTimeoutMS:            60000,
			MaxRetries:                2,
			MaxIdleConnections:        100,
			MaxIdleConnectionsPerHost: 10,
			IdleConnectionTimeoutS:    90,
		},
		Backoff:             BackoffConfig{MinMS: 500, MaxMS: 8000, JitterPct: 20},
		RateLimit:           RateLimitConfig{MaxConcurrentPerHost: 4, RPM: 60},
		RespectRobots:       true,
		RobotsCacheTTLHours: 12,
		Proxy:               ProxyConfig{Country: "de"},
		Rod: RodConfig{
			PageTimeoutS:     45,
			WaitLoadTimeoutS: 30,
			LazyLoadDelayS:   2,
		},
		Listing: ListingConfig{
			Pages: []ListingPage{
				{URL: "https://bwfbadminton.com/", LatestOnly: true},
				{URL: "https://bwfbadminton.com/news/"},
				{URL: "https://corporate.bwfbadminton.com/news/"},
				{URL: "https://bwfworldtour.bwfbadminton.com/news/"},
				{URL: "https://bwfworldchampionships.bwfbadminton.com/news/"},
				{URL: "https://bwfworldtourfinals.bwfbadminton.com/news/"},
			},
			MaxItems:          20,
			CandidatesPerPage: 40,
			Workers:           8,
		},
		Discovery: DiscoveryConfig{
			Enabled:         true,
			Feeds:           []string{"https://bwfbadminton.com/feed/"},
			GoogleNewsQuery: "site:bwfbadminton.com when:365d",
			Limit:           30,
		},
		Normalize: NormalizeConfig{MaxPreviewChars: 220},
		Storage: StorageConfig{
			OutputPath: "public/data/bwf_news.json",
			Archive: ArchiveConfig{
				Driver:           "mssql",
				CommandTimeoutMS: 30000,
			},
		},
		Scheduler:     SchedulerConfig{Mode: "oneshot"},
		Observability: ObservabilityConfig{LogLevel: "info"},
	}
}

// Validation
func (c *Config) Validate() error {
	if c.Site.Domain == "" {
		return fmt.Errorf("site.domain is required")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("http.connect_timeout_ms must be > 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.RateLimit.MaxConcurrentPerHost <= 0 {
		return fmt.Errorf("rate_limit.max_concurrent_per_host must be > 0")
	}
	if c.RateLimit.RPM <= 0 {
		return fmt.Errorf("rate_limit.rpm must be > 0")
	}
	if c.RespectRobots && c.RobotsCacheTTLHours <= 0 {
		return fmt.Errorf("robots_cache_ttl_hours must be > 0")
	}
	if c.Backoff.MinMS <= 0 {
		return fmt.Errorf("backoff.min_ms must be > 0")
	}
	if c.Backoff.MaxMS <= 0 {
		return fmt.Errorf("backoff.max_ms must be > 0")
	}
	if c.Backoff.MinMS > c.Backoff.MaxMS {
		return fmt.Errorf("backoff.min_ms must be <= backoff.max_ms")
	}
	if c.Backoff.JitterPct < 0 || c.Backoff.JitterPct > 100 {
		return fmt.Errorf("backoff.jitter_pct must be between 0 and 100")
	}
	if c.Rod.Enabled {
		if c.Rod.PageTimeoutS <= 0 {
			return fmt.Errorf("rod.page_timeout_s must be > 0")
		}
		if c.Rod.WaitLoadTimeoutS <= 0 {
			return fmt.Errorf("rod.wait_load_timeout_s must be > 0")
		}
		if c.Rod.LazyLoadDelayS < 0 {
			return fmt.Errorf("rod.lazy_load_delay_s must be >= 0")
		}
	}
	if len(c.Listing.Pages) == 0 {
		return fmt.Errorf("listing.pages must not be empty")
	}
	for i, p := range c.Listing.Pages {
		u, err := url.Parse(p.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("listing.pages[%d].url must be an absolute URL", i)
		}
	}
	if c.Listing.MaxItems <= 0 {
		return fmt.Errorf("listing.max_items must be > 0")
	}
	if c.Listing.CandidatesPerPage <= 0 {
		return fmt.Errorf("listing.candidates_per_page must be > 0")
	}
	if c.Listing.Workers <= 0 {
		return fmt.Errorf("listing.workers must be > 0")
	}
	if c.Normalize.MaxPreviewChars <= 0 {
		return fmt.Errorf("normalize.max_preview_chars must be > 0")
	}
	if c.Storage.OutputPath == "" {
		return fmt.Errorf("storage.output_path is required")
	}
	if c.Storage.Archive.Enabled {
		if c.Storage.Archive.Driver != "mssql" {
			return fmt.Errorf("storage.archive.driver must be 'mssql'")
		}
		if c.Storage.Archive.DSN == "" {
			return fmt.Errorf("storage.archive.dsn is required when archive is enabled")
		}
		if c.Storage.Archive.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.archive.command_timeout_ms must be > 0")
		}
	}
	if c.Scheduler.Mode != "interval" && c.Scheduler.Mode != "cron" && c.Scheduler.Mode != "oneshot" {
		return fmt.Errorf("scheduler.mode must be 'interval', 'cron' or 'oneshot'")
	}
	if c.Scheduler.Mode == "interval" && c.Scheduler.IntervalS <= 0 {
		return fmt.Errorf("scheduler.interval_s must be > 0 when mode is 'interval'")
	}
	if c.Scheduler.Mode == "cron" && c.Scheduler.CronExpr == "" {
		return fmt.Errorf("scheduler.cron_expr must be set when mode is 'cron'")
	}
	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("observability.log_level must be one of debug, info, warn, error")
	}
	return nil
}

// Getters
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetIdleConnectionTimeout() time.Duration {
	return time.Duration(c.HTTP.IdleConnectionTimeoutS) * time.Second
}

func (c *Config) GetBackoffMin() time.Duration {
	return time.Duration(c.Backoff.MinMS) * time.Millisecond
}

func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.Backoff.MaxMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.Archive.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetSchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalS) * time.Second
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.RobotsCacheTTLHours) * time.Hour
}
