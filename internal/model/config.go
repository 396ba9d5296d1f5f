package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds every tunable of a run. Values are fixed for the duration
// of one run and handed to each component at construction.
type Config struct {
	Source       SourceConfig       `yaml:"source" mapstructure:"source"`
	Browser      BrowserConfig      `yaml:"browser" mapstructure:"browser"`
	Listing      ListingConfig      `yaml:"listing" mapstructure:"listing"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Resolve      ResolveConfig      `yaml:"resolve" mapstructure:"resolve"`
	Profile      ProfileConfig      `yaml:"profile" mapstructure:"profile"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// SourceConfig describes the directory being scanned
type SourceConfig struct {
	BaseURL      string   `yaml:"base_url" mapstructure:"base_url"`
	ListingURL   string   `yaml:"listing_url" mapstructure:"listing_url"`
	CohortLabels []string `yaml:"cohort_labels" mapstructure:"cohort_labels"`

	CardSelector        string `yaml:"card_selector" mapstructure:"card_selector"`
	NameSelector        string `yaml:"name_selector" mapstructure:"name_selector"`
	DescriptionSelector string `yaml:"description_selector" mapstructure:"description_selector"`
	LabelSelector       string `yaml:"label_selector" mapstructure:"label_selector"`
}

// BrowserConfig configures the rendering engines
type BrowserConfig struct {
	Engines       []string      `yaml:"engines" mapstructure:"engines"` // tried in order
	Headless      bool          `yaml:"headless" mapstructure:"headless"`
	Width         int           `yaml:"width" mapstructure:"width"`
	Height        int           `yaml:"height" mapstructure:"height"`
	NoSandbox     bool          `yaml:"no_sandbox" mapstructure:"no_sandbox"`
	DisableDevShm bool          `yaml:"disable_dev_shm" mapstructure:"disable_dev_shm"`
	ExecPath      string        `yaml:"exec_path,omitempty" mapstructure:"exec_path"`
	UserAgent     string        `yaml:"user_agent,omitempty" mapstructure:"user_agent"`
	StartTimeout  time.Duration `yaml:"start_timeout" mapstructure:"start_timeout"`
	LoadTimeout   time.Duration `yaml:"load_timeout" mapstructure:"load_timeout"`
	SettleDelay   time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
}

// ListingConfig tunes the completion detector
type ListingConfig struct {
	StabilityThreshold int           `yaml:"stability_threshold" mapstructure:"stability_threshold"`
	MaxIterations      int           `yaml:"max_iterations" mapstructure:"max_iterations"`
	SignalPause        time.Duration `yaml:"signal_pause" mapstructure:"signal_pause"`
	IterationPause     time.Duration `yaml:"iteration_pause" mapstructure:"iteration_pause"`
	ScrollStep         int           `yaml:"scroll_step" mapstructure:"scroll_step"`
}

// HTTPConfig configures detail and profile fetches
type HTTPConfig struct {
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent       string        `yaml:"user_agent" mapstructure:"user_agent"`
	RandomUserAgent bool          `yaml:"random_user_agent" mapstructure:"random_user_agent"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots   bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy       string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy      string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy         string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ResolveConfig configures website and profile resolution
type ResolveConfig struct {
	Denylist        []string `yaml:"denylist" mapstructure:"denylist"`
	WebsiteLinkText string   `yaml:"website_link_text" mapstructure:"website_link_text"`
	RedirectMarker  string   `yaml:"redirect_marker" mapstructure:"redirect_marker"`
	RedirectParam   string   `yaml:"redirect_param" mapstructure:"redirect_param"`
	ProfilePattern  string   `yaml:"profile_pattern" mapstructure:"profile_pattern"`
}

// ProfileConfig configures profile inspection
type ProfileConfig struct {
	Markers []string `yaml:"markers" mapstructure:"markers"`
}

// CacheConfig configures the page cache. Disabled unless requested, so a
// scan fetches every detail and profile page as it is now.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitingConfig configures request pacing
type RateLimitingConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
	CompanyPause      time.Duration `yaml:"company_pause" mapstructure:"company_pause"`
}

// ConcurrencyConfig configures the batch inspect command
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig configures the persisted store and console output
type OutputConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	ProgressEvery int    `yaml:"progress_every" mapstructure:"progress_every"`
}

// DefaultConfig returns the configuration for the Summer 2025 cohort
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:             "https://www.ycombinator.com",
			ListingURL:          "https://www.ycombinator.com/companies?batch=Summer%202025",
			CohortLabels:        []string{"Summer 2025", "Spring 2025", "Winter 2025"},
			CardSelector:        `a[class*="_company_"]`,
			NameSelector:        `span[class*="_coName_"]`,
			DescriptionSelector: `div[class*="text-sm"]`,
			LabelSelector:       `span[class*="pill"]`,
		},
		Browser: BrowserConfig{
			Engines:       []string{"chromedp", "rod"},
			Headless:      true,
			Width:         1920,
			Height:        1080,
			NoSandbox:     true,
			DisableDevShm: true,
			StartTimeout:  30 * time.Second,
			LoadTimeout:   20 * time.Second,
			SettleDelay:   3 * time.Second,
		},
		Listing: ListingConfig{
			StabilityThreshold: 3,
			MaxIterations:      20,
			SignalPause:        2 * time.Second,
			IterationPause:     3 * time.Second,
			ScrollStep:         1000,
		},
		HTTP: HTTPConfig{
			Timeout:         10 * time.Second,
			UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
			RandomUserAgent: true,
			MaxBodyBytes:    2_000_000,
		},
		Resolve: ResolveConfig{
			Denylist: []string{
				"ycombinator.com",
				"startupschool.org",
				"linkedin.com",
				"twitter.com",
				"x.com",
				"facebook.com",
				"instagram.com",
			},
			WebsiteLinkText: "Website",
			RedirectMarker:  "/r/goto?",
			RedirectParam:   "url",
			ProfilePattern:  "linkedin.com/company",
		},
		Profile: ProfileConfig{
			Markers: []string{"YC S25", "YCS25"},
		},
		Cache: CacheConfig{
			Enabled:   false,
			Dir:       defaultCacheDir(),
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
			CompanyPause:      2 * time.Second,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 2,
		},
		Output: OutputConfig{
			Path:          "yc_s25_companies.csv",
			ProgressEvery: 10,
		},
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".cohortscan-cache"
	}
	return filepath.Join(dir, "cohortscan")
}
