package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"
)

type Config struct {
	//=== Scrape scope ===
	listingURLs []url.URL
	siteID      string
	topN        int
	maxPosts    int

	//=== Politeness & concurrency ===
	concurrency int
	baseDelay   time.Duration
	jitter      time.Duration
	randomSeed  int64

	//=== Retry & backoff ===
	maxAttempt             int
	backoffInitialDuration time.Duration
	backoffMultiplier      float64
	backoffMaxDuration     time.Duration

	//=== HTTP ===
	timeout   time.Duration
	userAgent string

	//=== Output ===
	outputDir   string
	sqlitePath  string
	catalogPath string
	dryRun      bool
}

// configDTO mirrors Config for JSON decoding. Durations are expressed
// as Go duration strings ("1s", "500ms").
type configDTO struct {
	ListingURLs            []string `json:"listing_urls"`
	SiteID                 string   `json:"site_id"`
	TopN                   int      `json:"top_n"`
	MaxPosts               int      `json:"max_posts"`
	Concurrency            int      `json:"concurrency"`
	BaseDelay              string   `json:"base_delay"`
	Jitter                 string   `json:"jitter"`
	RandomSeed             int64    `json:"random_seed"`
	MaxAttempt             int      `json:"max_attempt"`
	BackoffInitialDuration string   `json:"backoff_initial_duration"`
	BackoffMultiplier      float64  `json:"backoff_multiplier"`
	BackoffMaxDuration     string   `json:"backoff_max_duration"`
	Timeout                string   `json:"timeout"`
	UserAgent              string   `json:"user_agent"`
	OutputDir              string   `json:"output_dir"`
	SQLitePath             string   `json:"sqlite_path"`
	CatalogPath            string   `json:"catalog_path"`
	DryRun                 bool     `json:"dry_run"`
}

// newConfigFromDTO starts from defaults and overrides only the fields
// the file actually set, so a partial config file stays valid.
func newConfigFromDTO(dto configDTO) (*Config, error) {
	var listingURLs []url.URL
	for _, urlStr := range dto.ListingURLs {
		parsed, err := url.Parse(urlStr)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid listing URL %s", ErrConfigParsingFail, urlStr)
		}
		listingURLs = append(listingURLs, *parsed)
	}

	cfg := WithDefault(listingURLs)

	if dto.SiteID != "" {
		cfg = cfg.WithSiteID(dto.SiteID)
	}
	if dto.TopN > 0 {
		cfg = cfg.WithTopN(dto.TopN)
	}
	if dto.MaxPosts > 0 {
		cfg = cfg.WithMaxPosts(dto.MaxPosts)
	}
	if dto.Concurrency > 0 {
		cfg = cfg.WithConcurrency(dto.Concurrency)
	}
	if dto.BaseDelay != "" {
		baseDelay, err := time.ParseDuration(dto.BaseDelay)
		if err != nil {
			return nil, fmt.Errorf("%w: base_delay: %s", ErrConfigParsingFail, err)
		}
		cfg = cfg.WithBaseDelay(baseDelay)
	}
	if dto.Jitter != "" {
		jitter, err := time.ParseDuration(dto.Jitter)
		if err != nil {
			return nil, fmt.Errorf("%w: jitter: %s", ErrConfigParsingFail, err)
		}
		cfg = cfg.WithJitter(jitter)
	}
	if dto.RandomSeed != 0 {
		cfg = cfg.WithRandomSeed(dto.RandomSeed)
	}
	if dto.MaxAttempt > 0 {
		cfg = cfg.WithMaxAttempt(dto.MaxAttempt)
	}
	if dto.BackoffInitialDuration != "" {
		initial, err := time.ParseDuration(dto.BackoffInitialDuration)
		if err != nil {
			return nil, fmt.Errorf("%w: backoff_initial_duration: %s", ErrConfigParsingFail, err)
		}
		cfg = cfg.WithBackoffInitialDuration(initial)
	}
	if dto.BackoffMultiplier > 0 {
		cfg = cfg.WithBackoffMultiplier(dto.BackoffMultiplier)
	}
	if dto.BackoffMaxDuration != "" {
		max, err := time.ParseDuration(dto.BackoffMaxDuration)
		if err != nil {
			return nil, fmt.Errorf("%w: backoff_max_duration: %s", ErrConfigParsingFail, err)
		}
		cfg = cfg.WithBackoffMaxDuration(max)
	}
	if dto.Timeout != "" {
		timeout, err := time.ParseDuration(dto.Timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: timeout: %s", ErrConfigParsingFail, err)
		}
		cfg = cfg.WithTimeout(timeout)
	}
	if dto.UserAgent != "" {
		cfg = cfg.WithUserAgent(dto.UserAgent)
	}
	if dto.OutputDir != "" {
		cfg = cfg.WithOutputDir(dto.OutputDir)
	}
	if dto.SQLitePath != "" {
		cfg = cfg.WithSQLitePath(dto.SQLitePath)
	}
	if dto.CatalogPath != "" {
		cfg = cfg.WithCatalogPath(dto.CatalogPath)
	}
	if dto.DryRun {
		cfg = cfg.WithDryRun(dto.DryRun)
	}

	return cfg, nil
}

// WithConfigFile loads configuration from a JSON file at path.
func WithConfigFile(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err)
	}

	var dto configDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err)
	}

	cfg, err := newConfigFromDTO(dto)
	if err != nil {
		return Config{}, err
	}
	return cfg.Build()
}

// WithDefault returns a Config builder seeded with listingUrls and
// sensible defaults for everything else.
func WithDefault(listingUrls []url.URL) *Config {
	return &Config{
		listingURLs:            listingUrls,
		siteID:                 "generic",
		topN:                   3,
		maxPosts:               0,
		concurrency:            4,
		baseDelay:              1 * time.Second,
		jitter:                 500 * time.Millisecond,
		randomSeed:             time.Now().UnixNano(),
		maxAttempt:             5,
		backoffInitialDuration: 100 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
		timeout:                10 * time.Second,
		userAgent:              "board-scraper/1.0",
		outputDir:              "output",
		sqlitePath:             "posts.db",
	}
}

func (c *Config) WithListingURLs(urls []url.URL) *Config {
	c.listingURLs = urls
	return c
}

func (c *Config) WithSiteID(siteID string) *Config {
	c.siteID = siteID
	return c
}

func (c *Config) WithTopN(n int) *Config {
	c.topN = n
	return c
}

func (c *Config) WithMaxPosts(max int) *Config {
	c.maxPosts = max
	return c
}

func (c *Config) WithConcurrency(concurrency int) *Config {
	c.concurrency = concurrency
	return c
}

func (c *Config) WithBaseDelay(baseDelay time.Duration) *Config {
	c.baseDelay = baseDelay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(maxAttempt int) *Config {
	c.maxAttempt = maxAttempt
	return c
}

func (c *Config) WithBackoffInitialDuration(d time.Duration) *Config {
	c.backoffInitialDuration = d
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(d time.Duration) *Config {
	c.backoffMaxDuration = d
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(userAgent string) *Config {
	c.userAgent = userAgent
	return c
}

func (c *Config) WithOutputDir(dir string) *Config {
	c.outputDir = dir
	return c
}

func (c *Config) WithSQLitePath(path string) *Config {
	c.sqlitePath = path
	return c
}

func (c *Config) WithCatalogPath(path string) *Config {
	c.catalogPath = path
	return c
}

func (c *Config) WithDryRun(dryRun bool) *Config {
	c.dryRun = dryRun
	return c
}

func (c *Config) Build() (Config, error) {
	if len(c.listingURLs) == 0 {
		return Config{}, fmt.Errorf("%w: listingUrls cannot be empty", ErrInvalidConfig)
	}

	if c.topN <= 0 {
		return Config{}, fmt.Errorf("%w: topN must be positive", ErrInvalidConfig)
	}

	if c.concurrency <= 0 {
		return Config{}, fmt.Errorf("%w: concurrency must be positive", ErrInvalidConfig)
	}

	return *c, nil
}

func (c Config) ListingURLs() []url.URL {
	urls := make([]url.URL, len(c.listingURLs))
	copy(urls, c.listingURLs)
	return urls
}

func (c Config) SiteID() string {
	return c.siteID
}

func (c Config) TopN() int {
	return c.topN
}

func (c Config) MaxPosts() int {
	return c.maxPosts
}

func (c Config) Concurrency() int {
	return c.concurrency
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) SQLitePath() string {
	return c.sqlitePath
}

func (c Config) CatalogPath() string {
	return c.catalogPath
}

func (c Config) DryRun() bool {
	return c.dryRun
}
