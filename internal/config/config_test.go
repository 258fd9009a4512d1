package config_test

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/board-scraper/internal/config"
)

func TestWithDefault(t *testing.T) {
	testURLs := []url.URL{
		{Scheme: "https", Host: "board.example.com", Path: "/forum"},
	}

	cfg := config.WithDefault(testURLs)

	if cfg == nil {
		t.Fatal("WithDefault() returned nil")
	}

	builtCfg, err := cfg.Build()
	if err != nil {
		t.Errorf("should not have any error, got %v", err)
	}

	if len(builtCfg.ListingURLs()) != 1 {
		t.Errorf("expected 1 listing URL, got %d", len(builtCfg.ListingURLs()))
	}
	if builtCfg.SiteID() != "generic" {
		t.Errorf("expected SiteID 'generic', got '%s'", builtCfg.SiteID())
	}
	if builtCfg.TopN() != 3 {
		t.Errorf("expected TopN 3, got %d", builtCfg.TopN())
	}
	if builtCfg.MaxPosts() != 0 {
		t.Errorf("expected MaxPosts 0 (unlimited), got %d", builtCfg.MaxPosts())
	}
	if builtCfg.Concurrency() != 4 {
		t.Errorf("expected Concurrency 4, got %d", builtCfg.Concurrency())
	}

	if builtCfg.BaseDelay() != time.Second {
		t.Errorf("expected BaseDelay 1s, got %v", builtCfg.BaseDelay())
	}
	if builtCfg.Jitter() != 500*time.Millisecond {
		t.Errorf("expected Jitter 500ms, got %v", builtCfg.Jitter())
	}
	if builtCfg.Timeout() != 10*time.Second {
		t.Errorf("expected Timeout 10s, got %v", builtCfg.Timeout())
	}

	if builtCfg.UserAgent() != "board-scraper/1.0" {
		t.Errorf("expected UserAgent 'board-scraper/1.0', got '%s'", builtCfg.UserAgent())
	}
	if builtCfg.OutputDir() != "output" {
		t.Errorf("expected OutputDir 'output', got '%s'", builtCfg.OutputDir())
	}
	if builtCfg.SQLitePath() != "posts.db" {
		t.Errorf("expected SQLitePath 'posts.db', got '%s'", builtCfg.SQLitePath())
	}
	if builtCfg.DryRun() != false {
		t.Errorf("expected DryRun false, got %v", builtCfg.DryRun())
	}

	if builtCfg.RandomSeed() == 0 {
		t.Error("expected RandomSeed to be set, got 0")
	}

	if builtCfg.MaxAttempt() != 5 {
		t.Errorf("expected MaxAttempt 5, got %d", builtCfg.MaxAttempt())
	}
	if builtCfg.BackoffInitialDuration() != 100*time.Millisecond {
		t.Errorf("expected BackoffInitialDuration 100ms, got %v", builtCfg.BackoffInitialDuration())
	}
	if builtCfg.BackoffMultiplier() != 2.0 {
		t.Errorf("expected BackoffMultiplier 2.0, got %f", builtCfg.BackoffMultiplier())
	}
	if builtCfg.BackoffMaxDuration() != 10*time.Second {
		t.Errorf("expected BackoffMaxDuration 10s, got %v", builtCfg.BackoffMaxDuration())
	}
}

func TestWithDefault_EmptyListingUrls(t *testing.T) {
	cfg := config.WithDefault([]url.URL{})

	_, err := cfg.Build()
	if err == nil {
		t.Errorf("should error")
	}

	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig err, got %v", err)
	}
}

func TestBuild_InvalidTopN(t *testing.T) {
	testURLs := []url.URL{
		{Scheme: "https", Host: "board.example.com"},
	}

	_, err := config.WithDefault(testURLs).WithTopN(0).Build()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig err, got %v", err)
	}
}

func TestBuild_InvalidConcurrency(t *testing.T) {
	testURLs := []url.URL{
		{Scheme: "https", Host: "board.example.com"},
	}

	_, err := config.WithDefault(testURLs).WithConcurrency(-1).Build()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig err, got %v", err)
	}
}

func TestChainedSetters(t *testing.T) {
	testURLs := []url.URL{
		{Scheme: "https", Host: "board.example.com"},
	}

	builtCfg, err := config.WithDefault(testURLs).
		WithSiteID("phpbb").
		WithTopN(5).
		WithMaxPosts(20).
		WithConcurrency(2).
		WithBaseDelay(2*time.Second).
		WithJitter(time.Second).
		WithRandomSeed(42).
		WithMaxAttempt(3).
		WithBackoffInitialDuration(200*time.Millisecond).
		WithBackoffMultiplier(1.5).
		WithBackoffMaxDuration(5*time.Second).
		WithTimeout(30*time.Second).
		WithUserAgent("custom/2.0").
		WithOutputDir("/tmp/out").
		WithSQLitePath("/tmp/posts.db").
		WithCatalogPath("/tmp/sites.json").
		WithDryRun(true).
		Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	if builtCfg.SiteID() != "phpbb" {
		t.Errorf("expected SiteID 'phpbb', got '%s'", builtCfg.SiteID())
	}
	if builtCfg.TopN() != 5 {
		t.Errorf("expected TopN 5, got %d", builtCfg.TopN())
	}
	if builtCfg.MaxPosts() != 20 {
		t.Errorf("expected MaxPosts 20, got %d", builtCfg.MaxPosts())
	}
	if builtCfg.Concurrency() != 2 {
		t.Errorf("expected Concurrency 2, got %d", builtCfg.Concurrency())
	}
	if builtCfg.BaseDelay() != 2*time.Second {
		t.Errorf("expected BaseDelay 2s, got %v", builtCfg.BaseDelay())
	}
	if builtCfg.RandomSeed() != 42 {
		t.Errorf("expected RandomSeed 42, got %d", builtCfg.RandomSeed())
	}
	if builtCfg.MaxAttempt() != 3 {
		t.Errorf("expected MaxAttempt 3, got %d", builtCfg.MaxAttempt())
	}
	if builtCfg.UserAgent() != "custom/2.0" {
		t.Errorf("expected UserAgent 'custom/2.0', got '%s'", builtCfg.UserAgent())
	}
	if builtCfg.OutputDir() != "/tmp/out" {
		t.Errorf("expected OutputDir '/tmp/out', got '%s'", builtCfg.OutputDir())
	}
	if builtCfg.SQLitePath() != "/tmp/posts.db" {
		t.Errorf("expected SQLitePath '/tmp/posts.db', got '%s'", builtCfg.SQLitePath())
	}
	if builtCfg.CatalogPath() != "/tmp/sites.json" {
		t.Errorf("expected CatalogPath '/tmp/sites.json', got '%s'", builtCfg.CatalogPath())
	}
	if !builtCfg.DryRun() {
		t.Error("expected DryRun true")
	}
}

func TestWithConfigFile(t *testing.T) {
	content := `{
		"listing_urls": ["https://board.example.com/forum"],
		"site_id": "discourse",
		"top_n": 2,
		"concurrency": 8,
		"base_delay": "2s",
		"jitter": "250ms",
		"max_attempt": 7,
		"backoff_initial_duration": "50ms",
		"backoff_multiplier": 3.0,
		"backoff_max_duration": "20s",
		"timeout": "15s",
		"user_agent": "file-agent/1.0",
		"output_dir": "scraped",
		"sqlite_path": "scraped/posts.db",
		"dry_run": true
	}`

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := config.WithConfigFile(path)
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	if len(cfg.ListingURLs()) != 1 {
		t.Fatalf("expected 1 listing URL, got %d", len(cfg.ListingURLs()))
	}
	if cfg.ListingURLs()[0].Host != "board.example.com" {
		t.Errorf("expected host 'board.example.com', got '%s'", cfg.ListingURLs()[0].Host)
	}
	if cfg.SiteID() != "discourse" {
		t.Errorf("expected SiteID 'discourse', got '%s'", cfg.SiteID())
	}
	if cfg.TopN() != 2 {
		t.Errorf("expected TopN 2, got %d", cfg.TopN())
	}
	if cfg.Concurrency() != 8 {
		t.Errorf("expected Concurrency 8, got %d", cfg.Concurrency())
	}
	if cfg.BaseDelay() != 2*time.Second {
		t.Errorf("expected BaseDelay 2s, got %v", cfg.BaseDelay())
	}
	if cfg.Jitter() != 250*time.Millisecond {
		t.Errorf("expected Jitter 250ms, got %v", cfg.Jitter())
	}
	if cfg.MaxAttempt() != 7 {
		t.Errorf("expected MaxAttempt 7, got %d", cfg.MaxAttempt())
	}
	if cfg.BackoffMultiplier() != 3.0 {
		t.Errorf("expected BackoffMultiplier 3.0, got %f", cfg.BackoffMultiplier())
	}
	if cfg.Timeout() != 15*time.Second {
		t.Errorf("expected Timeout 15s, got %v", cfg.Timeout())
	}
	if cfg.UserAgent() != "file-agent/1.0" {
		t.Errorf("expected UserAgent 'file-agent/1.0', got '%s'", cfg.UserAgent())
	}
	if cfg.OutputDir() != "scraped" {
		t.Errorf("expected OutputDir 'scraped', got '%s'", cfg.OutputDir())
	}
	if cfg.SQLitePath() != "scraped/posts.db" {
		t.Errorf("expected SQLitePath 'scraped/posts.db', got '%s'", cfg.SQLitePath())
	}
	if !cfg.DryRun() {
		t.Error("expected DryRun true")
	}
}

func TestWithConfigFile_PartialFileKeepsDefaults(t *testing.T) {
	content := `{
		"listing_urls": ["https://board.example.com/forum"],
		"top_n": 1
	}`

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := config.WithConfigFile(path)
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	if cfg.TopN() != 1 {
		t.Errorf("expected TopN 1, got %d", cfg.TopN())
	}
	if cfg.Concurrency() != 4 {
		t.Errorf("expected default Concurrency 4, got %d", cfg.Concurrency())
	}
	if cfg.UserAgent() != "board-scraper/1.0" {
		t.Errorf("expected default UserAgent, got '%s'", cfg.UserAgent())
	}
}

func TestWithConfigFile_DoesNotExist(t *testing.T) {
	_, err := config.WithConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, config.ErrFileDoesNotExist) {
		t.Errorf("expected ErrFileDoesNotExist, got %v", err)
	}
}

func TestWithConfigFile_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := config.WithConfigFile(path)
	if !errors.Is(err, config.ErrConfigParsingFail) {
		t.Errorf("expected ErrConfigParsingFail, got %v", err)
	}
}

func TestWithConfigFile_EmptyListingUrls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"top_n": 2}`), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := config.WithConfigFile(path)
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestListingURLs_ReturnsCopy(t *testing.T) {
	testURLs := []url.URL{
		{Scheme: "https", Host: "board.example.com"},
	}

	builtCfg, err := config.WithDefault(testURLs).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	urls := builtCfg.ListingURLs()
	urls[0].Host = "tampered.example.com"

	if builtCfg.ListingURLs()[0].Host != "board.example.com" {
		t.Error("ListingURLs() must return a copy, not the internal slice")
	}
}
