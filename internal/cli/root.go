package cmd

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/rohmanhakim/board-scraper/internal/build"
	"github.com/rohmanhakim/board-scraper/internal/config"
	"github.com/rohmanhakim/board-scraper/internal/scheduler"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	listingURLs []string
	siteID      string
	topN        int
	maxPosts    int
	concurrency int
	outputDir   string
	sqlitePath  string
	catalogPath string
	dryRun      bool
	userAgent   string
	timeout     time.Duration
	baseDelay   time.Duration
	jitter      time.Duration
	randomSeed  int64
	maxAttempt  int
)

// parseListingURLs converts a string slice of URLs to []url.URL
func parseListingURLs(urlStrings []string) ([]url.URL, error) {
	if len(urlStrings) == 0 {
		return nil, fmt.Errorf("listing URLs cannot be empty")
	}

	var urls []url.URL
	for _, urlStr := range urlStrings {
		parsedURL, err := url.Parse(urlStr)
		if err != nil {
			return nil, fmt.Errorf("error parsing listing URL %s: %w", urlStr, err)
		}
		urls = append(urls, *parsedURL)
	}
	return urls, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "board-scraper",
	Version: build.FullVersion(),
	Short:   "A discussion-board post scraper.",
	Long: `board-scraper fetches discussion-board listing pages, selects the most
popular posts per metric (likes, comments, views), and extracts each post's
content and comment thread into SQLite and Markdown artifacts.

Selection, admission and politeness are deterministic for a given seed so a
run can be repeated and audited.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(listingURLs) == 0 {
			fmt.Fprintf(os.Stderr, "Error: --listing-url is required. Please provide at least one board listing URL.\n")
			cmd.Usage()
			os.Exit(1)
		}

		parsedURLs, err := parseListingURLs(listingURLs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}

		cfg := InitConfig(parsedURLs)

		sched, err := scheduler.NewScheduler()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}

		execution, err := sched.ExecuteRun(cmd.Context(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: scrape run failed: %s\n", err)
			os.Exit(1)
		}

		fmt.Printf("Run %s finished\n", execution.RunID)
		fmt.Printf("Posts stored: %d\n", execution.StoredPosts)
		if execution.ReportPath != "" {
			fmt.Printf("Run index: %s\n", execution.ReportPath)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringArrayVar(&listingURLs, "listing-url", []string{}, "one or more board listing URLs (can be repeated)")
	rootCmd.PersistentFlags().StringVar(&siteID, "site", "", "site catalog entry to use (generic, phpbb, discourse, xenforo)")
	rootCmd.PersistentFlags().IntVar(&topN, "top-n", 0, "number of posts to take per popularity metric")
	rootCmd.PersistentFlags().IntVar(&maxPosts, "max-posts", 0, "maximum number of posts to extract (0 for unlimited)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "number of concurrent extraction workers")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "root output directory for scraped artifacts")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "", "path of the SQLite database file")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog-file", "", "JSON file overriding the built-in site catalog")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "scrape without writing artifacts")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&baseDelay, "base-delay", 0, "base delay between HTTP requests to the same host")
	rootCmd.PersistentFlags().DurationVar(&jitter, "jitter", 0, "random jitter added to base delay")
	rootCmd.PersistentFlags().Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 for current time)")
	rootCmd.PersistentFlags().IntVar(&maxAttempt, "max-attempt", 0, "maximum fetch attempts per request")
}

// InitConfig reads in config file and CLI flags.
// listingUrls is a mandatory parameter and must contain at least one valid URL.
func InitConfig(listingUrls []url.URL) config.Config {
	cfg, err := InitConfigWithError(listingUrls)
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError reads in config file and CLI flags, returning any errors.
// listingUrls is a mandatory parameter and must contain at least one valid URL.
// This makes it easier to test error cases.
func InitConfigWithError(listingUrls []url.URL) (config.Config, error) {
	if len(listingUrls) == 0 {
		return config.Config{}, fmt.Errorf("%w: listingUrls cannot be empty", config.ErrInvalidConfig)
	}

	if cfgFile != "" {
		fmt.Printf("Initializing config from file: %s\n", cfgFile)
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	// Build config from CLI flags using the With... functions with method chaining
	fmt.Println("No config file specified. Using default flag values")

	configBuilder := config.WithDefault(listingUrls)

	if siteID != "" {
		configBuilder = configBuilder.WithSiteID(siteID)
	}

	if topN > 0 {
		configBuilder = configBuilder.WithTopN(topN)
	}

	if maxPosts > 0 {
		configBuilder = configBuilder.WithMaxPosts(maxPosts)
	}

	if concurrency > 0 {
		configBuilder = configBuilder.WithConcurrency(concurrency)
	}

	if outputDir != "" && outputDir != "output" {
		configBuilder = configBuilder.WithOutputDir(outputDir)
	}

	if sqlitePath != "" {
		configBuilder = configBuilder.WithSQLitePath(sqlitePath)
	}

	if catalogPath != "" {
		configBuilder = configBuilder.WithCatalogPath(catalogPath)
	}

	if dryRun {
		configBuilder = configBuilder.WithDryRun(dryRun)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if baseDelay > 0 {
		configBuilder = configBuilder.WithBaseDelay(baseDelay)
	}

	if jitter > 0 {
		configBuilder = configBuilder.WithJitter(jitter)
	}

	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func ResetFlags() {
	cfgFile = ""
	listingURLs = []string{}
	siteID = ""
	topN = 0
	maxPosts = 0
	concurrency = 0
	outputDir = ""
	sqlitePath = ""
	catalogPath = ""
	dryRun = false
	userAgent = ""
	timeout = 0
	baseDelay = 0
	jitter = 0
	randomSeed = 0
	maxAttempt = 0
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetListingURLsForTest(urls []string) {
	listingURLs = urls
}

func SetSiteIDForTest(site string) {
	siteID = site
}

func SetTopNForTest(n int) {
	topN = n
}

func SetMaxPostsForTest(max int) {
	maxPosts = max
}

func SetConcurrencyForTest(conc int) {
	concurrency = conc
}

func SetOutputDirForTest(dir string) {
	outputDir = dir
}

func SetSQLitePathForTest(path string) {
	sqlitePath = path
}

func SetCatalogPathForTest(path string) {
	catalogPath = path
}

func SetDryRunForTest(dry bool) {
	dryRun = dry
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetBaseDelayForTest(delay time.Duration) {
	baseDelay = delay
}

func SetJitterForTest(j time.Duration) {
	jitter = j
}

func SetRandomSeedForTest(seed int64) {
	randomSeed = seed
}

func SetMaxAttemptForTest(attempts int) {
	maxAttempt = attempts
}
