package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohmanhakim/board-scraper/internal/config"
	"github.com/rohmanhakim/board-scraper/internal/export"
	"github.com/rohmanhakim/board-scraper/internal/fetcher"
	"github.com/rohmanhakim/board-scraper/internal/listing"
	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"github.com/rohmanhakim/board-scraper/internal/post"
	"github.com/rohmanhakim/board-scraper/internal/report"
	"github.com/rohmanhakim/board-scraper/internal/sanitizer"
	"github.com/rohmanhakim/board-scraper/internal/selection"
	"github.com/rohmanhakim/board-scraper/internal/sitecfg"
	"github.com/rohmanhakim/board-scraper/internal/storage"
	"github.com/rohmanhakim/board-scraper/internal/worklist"
	"github.com/rohmanhakim/board-scraper/pkg/failure"
	"github.com/rohmanhakim/board-scraper/pkg/hashutil"
	"github.com/rohmanhakim/board-scraper/pkg/limiter"
	"github.com/rohmanhakim/board-scraper/pkg/retry"
	"github.com/rohmanhakim/board-scraper/pkg/timeutil"
	"golang.org/x/net/html"
)

/*
 Scheduler is the sole control-plane authority of the run.

 Determinism and admission guarantees:
 - Scheduler is the ONLY component allowed to decide which posts
   enter the worklist.
 - Selection (top-N per metric) and admission (dedup, cap) MUST be
   completed before any post task is handed to a worker.
 - No other component may enqueue, reject, or reorder tasks.
 - Pipeline stages may detect and classify failure, but must never
   decide retry, continuation, or abortion.

 Metadata emission is observational only and MUST NOT influence
 scheduling, retries, or run termination.

 Scheduler Responsibilities:
 - Coordinate run lifecycle
 - Enforce global limits (posts, top-N)
 - Apply per-host politeness delays and backoff
 - Aggregate run statistics
 - The sole authority on:
	- retry
	- continue
	- abort
*/

type Scheduler struct {
	metadataSink     metadata.MetadataSink
	runFinalizer     metadata.RunFinalizer
	htmlFetcher      fetcher.HtmlFetcher
	htmlSanitizer    sanitizer.HtmlSanitizer
	listingExtractor listing.Extractor
	assembler        post.Assembler
	exporter         export.Exporter
	fileSink         storage.FileSink
	rateLimiter      *limiter.ConcurrentRateLimiter
}

func NewScheduler() (Scheduler, error) {
	recorder, err := metadata.NewProductionRecorder("scheduler")
	if err != nil {
		return Scheduler{}, err
	}
	return NewSchedulerWithDeps(&recorder, &recorder), nil
}

// NewSchedulerWithDeps creates a Scheduler with injected metadata
// dependencies so tests can observe behavior without real infrastructure.
func NewSchedulerWithDeps(
	runFinalizer metadata.RunFinalizer,
	metadataSink metadata.MetadataSink,
) Scheduler {
	return Scheduler{
		metadataSink:     metadataSink,
		runFinalizer:     runFinalizer,
		htmlFetcher:      fetcher.NewHtmlFetcher(metadataSink),
		htmlSanitizer:    sanitizer.NewHTMLSanitizer(metadataSink),
		listingExtractor: listing.NewExtractor(metadataSink),
		assembler:        post.NewAssembler(metadataSink),
		exporter:         export.NewExporter(metadataSink),
		fileSink:         storage.NewFileSink(metadataSink),
		rateLimiter:      limiter.NewConcurrentRateLimiter(),
	}
}

// runState is the mutable state shared by workers during one run.
// All fields are guarded by mu.
type runState struct {
	mu           sync.Mutex
	totalPosts   int
	totalErrors  int
	totalBlocks  int
	writeResults []storage.WriteResult
	fatal        failure.ClassifiedError
}

func (r *runState) countError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalErrors++
}

func (r *runState) countStored(blocks int, writeResult *storage.WriteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalPosts++
	r.totalBlocks += blocks
	if writeResult != nil {
		r.writeResults = append(r.writeResults, *writeResult)
	}
}

func (r *runState) recordFatal(err failure.ClassifiedError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fatal == nil {
		r.fatal = err
	}
}

func (r *runState) aborted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fatal != nil
}

// ExecuteRun performs one complete scrape: fetch listings, select the
// top posts per metric, then extract and persist each admitted post
// with a bounded worker pool.
func (s *Scheduler) ExecuteRun(ctx context.Context, cfg config.Config) (RunExecution, error) {
	runID := uuid.NewString()
	runStartTime := time.Now()
	state := &runState{}

	// Ensure final stats are recorded even if errors occur
	defer func() {
		s.runFinalizer.RecordFinalRunStats(
			state.totalPosts,
			state.totalErrors,
			state.totalBlocks,
			time.Since(runStartTime),
		)
	}()

	site, err := s.resolveSite(cfg)
	if err != nil {
		return RunExecution{}, err
	}

	retryParam := retry.NewRetryParam(
		cfg.BaseDelay(),
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		timeutil.NewBackoffParam(
			cfg.BackoffInitialDuration(),
			cfg.BackoffMultiplier(),
			cfg.BackoffMaxDuration(),
		),
	)

	s.rateLimiter.SetBaseDelay(cfg.BaseDelay())
	s.rateLimiter.SetJitter(cfg.Jitter())
	s.rateLimiter.SetRandomSeed(cfg.RandomSeed())

	// 1. Fetch every listing page and collect candidate entries
	entries := []selection.Entry{}
	for _, listingURL := range cfg.ListingURLs() {
		doc, fetchErr := s.fetchDocument(ctx, listingURL, cfg, retryParam)
		if fetchErr != nil {
			// A dead listing is contained; other listings may still yield posts.
			state.countError()
			continue
		}
		entries = append(entries, s.listingExtractor.Extract(doc, listingURL, site)...)
	}

	// 2. Select the top N per metric, each post claimed by one list only
	picked := selection.Select(entries, cfg.TopN())

	// 3. Admission: dedup by canonical URL, enforce the per-run cap
	tasks := worklist.New(cfg.MaxPosts())
	admit := func(claimed []selection.Entry, metric worklist.Metric) {
		for _, entry := range claimed {
			tasks.Admit(worklist.Item{
				Entry:     entry,
				SiteID:    site.SiteID,
				ClaimedBy: metric,
			})
		}
	}
	admit(picked.ByLikes, worklist.MetricLikes)
	admit(picked.ByComments, worklist.MetricComments)
	admit(picked.ByViews, worklist.MetricViews)

	var postSink storage.PostSink
	if !cfg.DryRun() {
		sqliteSink, sinkErr := storage.NewSQLiteSink(s.metadataSink, cfg.SQLitePath())
		if sinkErr != nil {
			return RunExecution{}, sinkErr
		}
		defer sqliteSink.Close()
		postSink = sqliteSink
	}

	reportBuilder := report.NewBuilder(s.metadataSink, runID)

	// 4. Extract admitted posts with a bounded worker pool
	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if state.aborted() {
					return
				}
				item, ok := tasks.Next()
				if !ok {
					return
				}
				s.processItem(ctx, cfg, site, item, runID, retryParam, postSink, reportBuilder, state)
			}
		}()
	}
	wg.Wait()

	if state.fatal != nil {
		return RunExecution{}, state.fatal
	}

	// 5. Write the run index
	reportPath := ""
	if !cfg.DryRun() {
		var reportErr failure.ClassifiedError
		reportPath, reportErr = reportBuilder.Write(cfg.OutputDir())
		if reportErr != nil {
			return RunExecution{}, reportErr
		}
	}

	return RunExecution{
		RunID:        runID,
		WriteResults: state.writeResults,
		ReportPath:   reportPath,
		StoredPosts:  state.totalPosts,
	}, nil
}

// processItem runs the per-post pipeline: politeness delay, fetch,
// sanitize, assemble, persist, export. Failures are recorded as run
// outcomes; only fatal persistence failures abort the run.
func (s *Scheduler) processItem(
	ctx context.Context,
	cfg config.Config,
	site sitecfg.Site,
	item worklist.Item,
	runID string,
	retryParam retry.RetryParam,
	postSink storage.PostSink,
	reportBuilder *report.Builder,
	state *runState,
) {
	outcome := report.Outcome{
		PostID:    item.Entry.ID,
		SiteID:    item.SiteID,
		Title:     item.Entry.Title,
		URL:       item.Entry.URL,
		ClaimedBy: item.ClaimedBy,
	}

	postURL, parseErr := url.Parse(item.Entry.URL)
	if parseErr != nil {
		outcome.Err = parseErr.Error()
		reportBuilder.Record(outcome)
		state.countError()
		return
	}

	// Fetch and assembly failures are post-scoped: a removed or
	// geo-blocked post is recorded and the run moves on.
	doc, fetchErr := s.fetchDocument(ctx, *postURL, cfg, retryParam)
	if fetchErr != nil {
		outcome.Err = fetchErr.Error()
		reportBuilder.Record(outcome)
		state.countError()
		return
	}

	assembled, assembleErr := s.assembler.Assemble(doc, *postURL, site, item.Entry, runID)
	if assembleErr != nil {
		outcome.Err = assembleErr.Error()
		reportBuilder.Record(outcome)
		state.countError()
		return
	}

	outcome.Blocks = len(assembled.Content)
	outcome.Comments = len(assembled.Comments)

	if cfg.DryRun() {
		reportBuilder.Record(outcome)
		state.countStored(len(assembled.Content), nil)
		return
	}

	if storeErr := postSink.Store(ctx, assembled); storeErr != nil {
		outcome.Err = storeErr.Error()
		reportBuilder.Record(outcome)
		if storeErr.Severity() == failure.SeverityFatal {
			state.recordFatal(storeErr)
			return
		}
		state.countError()
		return
	}

	markdownDoc, exportErr := s.exporter.Export(assembled)
	if exportErr != nil {
		outcome.Err = exportErr.Error()
		reportBuilder.Record(outcome)
		state.countError()
		return
	}

	writeResult, writeErr := s.fileSink.Write(cfg.OutputDir(), markdownDoc, hashutil.HashAlgoBLAKE3)
	if writeErr != nil {
		outcome.Err = writeErr.Error()
		reportBuilder.Record(outcome)
		if writeErr.Severity() == failure.SeverityFatal {
			state.recordFatal(writeErr)
			return
		}
		state.countError()
		return
	}

	outcome.Stored = true
	outcome.WritePath = writeResult.Path()
	reportBuilder.Record(outcome)
	state.countStored(len(assembled.Content), &writeResult)
}

// fetchDocument applies the per-host politeness delay, fetches the page
// with retry, and parses the response body. Retry exhaustion triggers
// host-level backoff so subsequent requests to the host slow down.
func (s *Scheduler) fetchDocument(
	ctx context.Context,
	fetchURL url.URL,
	cfg config.Config,
	retryParam retry.RetryParam,
) (*html.Node, failure.ClassifiedError) {
	host := fetchURL.Host

	if delay := s.rateLimiter.ResolveDelay(host); delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &scheduleError{message: ctx.Err().Error()}
		}
	}

	fetchCtx := ctx
	if cfg.Timeout() > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, cfg.Timeout())
		defer cancel()
	}

	fetchParam := fetcher.NewFetchParam(fetchURL, cfg.UserAgent())
	result, err := s.htmlFetcher.Fetch(fetchCtx, fetchParam, retryParam)
	s.rateLimiter.MarkLastFetchAsNow(host)
	if err != nil {
		if shouldBackoff(err) {
			s.rateLimiter.Backoff(host)
		}
		return nil, err
	}
	s.rateLimiter.ResetBackoff(host)

	doc, parseErr := html.Parse(bytes.NewReader(result.Body()))
	if parseErr != nil {
		return nil, &scheduleError{
			message: fmt.Sprintf("parse %s: %s", fetchURL.String(), parseErr),
		}
	}

	return s.htmlSanitizer.Sanitize(doc), nil
}

// shouldBackoff reports whether a fetch failure indicates host pressure
// (rate limiting or server errors) rather than a terminal response.
func shouldBackoff(err failure.ClassifiedError) bool {
	var retryErr *retry.RetryError
	if errors.As(err, &retryErr) {
		return true
	}
	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.IsRetryable()
	}
	return false
}

func (s *Scheduler) resolveSite(cfg config.Config) (sitecfg.Site, error) {
	catalog := sitecfg.NewCatalog()
	if cfg.CatalogPath() != "" {
		loaded, err := sitecfg.LoadCatalog(cfg.CatalogPath())
		if err != nil {
			s.metadataSink.RecordError(
				time.Now(),
				"scheduler",
				"sitecfg.LoadCatalog",
				metadata.CauseContentInvalid,
				err.Error(),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrField, cfg.CatalogPath()),
				},
			)
			return sitecfg.Site{}, err
		}
		catalog = loaded
	}

	site, ok := catalog.Get(cfg.SiteID())
	if !ok {
		err := fmt.Errorf("unknown site id %q", cfg.SiteID())
		s.metadataSink.RecordError(
			time.Now(),
			"scheduler",
			"site resolution",
			metadata.CauseContentInvalid,
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrSite, cfg.SiteID()),
			},
		)
		return sitecfg.Site{}, err
	}
	return site, nil
}
