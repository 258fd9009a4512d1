package scheduler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/board-scraper/internal/config"
	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"github.com/rohmanhakim/board-scraper/internal/scheduler"
	"github.com/rohmanhakim/board-scraper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunFinalizer captures the terminal run statistics.
type mockRunFinalizer struct {
	mu          sync.Mutex
	calls       int
	totalPosts  int
	totalErrors int
	totalBlocks int
}

func (m *mockRunFinalizer) RecordFinalRunStats(
	totalPosts int,
	totalErrors int,
	totalBlocks int,
	duration time.Duration,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.totalPosts = totalPosts
	m.totalErrors = totalErrors
	m.totalBlocks = totalBlocks
}

const listingPage = `<html><body>
<table class="board-list"><tbody>
<tr data-post-id="p1">
  <td><a class="post-link" href="/posts/p1">Alpha</a></td>
  <td class="likes">10</td><td class="comments">1</td><td class="views">5</td>
</tr>
<tr data-post-id="p2">
  <td><a class="post-link" href="/posts/p2">Beta</a></td>
  <td class="likes">2</td><td class="comments">9</td><td class="views">6</td>
</tr>
<tr data-post-id="p3">
  <td><a class="post-link" href="/posts/p3">Gamma</a></td>
  <td class="likes">1</td><td class="comments">2</td><td class="views">99</td>
</tr>
</tbody></table>
</body></html>`

func postPage(id string) string {
	return fmt.Sprintf(`<html><body>
<h1 class="post-title">Post %s</h1>
<div class="post-author">alice</div>
<div class="post-time">2026-08-01</div>
<div class="post-body">
  <p>Body of %s.</p>
  <img src="/img/%s.png" alt="photo"/>
</div>
<ul class="comment-list">
  <li class="comment" data-comment-id="c1" data-depth="0">
    <span class="comment-author">bob</span>
    <div class="comment-body">First</div>
  </li>
  <li class="comment" data-comment-id="c2" data-depth="1">
    <span class="comment-author">carol</span>
    <div class="comment-body">Reply</div>
  </li>
</ul>
</body></html>`, id, id, id)
}

// newBoardServer serves one listing page and three posts. missing lists
// post ids that should answer 404.
func newBoardServer(t *testing.T, missing ...string) *httptest.Server {
	t.Helper()
	missingSet := map[string]bool{}
	for _, id := range missing {
		missingSet[id] = true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, listingPage)
	})
	mux.HandleFunc("/posts/", func(w http.ResponseWriter, r *http.Request) {
		id := filepath.Base(r.URL.Path)
		if missingSet[id] {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, postPage(id))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, serverURL string, outputDir string) config.Config {
	t.Helper()
	listingURL, err := url.Parse(serverURL + "/listing")
	require.NoError(t, err)

	cfg, buildErr := config.WithDefault([]url.URL{*listingURL}).
		WithTopN(1).
		WithConcurrency(2).
		WithBaseDelay(time.Millisecond).
		WithJitter(time.Millisecond).
		WithRandomSeed(42).
		WithMaxAttempt(2).
		WithBackoffInitialDuration(time.Millisecond).
		WithBackoffMaxDuration(5 * time.Millisecond).
		WithTimeout(5 * time.Second).
		WithOutputDir(outputDir).
		WithSQLitePath(filepath.Join(outputDir, "posts.db")).
		Build()
	require.NoError(t, buildErr)
	return cfg
}

func TestExecuteRun_EndToEnd(t *testing.T) {
	server := newBoardServer(t)
	outputDir := t.TempDir()
	finalizer := &mockRunFinalizer{}
	sched := scheduler.NewSchedulerWithDeps(finalizer, &metadata.NoopSink{})

	exec, err := sched.ExecuteRun(context.Background(), testConfig(t, server.URL, outputDir))
	require.NoError(t, err)

	assert.NotEmpty(t, exec.RunID)
	// topN=1 over distinct metric leaders: p1 by likes, p2 by comments,
	// p3 by views.
	assert.Equal(t, 3, exec.StoredPosts)
	assert.Len(t, exec.WriteResults, 3)
	assert.FileExists(t, exec.ReportPath)

	sqlSink, sinkErr := storage.NewSQLiteSink(&metadata.NoopSink{}, filepath.Join(outputDir, "posts.db"))
	require.Nil(t, sinkErr)
	defer sqlSink.Close()
	count, countErr := sqlSink.Count(context.Background(), "generic")
	require.Nil(t, countErr)
	assert.Equal(t, 3, count)

	reportMd, readErr := os.ReadFile(filepath.Join(outputDir, "run-"+exec.RunID+".md"))
	require.NoError(t, readErr)
	assert.Contains(t, string(reportMd), "[Alpha](", "report row links the post title")
	assert.Contains(t, string(reportMd), "/posts/p1")
	assert.Contains(t, string(reportMd), "3 posts stored | 0 failed")

	require.Equal(t, 1, finalizer.calls)
	assert.Equal(t, 3, finalizer.totalPosts)
	assert.Equal(t, 0, finalizer.totalErrors)
	assert.Greater(t, finalizer.totalBlocks, 0)
}

func TestExecuteRun_DryRunWritesNothing(t *testing.T) {
	server := newBoardServer(t)
	outputDir := t.TempDir()
	finalizer := &mockRunFinalizer{}
	sched := scheduler.NewSchedulerWithDeps(finalizer, &metadata.NoopSink{})

	listingURL, parseErr := url.Parse(server.URL + "/listing")
	require.NoError(t, parseErr)
	cfg, err := config.WithDefault([]url.URL{*listingURL}).
		WithTopN(1).
		WithConcurrency(2).
		WithBaseDelay(time.Millisecond).
		WithJitter(time.Millisecond).
		WithRandomSeed(42).
		WithMaxAttempt(2).
		WithBackoffInitialDuration(time.Millisecond).
		WithBackoffMaxDuration(5 * time.Millisecond).
		WithTimeout(5 * time.Second).
		WithOutputDir(outputDir).
		WithSQLitePath(filepath.Join(outputDir, "posts.db")).
		WithDryRun(true).
		Build()
	require.NoError(t, err)

	exec, runErr := sched.ExecuteRun(context.Background(), cfg)
	require.NoError(t, runErr)

	assert.Equal(t, 3, exec.StoredPosts)
	assert.Empty(t, exec.ReportPath)
	assert.Empty(t, exec.WriteResults)
	assert.NoFileExists(t, filepath.Join(outputDir, "posts.db"))

	entries, readErr := os.ReadDir(outputDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "dry run must not write artifacts")
}

func TestExecuteRun_DeletedPostIsContained(t *testing.T) {
	server := newBoardServer(t, "p2")
	outputDir := t.TempDir()
	finalizer := &mockRunFinalizer{}
	sched := scheduler.NewSchedulerWithDeps(finalizer, &metadata.NoopSink{})

	exec, err := sched.ExecuteRun(context.Background(), testConfig(t, server.URL, outputDir))
	require.NoError(t, err, "a removed post must not abort the run")

	assert.Equal(t, 2, exec.StoredPosts)
	assert.Equal(t, 1, finalizer.totalErrors)

	reportMd, readErr := os.ReadFile(filepath.Join(outputDir, "run-"+exec.RunID+".md"))
	require.NoError(t, readErr)
	assert.Contains(t, string(reportMd), "2 posts stored | 1 failed")
}

func TestExecuteRun_ListingUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	outputDir := t.TempDir()
	finalizer := &mockRunFinalizer{}
	sched := scheduler.NewSchedulerWithDeps(finalizer, &metadata.NoopSink{})

	exec, err := sched.ExecuteRun(context.Background(), testConfig(t, server.URL, outputDir))
	require.NoError(t, err)

	assert.Equal(t, 0, exec.StoredPosts)
	assert.Equal(t, 1, finalizer.totalErrors)
}

func TestExecuteRun_UnknownSiteID(t *testing.T) {
	server := newBoardServer(t)
	finalizer := &mockRunFinalizer{}
	sched := scheduler.NewSchedulerWithDeps(finalizer, &metadata.NoopSink{})

	listingURL, parseErr := url.Parse(server.URL + "/listing")
	require.NoError(t, parseErr)
	cfg, buildErr := config.WithDefault([]url.URL{*listingURL}).
		WithSiteID("no-such-engine").
		Build()
	require.NoError(t, buildErr)

	_, err := sched.ExecuteRun(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-engine")
}

func TestExecuteRun_FinalStatsRecordedOnce(t *testing.T) {
	server := newBoardServer(t)
	outputDir := t.TempDir()
	finalizer := &mockRunFinalizer{}
	sched := scheduler.NewSchedulerWithDeps(finalizer, &metadata.NoopSink{})

	_, err := sched.ExecuteRun(context.Background(), testConfig(t, server.URL, outputDir))
	require.NoError(t, err)

	assert.Equal(t, 1, finalizer.calls)
}
