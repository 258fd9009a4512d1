package worklist

import (
	"net/url"
	"sync"

	"github.com/rohmanhakim/board-scraper/internal/selection"
	"github.com/rohmanhakim/board-scraper/pkg/urlutil"
)

/*
Worklist Responsibilities
- Maintain FIFO ordering of admitted post tasks
- Deduplicate posts by canonical URL
- Enforce the per-run post cap
- Knows nothing about:
	- fetching
	- extraction
	- persistence

It is a data structure + policy module, not a pipeline executor.
*/

// Metric names the selector list that claimed a post.
type Metric string

const (
	MetricLikes    Metric = "likes"
	MetricComments Metric = "comments"
	MetricViews    Metric = "views"
)

// Item is one admitted post-extraction task. The scheduler has already
// decided the post is worth extracting; the worklist only orders and
// de-duplicates.
type Item struct {
	Entry     selection.Entry
	SiteID    string
	ClaimedBy Metric
}

type Worklist struct {
	mu       sync.Mutex
	queue    *FIFOQueue[Item]
	visited  Set[string]
	maxItems int
	admitted int
}

// New creates a worklist admitting at most maxItems tasks.
// maxItems <= 0 means no cap.
func New(maxItems int) *Worklist {
	return &Worklist{
		queue:    NewFIFOQueue[Item](),
		visited:  NewSet[string](),
		maxItems: maxItems,
	}
}

// Admit enqueues the task unless its canonical URL was already admitted,
// the cap is reached, or the URL does not parse. Returns whether the task
// was enqueued.
func (w *Worklist) Admit(item Item) bool {
	key := canonicalKey(item.Entry.URL)
	if key == "" {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxItems > 0 && w.admitted >= w.maxItems {
		return false
	}
	if w.visited.Contains(key) {
		return false
	}

	w.visited.Add(key)
	w.queue.Enqueue(item)
	w.admitted++
	return true
}

// Next pops the oldest pending task. The second return value is false
// when the worklist is drained.
func (w *Worklist) Next() (Item, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue.Dequeue()
}

func (w *Worklist) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue.Size()
}

func (w *Worklist) Admitted() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.admitted
}

func canonicalKey(rawUrl string) string {
	parsed, err := url.Parse(rawUrl)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	canonical := urlutil.Canonicalize(*parsed)
	return canonical.String()
}
