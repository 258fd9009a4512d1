package post

import (
	"time"

	"github.com/rohmanhakim/board-scraper/internal/comments"
	"github.com/rohmanhakim/board-scraper/internal/content"
)

// Post is the immutable aggregate handed to the persistence sinks,
// keyed by (SiteID, ID) for idempotent upsert.
type Post struct {
	ID     string `json:"id"`
	SiteID string `json:"siteId"`
	URL    string `json:"url"`

	Meta     Meta                   `json:"meta"`
	Content  []content.Block        `json:"content"`
	Comments []comments.CommentNode `json:"comments"`

	// ContentHash fingerprints the content blocks so unchanged posts can be
	// recognized across runs.
	ContentHash string    `json:"contentHash"`
	RunID       string    `json:"runId"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// Meta carries post metadata gathered outside the body walk: page-level
// fields plus the listing counters that got the post selected.
type Meta struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	PostedAt string `json:"postedAt,omitempty"`

	Likes        int `json:"likes"`
	CommentCount int `json:"commentCount"`
	Views        int `json:"views"`
}
