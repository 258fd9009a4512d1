package comments

import (
	"github.com/rohmanhakim/board-scraper/internal/content"
)

// CommentNode is one comment record. Scraping produces it flat with only
// Depth populated from the site's depth signal; reconstruction assigns
// ParentID exactly once, after which the record is immutable.
//
// Invariants after reconstruction:
//   - Depth == 0 implies ParentID == "" and IsReply == false
//   - Depth > 0 implies ParentID names an earlier record whose Depth is
//     exactly Depth-1
//   - ID is unique within one post's comment set
type CommentNode struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt,omitempty"`
	Depth     int    `json:"depth"`
	IsReply   bool   `json:"isReply"`
	ParentID  string `json:"parentId,omitempty"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`

	// Media holds content blocks extracted from the comment body, typically
	// inline images.
	Media []content.Block `json:"media,omitempty"`
}
