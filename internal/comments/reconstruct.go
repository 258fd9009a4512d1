package comments

import (
	"strconv"
	"time"

	"github.com/rohmanhakim/board-scraper/internal/metadata"
)

/*
Responsibilities
- Discard duplicate comment records (first occurrence wins)
- Annotate each record with its parent's id from the depth signal

Algorithm
- Single forward pass with a lastSeenAtDepth array: the parent of a
  record at depth d is the most recent record seen at depth d-1. After a
  record is placed, entries deeper than its own depth are invalidated,
  since a valid document order always emits the shallower record first.
- O(n) time, O(max depth) auxiliary space, no backward scanning.

Failure Semantics
- A record with no resolvable ancestor at depth-1 flattens to the root
  level instead of failing; the anomaly is recorded, never raised.
*/

type Reconstructor struct {
	metadataSink metadata.MetadataSink
}

func NewReconstructor(metadataSink metadata.MetadataSink) Reconstructor {
	return Reconstructor{
		metadataSink: metadataSink,
	}
}

// Reconstruct copies the flat records, discards duplicates, and assigns
// ParentID/IsReply from the depth signal. Input order is preserved.
func (r *Reconstructor) Reconstruct(records []CommentNode) []CommentNode {
	deduped := r.discardDuplicates(records)

	// lastSeenAtDepth[d] holds the id of the most recent record at depth d.
	lastSeenAtDepth := make([]string, 0, 8)

	for i := range deduped {
		depth := deduped[i].Depth
		if depth < 0 {
			depth = 0
		}

		switch {
		case depth == 0:
			deduped[i].ParentID = ""
			deduped[i].IsReply = false

		case depth-1 < len(lastSeenAtDepth) && lastSeenAtDepth[depth-1] != "":
			deduped[i].ParentID = lastSeenAtDepth[depth-1]
			deduped[i].IsReply = true

		default:
			// No ancestor at the expected shallower depth. Flatten to root
			// rather than dropping the comment.
			r.metadataSink.RecordError(
				time.Now(),
				"comments",
				"Reconstructor.Reconstruct",
				metadata.CauseContentInvalid,
				"comment depth has no resolvable ancestor, flattened to root",
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrCommentID, deduped[i].ID),
					metadata.NewAttr(metadata.AttrDepth, strconv.Itoa(depth)),
				},
			)
			depth = 0
			deduped[i].ParentID = ""
			deduped[i].IsReply = false
		}

		deduped[i].Depth = depth

		for len(lastSeenAtDepth) <= depth {
			lastSeenAtDepth = append(lastSeenAtDepth, "")
		}
		lastSeenAtDepth[depth] = deduped[i].ID
		lastSeenAtDepth = lastSeenAtDepth[:depth+1]
	}

	return deduped
}

// discardDuplicates drops records whose id repeats an earlier record's id.
// Records without an id are kept as-is; absence of an id is a site quirk,
// not evidence of duplication.
func (r *Reconstructor) discardDuplicates(records []CommentNode) []CommentNode {
	seen := make(map[string]bool, len(records))
	deduped := make([]CommentNode, 0, len(records))

	for _, record := range records {
		if record.ID != "" {
			if seen[record.ID] {
				continue
			}
			seen[record.ID] = true
		}
		deduped = append(deduped, record)
	}
	return deduped
}
