package metadata

import (
	"time"
)

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - It must never be used to derive retry, continuation, or abort decisions.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.
	Non-goals:
	 - ErrorCause does not encode severity.
	 - ErrorCause does not imply retryability.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

Meaning:
  - The failure does not map cleanly to any known category.
  - Used as a safe fallback.

# CauseNetworkFailure

Meaning:
  - Failure caused by network transport or remote availability.

Examples:
  - TCP timeouts, DNS failures, connection resets

# CausePolicyDisallow

Meaning:
  - Access was refused by an explicit policy or rule.

Examples:
  - HTTP 403 / 401 interpreted as access denial
  - rate-limit enforcement (429)

# CauseContentInvalid

Meaning:
  - Content was fetched but could not be processed meaningfully.

Examples:
  - Non-HTML responses
  - Missing post-body container (removed / geo-blocked posts)
  - Comment depth signals that resolve to no ancestor

# CauseStorageFailure

Meaning:
  - Failure while persisting scrape artifacts.

Examples:
  - Disk full, write permission errors, database I/O failures

# CauseInvariantViolation

Meaning:
  - A system-level invariant was violated.

Examples:
  - Non-contiguous block order in an assembled post
  - Duplicate canonical media URLs surviving extraction
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
)

type ArtifactKind string

const (
	ArtifactPost     ArtifactKind = "post"
	ArtifactMarkdown ArtifactKind = "markdown"
	ArtifactReport   ArtifactKind = "report"
)

type FetchEvent struct {
	fetchUrl    string
	httpStatus  int
	duration    time.Duration
	contentType string
	retryCount  int
}

/*
runStats
  - Represents a terminal, derived summary of a completed scrape run
  - Contains only aggregate counts and durations
  - Is computed by the scheduler after run termination
  - Is recorded exactly once
  - Must not influence scheduling, retries, or run termination
*/
type runStats struct {
	totalPosts  int
	totalErrors int
	totalBlocks int
	durationMs  int64
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrSite       AttributeKey = "site"
	AttrPostID     AttributeKey = "post_id"
	AttrCommentID  AttributeKey = "comment_id"
	AttrDepth      AttributeKey = "depth"
	AttrField      AttributeKey = "field"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrMediaURL   AttributeKey = "media_url"
	AttrWritePath  AttributeKey = "write_path"
	AttrMessage    AttributeKey = "message"
)
