package metadata

import (
	"time"
)

/*
Metadata Collected
- Fetch timestamps and HTTP status codes
- Per-stage errors with canonical causes
- Persisted artifacts
- Terminal run statistics

Structured logging is preferred.

Determinism guarantees:
 - Metadata does not affect control flow
 - Errors do not reorder the worklist
 - Output is stable given identical inputs

Metadata is write-only.
No component may read metadata to influence scraping decisions.
*/

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		retryCount int,
	)

	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

type RunFinalizer interface {
	RecordFinalRunStats(
		totalPosts int,
		totalErrors int,
		totalBlocks int,
		duration time.Duration,
	)
}

// NoopSink implements MetadataSink but does nothing.
// Scheduler (or tests) can decide whether to inject a real recorder or NoopSink.
// Purpose is to keep metadata orthogonal.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

func (n *NoopSink) RecordFinalRunStats(
	totalPosts int,
	totalErrors int,
	totalBlocks int,
	duration time.Duration,
) {
}
