package metadata

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// causeNames maps canonical causes to their stable log labels.
// Labels are part of the observable output contract; do not rename casually.
var causeNames = map[ErrorCause]string{
	CauseUnknown:            "unknown",
	CauseNetworkFailure:     "network_failure",
	CausePolicyDisallow:     "policy_disallow",
	CauseContentInvalid:     "content_invalid",
	CauseStorageFailure:     "storage_failure",
	CauseInvariantViolation: "invariant_violation",
}

// ZapRecorder captures structured scrape events through a zap logger.
//
// Ordering guarantees:
// - Events are recorded synchronously in the order they are received by a single worker.
// - No global ordering across workers is guaranteed.
// - Ordering is provided for debuggability, not causality.
type ZapRecorder struct {
	workerId string
	log      *zap.Logger
}

// Compile-time interface checks
var _ MetadataSink = (*ZapRecorder)(nil)
var _ RunFinalizer = (*ZapRecorder)(nil)

func NewZapRecorder(workerId string, log *zap.Logger) ZapRecorder {
	return ZapRecorder{
		workerId: workerId,
		log:      log,
	}
}

// NewProductionRecorder builds a ZapRecorder with a JSON production logger.
func NewProductionRecorder(workerId string) (ZapRecorder, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	log, err := cfg.Build()
	if err != nil {
		return ZapRecorder{}, err
	}
	return NewZapRecorder(workerId, log), nil
}

func (r *ZapRecorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	fields := []zap.Field{
		zap.String("worker", r.workerId),
		zap.Time("observed_at", observedAt),
		zap.String("package", packageName),
		zap.String("action", action),
		zap.String("cause", causeNames[cause]),
		zap.String("details", details),
	}
	fields = appendAttrs(fields, attrs)
	r.log.Warn("scrape_error", fields...)
}

func (r *ZapRecorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
	r.log.Info("fetch",
		zap.String("worker", r.workerId),
		zap.String("url", fetchUrl),
		zap.Int("status", httpStatus),
		zap.Duration("duration", duration),
		zap.String("content_type", contentType),
		zap.Int("retries", retryCount),
	)
}

func (r *ZapRecorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	fields := []zap.Field{
		zap.String("worker", r.workerId),
		zap.String("kind", string(kind)),
		zap.String("path", path),
	}
	fields = appendAttrs(fields, attrs)
	r.log.Info("artifact", fields...)
}

/*
RecordFinalRunStats records a terminal, derived summary of a completed run.

Contract:
  - MUST be called exactly once per scrape execution.
  - MUST be called only after run termination
    (worklist exhausted or scheduler abort).
  - The provided stats MUST be derived from scheduler state,
    not accumulated incrementally via the recorder.
  - Recorded stats MUST NOT influence control flow or scheduling.
*/
func (r *ZapRecorder) RecordFinalRunStats(
	totalPosts int,
	totalErrors int,
	totalBlocks int,
	duration time.Duration,
) {
	stats := runStats{
		totalPosts:  totalPosts,
		totalErrors: totalErrors,
		totalBlocks: totalBlocks,
		durationMs:  duration.Milliseconds(),
	}

	r.log.Info("run_stats",
		zap.String("worker", r.workerId),
		zap.Int("total_posts", stats.totalPosts),
		zap.Int("total_errors", stats.totalErrors),
		zap.Int("total_blocks", stats.totalBlocks),
		zap.Int64("duration_ms", stats.durationMs),
	)
}

func appendAttrs(fields []zap.Field, attrs []Attribute) []zap.Field {
	for _, attr := range attrs {
		fields = append(fields, zap.String(string(attr.Key), attr.Value))
	}
	return fields
}
