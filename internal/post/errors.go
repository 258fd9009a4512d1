package post

import (
	"fmt"

	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"github.com/rohmanhakim/board-scraper/pkg/failure"
)

type AssemblyErrorCause string

const (
	ErrCauseOrderGap       AssemblyErrorCause = "content order not contiguous"
	ErrCauseDuplicateMedia AssemblyErrorCause = "duplicate image source"
	ErrCauseMissingKey     AssemblyErrorCause = "post without id or site"
	ErrCauseEncodeFailure  AssemblyErrorCause = "content encode failure"
)

type AssemblyError struct {
	Message   string
	Retryable bool
	Cause     AssemblyErrorCause
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembly error: %s: %s", e.Cause, e.Message)
}

func (e *AssemblyError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapAssemblyErrorToMetadataCause maps assembler-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapAssemblyErrorToMetadataCause(err AssemblyError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseOrderGap, ErrCauseDuplicateMedia:
		return metadata.CauseInvariantViolation
	case ErrCauseMissingKey, ErrCauseEncodeFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
