package export

import (
	"fmt"

	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"github.com/rohmanhakim/board-scraper/pkg/failure"
)

type ExportErrorCause string

const (
	ErrCauseConversionFailure ExportErrorCause = "conversion failed"
)

type ExportError struct {
	Message   string
	Retryable bool
	Cause     ExportErrorCause
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error: %s", e.Cause)
}

func (e *ExportError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapExportErrorToMetadataCause(err ExportError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseConversionFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
