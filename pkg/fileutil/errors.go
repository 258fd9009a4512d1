package fileutil

import (
	"fmt"

	"github.com/rohmanhakim/board-scraper/pkg/failure"
)

type FileErrorCause string

const (
	ErrCausePathError    = "path error"
	ErrCauseWriteFailure = "write failure"
)

type FileError struct {
	Message   string
	Retryable bool
	Cause     FileErrorCause
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file error: %s", e.Cause)
}

func (e *FileError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
