package report

import (
	"fmt"

	"github.com/rohmanhakim/board-scraper/pkg/failure"
)

type reportWriteError struct {
	message string
	path    string
}

func (e *reportWriteError) Error() string {
	return fmt.Sprintf("report write error at %s: %s", e.path, e.message)
}

func (e *reportWriteError) Severity() failure.Severity {
	return failure.SeverityFatal
}
