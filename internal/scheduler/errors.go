package scheduler

import (
	"github.com/rohmanhakim/board-scraper/pkg/failure"
)

// scheduleError covers control-plane failures the pipeline stages do
// not classify themselves (context cancellation, unparseable responses).
type scheduleError struct {
	message string
}

func (e *scheduleError) Error() string {
	return e.message
}

func (e *scheduleError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}
