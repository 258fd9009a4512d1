package scheduler

import (
	"github.com/rohmanhakim/board-scraper/internal/storage"
)

type RunExecution struct {
	RunID        string
	WriteResults []storage.WriteResult
	ReportPath   string
	StoredPosts  int
}
