package storage

import (
	"context"

	"github.com/rohmanhakim/board-scraper/internal/post"
	"github.com/rohmanhakim/board-scraper/pkg/failure"
)

// PostSink persists assembled post aggregates. The scheduler talks to
// this interface so tests and dry runs can substitute the database.
type PostSink interface {
	Store(ctx context.Context, p post.Post) failure.ClassifiedError
}

// Compile-time interface check
var _ PostSink = (*SQLiteSink)(nil)
