package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"github.com/rohmanhakim/board-scraper/internal/post"
	"github.com/rohmanhakim/board-scraper/pkg/failure"
)

/*
Responsibilities
- Persist post aggregates in a local SQLite database
- Upsert keyed by (site_id, post_id) so reruns are idempotent

Content blocks and the comment tree are stored as JSON columns; the
relational key exists for identity and dedup, not for querying inside
posts.
*/

type SQLiteSink struct {
	metadataSink metadata.MetadataSink
	db           *sql.DB
}

// NewSQLiteSink opens (or creates) the database at path and prepares the
// schema.
func NewSQLiteSink(metadataSink metadata.MetadataSink, path string) (*SQLiteSink, failure.ClassifiedError) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseDatabaseFailure,
			Path:      path,
		}
	}
	if err := db.Ping(); err != nil {
		return nil, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseDatabaseFailure,
			Path:      path,
		}
	}

	sink := &SQLiteSink{
		metadataSink: metadataSink,
		db:           db,
	}
	if err := sink.initSchema(); err != nil {
		return nil, err
	}
	return sink, nil
}

func (s *SQLiteSink) initSchema() failure.ClassifiedError {
	query := `
		CREATE TABLE IF NOT EXISTS posts (
			site_id       TEXT NOT NULL,
			post_id       TEXT NOT NULL,
			url           TEXT NOT NULL,
			title         TEXT NOT NULL,
			author        TEXT,
			posted_at     TEXT,
			likes         INTEGER NOT NULL DEFAULT 0,
			comment_count INTEGER NOT NULL DEFAULT 0,
			views         INTEGER NOT NULL DEFAULT 0,
			content       TEXT NOT NULL,
			comments      TEXT NOT NULL,
			content_hash  TEXT NOT NULL,
			run_id        TEXT NOT NULL,
			extracted_at  TEXT NOT NULL,
			PRIMARY KEY (site_id, post_id)
		);
		CREATE INDEX IF NOT EXISTS idx_posts_run ON posts(run_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseDatabaseFailure,
		}
	}
	return nil
}

// Store upserts the post. A post re-extracted in a later run replaces its
// previous row.
func (s *SQLiteSink) Store(ctx context.Context, p post.Post) failure.ClassifiedError {
	if err := s.store(ctx, p); err != nil {
		var storageError *StorageError
		if se, ok := err.(*StorageError); ok {
			storageError = se
		} else {
			storageError = &StorageError{Message: err.Error(), Cause: ErrCauseDatabaseFailure}
		}
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"SQLiteSink.Store",
			mapStorageErrorToMetadataCause(storageError),
			storageError.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrSite, p.SiteID),
				metadata.NewAttr(metadata.AttrPostID, p.ID),
			},
		)
		return storageError
	}

	s.metadataSink.RecordArtifact(
		metadata.ArtifactPost,
		p.SiteID+"/"+p.ID,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrSite, p.SiteID),
			metadata.NewAttr(metadata.AttrPostID, p.ID),
			metadata.NewAttr(metadata.AttrURL, p.URL),
		},
	)
	return nil
}

func (s *SQLiteSink) store(ctx context.Context, p post.Post) failure.ClassifiedError {
	contentJSON, err := json.Marshal(p.Content)
	if err != nil {
		return &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
		}
	}
	commentsJSON, err := json.Marshal(p.Comments)
	if err != nil {
		return &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
		}
	}

	query := `
		INSERT INTO posts (
			site_id, post_id, url, title, author, posted_at,
			likes, comment_count, views,
			content, comments, content_hash, run_id, extracted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_id, post_id) DO UPDATE SET
			url           = excluded.url,
			title         = excluded.title,
			author        = excluded.author,
			posted_at     = excluded.posted_at,
			likes         = excluded.likes,
			comment_count = excluded.comment_count,
			views         = excluded.views,
			content       = excluded.content,
			comments      = excluded.comments,
			content_hash  = excluded.content_hash,
			run_id        = excluded.run_id,
			extracted_at  = excluded.extracted_at
	`
	_, err = s.db.ExecContext(ctx, query,
		p.SiteID, p.ID, p.URL, p.Meta.Title, p.Meta.Author, p.Meta.PostedAt,
		p.Meta.Likes, p.Meta.CommentCount, p.Meta.Views,
		string(contentJSON), string(commentsJSON), p.ContentHash, p.RunID,
		p.ExtractedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return &StorageError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseDatabaseFailure,
		}
	}
	return nil
}

// Count returns the number of stored posts for one site.
func (s *SQLiteSink) Count(ctx context.Context, siteID string) (int, failure.ClassifiedError) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE site_id = ?", siteID,
	).Scan(&count)
	if err != nil {
		return 0, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseDatabaseFailure,
		}
	}
	return count, nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
