package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/board-scraper/internal/comments"
	"github.com/rohmanhakim/board-scraper/internal/content"
	"github.com/rohmanhakim/board-scraper/internal/post"
	"github.com/rohmanhakim/board-scraper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePost(runID string) post.Post {
	return post.Post{
		ID:     "p1",
		SiteID: "generic",
		URL:    "https://board.example.com/posts/p1",
		Meta: post.Meta{
			Title:        "Trip report",
			Author:       "alice",
			Likes:        42,
			CommentCount: 1,
			Views:        900,
		},
		Content: []content.Block{
			{Type: content.BlockText, Order: 0, Text: &content.TextPayload{Tag: "p", Text: "We went hiking."}},
		},
		Comments: []comments.CommentNode{
			{ID: "c1", Author: "bob", Body: "Looks great", Depth: 0},
		},
		ContentHash: "abc123",
		RunID:       runID,
		ExtractedAt: time.Now().UTC(),
	}
}

func openSink(t *testing.T) (*storage.SQLiteSink, *mockMetadataSink) {
	t.Helper()
	sink := &mockMetadataSink{}
	dbPath := filepath.Join(t.TempDir(), "posts.db")
	sqlSink, err := storage.NewSQLiteSink(sink, dbPath)
	require.Nil(t, err)
	t.Cleanup(func() { sqlSink.Close() })
	return sqlSink, sink
}

func TestSQLiteSink_StoreAndCount(t *testing.T) {
	sqlSink, sink := openSink(t)
	ctx := context.Background()

	require.Nil(t, sqlSink.Store(ctx, samplePost("run-1")))

	count, err := sqlSink.Count(ctx, "generic")
	require.Nil(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, sink.artifacts, 1)
	assert.Equal(t, "generic/p1", sink.artifacts[0])
}

func TestSQLiteSink_UpsertIsIdempotent(t *testing.T) {
	sqlSink, _ := openSink(t)
	ctx := context.Background()

	require.Nil(t, sqlSink.Store(ctx, samplePost("run-1")))
	require.Nil(t, sqlSink.Store(ctx, samplePost("run-2")))

	count, err := sqlSink.Count(ctx, "generic")
	require.Nil(t, err)
	assert.Equal(t, 1, count, "same (site_id, post_id) must not duplicate")
}

func TestSQLiteSink_DistinctSitesDoNotCollide(t *testing.T) {
	sqlSink, _ := openSink(t)
	ctx := context.Background()

	first := samplePost("run-1")
	second := samplePost("run-1")
	second.SiteID = "phpbb"

	require.Nil(t, sqlSink.Store(ctx, first))
	require.Nil(t, sqlSink.Store(ctx, second))

	count, err := sqlSink.Count(ctx, "generic")
	require.Nil(t, err)
	assert.Equal(t, 1, count)

	count, err = sqlSink.Count(ctx, "phpbb")
	require.Nil(t, err)
	assert.Equal(t, 1, count)
}
