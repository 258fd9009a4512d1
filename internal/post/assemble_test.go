package post_test

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rohmanhakim/board-scraper/internal/content"
	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"github.com/rohmanhakim/board-scraper/internal/post"
	"github.com/rohmanhakim/board-scraper/internal/selection"
	"github.com/rohmanhakim/board-scraper/internal/sitecfg"
	"github.com/rohmanhakim/board-scraper/pkg/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// mockMetadataSink is a test spy that captures recorded errors
type mockMetadataSink struct {
	metadata.NoopSink
	errors []recordedError
}

type recordedError struct {
	PackageName string
	Cause       metadata.ErrorCause
	ErrorString string
}

func (m *mockMetadataSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	errorString string,
	attrs []metadata.Attribute,
) {
	m.errors = append(m.errors, recordedError{
		PackageName: packageName,
		Cause:       cause,
		ErrorString: errorString,
	})
}

func assemblySite() sitecfg.Site {
	return sitecfg.Site{
		SiteID: "generic",
		Post: sitecfg.PostRoles{
			BodyQueries: []string{".post-body"},
			TitleQuery:  "h1.post-title",
			AuthorQuery: ".post-author",
			TimeQuery:   ".post-time",
		},
		Media: sitecfg.MediaRoles{
			LazySourceAttrs: []string{"data-src", "src"},
		},
		Comments: sitecfg.CommentsRoles{
			ContainerQuery: ".comment-list",
			ItemQuery:      "li.comment",
			IDAttr:         "data-comment-id",
			AuthorQuery:    ".comment-author",
			BodyQuery:      ".comment-body",
			Depth: sitecfg.DepthEncoding{
				Kind: sitecfg.DepthKindDataAttr,
				Attr: "data-depth",
			},
		},
	}
}

func postPage(t *testing.T) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(`<html><body>
		<h1 class="post-title">Trip report</h1>
		<span class="post-author">alice</span>
		<span class="post-time">2026-08-20</span>
		<div class="post-body">
			<p>We went hiking.</p>
			<img src="https://cdn.example.com/trail.jpg">
		</div>
		<ul class="comment-list">
			<li class="comment" data-comment-id="c1" data-depth="0">
				<span class="comment-author">bob</span>
				<div class="comment-body">Looks great</div>
			</li>
			<li class="comment" data-comment-id="c2" data-depth="1">
				<span class="comment-author">carol</span>
				<div class="comment-body">Agreed</div>
			</li>
		</ul>
	</body></html>`))
	require.NoError(t, err)
	return doc
}

func pageURL(t *testing.T) url.URL {
	t.Helper()
	u, err := url.Parse("https://board.example.com/posts/p1")
	require.NoError(t, err)
	return *u
}

func entry() selection.Entry {
	return selection.Entry{
		ID:       "p1",
		Title:    "Trip report (listing)",
		URL:      "https://board.example.com/posts/p1",
		Likes:    42,
		Comments: 2,
		Views:    900,
	}
}

func TestAssemble_FullPost(t *testing.T) {
	sink := &mockMetadataSink{}
	asm := post.NewAssembler(sink)

	result, err := asm.Assemble(postPage(t), pageURL(t), assemblySite(), entry(), "run-1")

	require.Nil(t, err)

	assert.Equal(t, "p1", result.ID)
	assert.Equal(t, "generic", result.SiteID)
	assert.Equal(t, "https://board.example.com/posts/p1", result.URL)
	assert.Equal(t, "run-1", result.RunID)
	assert.NotEmpty(t, result.ContentHash)
	assert.False(t, result.ExtractedAt.IsZero())

	assert.Equal(t, "Trip report", result.Meta.Title, "page title wins over the listing title")
	assert.Equal(t, "alice", result.Meta.Author)
	assert.Equal(t, "2026-08-20", result.Meta.PostedAt)
	assert.Equal(t, 42, result.Meta.Likes)
	assert.Equal(t, 900, result.Meta.Views)

	require.Len(t, result.Content, 2)
	assert.Equal(t, content.BlockText, result.Content[0].Type)
	assert.Equal(t, content.BlockImage, result.Content[1].Type)

	require.Len(t, result.Comments, 2)
	assert.Equal(t, "c1", result.Comments[1].ParentID)
}

func TestAssemble_ContentHashStableForSameContent(t *testing.T) {
	sink := &mockMetadataSink{}
	asm := post.NewAssembler(sink)

	first, err := asm.Assemble(postPage(t), pageURL(t), assemblySite(), entry(), "run-1")
	require.Nil(t, err)
	second, err := asm.Assemble(postPage(t), pageURL(t), assemblySite(), entry(), "run-2")
	require.Nil(t, err)

	assert.Equal(t, first.ContentHash, second.ContentHash)
}

func TestAssemble_MissingBody_EmptyContentNotError(t *testing.T) {
	sink := &mockMetadataSink{}
	asm := post.NewAssembler(sink)
	doc, parseErr := html.Parse(strings.NewReader(`<html><body><p>post removed</p></body></html>`))
	require.NoError(t, parseErr)

	result, err := asm.Assemble(doc, pageURL(t), assemblySite(), entry(), "run-1")

	require.Nil(t, err, "an empty post is a normal outcome, not a failure")
	assert.Empty(t, result.Content)
	assert.Equal(t, "Trip report (listing)", result.Meta.Title, "listing title fills in when the page has none")
	require.NotEmpty(t, sink.errors)
	assert.Equal(t, metadata.CauseContentInvalid, sink.errors[0].Cause)
}

func TestAssemble_MissingEntryID_Fatal(t *testing.T) {
	sink := &mockMetadataSink{}
	asm := post.NewAssembler(sink)

	_, err := asm.Assemble(postPage(t), pageURL(t), assemblySite(), selection.Entry{}, "run-1")

	require.NotNil(t, err)
	assert.Equal(t, failure.SeverityFatal, err.Severity())
	require.Len(t, sink.errors, 1)
	assert.Equal(t, "post", sink.errors[0].PackageName)
}
