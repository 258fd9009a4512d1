package comments_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/rohmanhakim/board-scraper/internal/comments"
	"github.com/rohmanhakim/board-scraper/internal/content"
	"github.com/rohmanhakim/board-scraper/internal/sitecfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func scrapeSite() sitecfg.Site {
	return sitecfg.Site{
		SiteID: "phpbb",
		Media: sitecfg.MediaRoles{
			LazySourceAttrs: []string{"data-src", "src"},
		},
		Comments: sitecfg.CommentsRoles{
			ContainerQuery: "#comment-wrapper",
			ItemQuery:      "div.comment",
			IDAttr:         "id",
			AuthorQuery:    ".comment-username",
			BodyQuery:      ".comment-content",
			TimeQuery:      "time",
			UpvoteQuery:    ".thumbs-up-count",
			DownvoteQuery:  ".thumbs-down-count",
			Depth: sitecfg.DepthEncoding{
				Kind:    sitecfg.DepthKindMarginPercent,
				Attr:    "style",
				Divisor: 2,
			},
		},
	}
}

func parseDoc(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func mustPageURL(t *testing.T) url.URL {
	t.Helper()
	u, err := url.Parse("https://forum.example.com/viewtopic.php?t=42")
	require.NoError(t, err)
	return *u
}

func TestScrape_CommentFields(t *testing.T) {
	sink := &mockMetadataSink{}
	scraper := comments.NewScraper(sink)

	doc := parseDoc(t, `<html><body>
		<div id="comment-wrapper">
			<div class="comment" id="cmt-100">
				<span class="comment-username">alice</span>
				<time>2026-08-01 10:00</time>
				<div class="comment-content">Nice write-up, thanks.</div>
				<span class="thumbs-up-count">12</span>
				<span class="thumbs-down-count">1</span>
			</div>
			<div class="comment" id="cmt-101" style="margin-left:2%">
				<span class="comment-username">bob</span>
				<time>2026-08-01 10:05</time>
				<div class="comment-content">Agreed.</div>
				<span class="thumbs-up-count">3</span>
				<span class="thumbs-down-count">0</span>
			</div>
		</div>
	</body></html>`)

	records := scraper.Scrape(doc, mustPageURL(t), scrapeSite())

	require.Len(t, records, 2)

	assert.Equal(t, "cmt-100", records[0].ID)
	assert.Equal(t, "alice", records[0].Author)
	assert.Equal(t, "Nice write-up, thanks.", records[0].Body)
	assert.Equal(t, "2026-08-01 10:00", records[0].CreatedAt)
	assert.Equal(t, 12, records[0].Upvotes)
	assert.Equal(t, 1, records[0].Downvotes)
	assert.Equal(t, 0, records[0].Depth)

	assert.Equal(t, "cmt-101", records[1].ID)
	assert.Equal(t, 1, records[1].Depth, "margin-left:2% with divisor 2 is depth 1")
}

func TestScrape_CommentMedia_ImagesOnly(t *testing.T) {
	sink := &mockMetadataSink{}
	scraper := comments.NewScraper(sink)

	doc := parseDoc(t, `<html><body>
		<div id="comment-wrapper">
			<div class="comment" id="cmt-200">
				<span class="comment-username">carol</span>
				<div class="comment-content">
					<p>look at this</p>
					<img src="//cdn.example.com/reaction.gif">
				</div>
			</div>
		</div>
	</body></html>`)

	records := scraper.Scrape(doc, mustPageURL(t), scrapeSite())

	require.Len(t, records, 1)
	require.Len(t, records[0].Media, 1)
	assert.Equal(t, content.BlockImage, records[0].Media[0].Type)
	assert.Equal(t, "https://cdn.example.com/reaction.gif", records[0].Media[0].Image.SourceURL)
	assert.Equal(t, 0, records[0].Media[0].Order)
	assert.Contains(t, records[0].Body, "look at this")
}

func TestScrape_NoCommentContainer_Empty(t *testing.T) {
	sink := &mockMetadataSink{}
	scraper := comments.NewScraper(sink)

	doc := parseDoc(t, `<html><body><p>no comments here</p></body></html>`)

	records := scraper.Scrape(doc, mustPageURL(t), scrapeSite())

	assert.Empty(t, records)
	assert.Empty(t, sink.errors)
}

func TestScrape_NilDocument_Empty(t *testing.T) {
	sink := &mockMetadataSink{}
	scraper := comments.NewScraper(sink)

	records := scraper.Scrape(nil, mustPageURL(t), scrapeSite())

	assert.Empty(t, records)
}

func TestScrape_ThenReconstruct_EndToEnd(t *testing.T) {
	sink := &mockMetadataSink{}
	scraper := comments.NewScraper(sink)
	rec := comments.NewReconstructor(sink)

	doc := parseDoc(t, `<html><body>
		<div id="comment-wrapper">
			<div class="comment" id="c1"><div class="comment-content">root</div></div>
			<div class="comment" id="c2" style="margin-left:2%"><div class="comment-content">reply</div></div>
			<div class="comment" id="c3" style="margin-left:4%"><div class="comment-content">nested</div></div>
		</div>
	</body></html>`)

	tree := rec.Reconstruct(scraper.Scrape(doc, mustPageURL(t), scrapeSite()))

	require.Len(t, tree, 3)
	assert.Equal(t, "", tree[0].ParentID)
	assert.Equal(t, "c1", tree[1].ParentID)
	assert.Equal(t, "c2", tree[2].ParentID)
	assert.Empty(t, sink.errors)
}
