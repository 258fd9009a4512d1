package post

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/board-scraper/internal/comments"
	"github.com/rohmanhakim/board-scraper/internal/content"
	"github.com/rohmanhakim/board-scraper/internal/mediaurl"
	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"github.com/rohmanhakim/board-scraper/internal/selection"
	"github.com/rohmanhakim/board-scraper/internal/sitecfg"
	"github.com/rohmanhakim/board-scraper/pkg/failure"
	"github.com/rohmanhakim/board-scraper/pkg/hashutil"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Run the per-post extraction passes over a sanitized document
- Re-check the block invariants before anything is persisted
- Fingerprint the content and stamp run identity

The assembler owns the only write to a Post; every field is final once
Assemble returns.
*/

type Assembler struct {
	metadataSink  metadata.MetadataSink
	extractor     content.Extractor
	scraper       comments.Scraper
	reconstructor comments.Reconstructor
}

func NewAssembler(metadataSink metadata.MetadataSink) Assembler {
	return Assembler{
		metadataSink:  metadataSink,
		extractor:     content.NewExtractor(metadataSink),
		scraper:       comments.NewScraper(metadataSink),
		reconstructor: comments.NewReconstructor(metadataSink),
	}
}

// Assemble builds the Post aggregate for one fetched page. The listing
// entry supplies identity and the popularity counters; the document
// supplies everything else.
func (a *Assembler) Assemble(
	doc *html.Node,
	pageUrl url.URL,
	site sitecfg.Site,
	entry selection.Entry,
	runID string,
) (Post, failure.ClassifiedError) {
	if entry.ID == "" || site.SiteID == "" {
		return Post{}, a.fail(&AssemblyError{
			Message: fmt.Sprintf("entry id %q, site id %q", entry.ID, site.SiteID),
			Cause:   ErrCauseMissingKey,
		}, pageUrl, site)
	}

	blocks := a.extractor.ExtractFromDocument(doc, pageUrl, site)
	if err := validateBlocks(blocks); err != nil {
		return Post{}, a.fail(err, pageUrl, site)
	}

	tree := a.reconstructor.Reconstruct(a.scraper.Scrape(doc, pageUrl, site))

	contentHash, err := fingerprint(blocks)
	if err != nil {
		return Post{}, a.fail(err, pageUrl, site)
	}

	return Post{
		ID:          entry.ID,
		SiteID:      site.SiteID,
		URL:         entry.URL,
		Meta:        a.scrapeMeta(doc, site, entry),
		Content:     blocks,
		Comments:    tree,
		ContentHash: contentHash,
		RunID:       runID,
		ExtractedAt: time.Now().UTC(),
	}, nil
}

// scrapeMeta reads the page-level fields. Missing fields fall back to the
// listing entry where it carries an equivalent.
func (a *Assembler) scrapeMeta(doc *html.Node, site sitecfg.Site, entry selection.Entry) Meta {
	meta := Meta{
		Title:        entry.Title,
		Likes:        entry.Likes,
		CommentCount: entry.Comments,
		Views:        entry.Views,
	}
	if doc == nil {
		return meta
	}

	gqDoc := goquery.NewDocumentFromNode(doc)
	if title := queryText(gqDoc, site.Post.TitleQuery); title != "" {
		meta.Title = title
	}
	meta.Author = queryText(gqDoc, site.Post.AuthorQuery)
	meta.PostedAt = queryText(gqDoc, site.Post.TimeQuery)

	return meta
}

func (a *Assembler) fail(assemblyError *AssemblyError, pageUrl url.URL, site sitecfg.Site) failure.ClassifiedError {
	a.metadataSink.RecordError(
		time.Now(),
		"post",
		"Assembler.Assemble",
		mapAssemblyErrorToMetadataCause(*assemblyError),
		assemblyError.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrSite, site.SiteID),
			metadata.NewAttr(metadata.AttrURL, pageUrl.String()),
		},
	)
	return assemblyError
}

// validateBlocks re-checks the walker's output invariants. The walker
// guarantees both; a violation here means a bug upstream, which must be
// caught before the aggregate is persisted.
func validateBlocks(blocks []content.Block) *AssemblyError {
	seenSrc := make(map[string]bool, len(blocks))

	for i, block := range blocks {
		if block.Order != i {
			return &AssemblyError{
				Message: fmt.Sprintf("block %d carries order %d", i, block.Order),
				Cause:   ErrCauseOrderGap,
			}
		}
		if block.Type == content.BlockImage && block.Image != nil {
			key := mediaurl.CanonicalKey(block.Image.SourceURL)
			if seenSrc[key] {
				return &AssemblyError{
					Message: block.Image.SourceURL,
					Cause:   ErrCauseDuplicateMedia,
				}
			}
			seenSrc[key] = true
		}
	}
	return nil
}

// fingerprint hashes the canonical JSON encoding of the content blocks.
func fingerprint(blocks []content.Block) (string, *AssemblyError) {
	encoded, err := json.Marshal(blocks)
	if err != nil {
		return "", &AssemblyError{
			Message: err.Error(),
			Cause:   ErrCauseEncodeFailure,
		}
	}
	hash, hashErr := hashutil.HashBytes(encoded, hashutil.HashAlgoBLAKE3)
	if hashErr != nil {
		return "", &AssemblyError{
			Message: hashErr.Error(),
			Cause:   ErrCauseEncodeFailure,
		}
	}
	return hash, nil
}

func queryText(doc *goquery.Document, query string) string {
	if query == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(query).First().Text())
}
