package listing

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"github.com/rohmanhakim/board-scraper/internal/selection"
	"github.com/rohmanhakim/board-scraper/internal/sitecfg"
	"github.com/rohmanhakim/board-scraper/pkg/urlutil"
	"golang.org/x/net/html"
)

// Extractor turns a board-listing page into selection entries carrying
// the popularity counters the selector ranks on.
type Extractor struct {
	metadataSink metadata.MetadataSink
}

func NewExtractor(metadataSink metadata.MetadataSink) Extractor {
	return Extractor{
		metadataSink: metadataSink,
	}
}

// Extract collects one entry per listing row. Rows without an id or a
// usable post link are skipped and recorded; a partial listing is always
// preferred over none.
func (e *Extractor) Extract(doc *html.Node, pageUrl url.URL, site sitecfg.Site) []selection.Entry {
	if doc == nil {
		return []selection.Entry{}
	}

	roles := site.Listing
	entries := []selection.Entry{}

	gqDoc := goquery.NewDocumentFromNode(doc)
	gqDoc.Find(roles.RowQuery).Each(func(i int, row *goquery.Selection) {
		entry, ok := e.extractRow(row, pageUrl, site)
		if !ok {
			return
		}
		entries = append(entries, entry)
	})

	return entries
}

func (e *Extractor) extractRow(row *goquery.Selection, pageUrl url.URL, site sitecfg.Site) (selection.Entry, bool) {
	roles := site.Listing

	id, _ := row.Attr(roles.IDAttr)
	id = strings.TrimSpace(id)

	link := row.Find(roles.LinkQuery).First()
	href, _ := link.Attr("href")
	postUrl := e.resolveLink(href, pageUrl)

	if id == "" || postUrl == "" {
		e.metadataSink.RecordError(
			time.Now(),
			"listing",
			"Extractor.Extract",
			metadata.CauseContentInvalid,
			"listing row without id or post link skipped",
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrSite, site.SiteID),
				metadata.NewAttr(metadata.AttrURL, pageUrl.String()),
			},
		)
		return selection.Entry{}, false
	}

	return selection.Entry{
		ID:       id,
		Title:    strings.TrimSpace(row.Find(roles.TitleQuery).First().Text()),
		URL:      postUrl,
		Likes:    parseCount(row.Find(roles.LikesQuery).First().Text()),
		Comments: parseCount(row.Find(roles.CommentsQuery).First().Text()),
		Views:    parseCount(row.Find(roles.ViewsQuery).First().Text()),
	}, true
}

// resolveLink makes the row's post link absolute against the listing URL.
func (e *Extractor) resolveLink(href string, pageUrl url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "" {
		return href
	}
	if pageUrl.Scheme == "" || pageUrl.Host == "" {
		return ""
	}
	resolved := urlutil.Resolve(*parsed, pageUrl)
	return resolved.String()
}

// parseCount parses a popularity counter, tolerating thousands separators
// and shorthand suffixes ("1.2k", "3m"). Unparseable counters are 0.
func parseCount(raw string) int {
	raw = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
	if raw == "" {
		return 0
	}

	multiplier := 1
	switch {
	case strings.HasSuffix(raw, "k"):
		multiplier = 1_000
		raw = strings.TrimSuffix(raw, "k")
	case strings.HasSuffix(raw, "m"):
		multiplier = 1_000_000
		raw = strings.TrimSuffix(raw, "m")
	}

	whole := 0
	frac := 0
	fracDigits := 0
	inFrac := false
	seen := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= '0' && c <= '9':
			seen = true
			if inFrac {
				frac = frac*10 + int(c-'0')
				fracDigits++
			} else {
				whole = whole*10 + int(c-'0')
			}
		case c == '.' && !inFrac:
			inFrac = true
		default:
			i = len(raw)
		}
	}
	if !seen {
		return 0
	}

	value := whole * multiplier
	if fracDigits > 0 {
		scale := multiplier
		for i := 0; i < fracDigits; i++ {
			scale /= 10
		}
		value += frac * scale
	}
	return value
}
