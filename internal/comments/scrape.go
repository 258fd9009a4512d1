package comments

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/board-scraper/internal/content"
	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"github.com/rohmanhakim/board-scraper/internal/sitecfg"
	"golang.org/x/net/html"
)

// Scraper turns the comment section of a post page into flat CommentNode
// records, depth already normalized to an integer. Reconstruction is a
// separate pass so it stays independent of any markup mechanism.
type Scraper struct {
	metadataSink metadata.MetadataSink
	extractor    content.Extractor
}

func NewScraper(metadataSink metadata.MetadataSink) Scraper {
	return Scraper{
		metadataSink: metadataSink,
		extractor:    content.NewExtractor(metadataSink),
	}
}

// Scrape collects the flat comment records from the page document.
// A page without a comment container yields an empty slice; many posts
// simply have no comments.
func (s *Scraper) Scrape(doc *html.Node, pageUrl url.URL, site sitecfg.Site) []CommentNode {
	if doc == nil {
		return []CommentNode{}
	}

	gqDoc := goquery.NewDocumentFromNode(doc)
	container := gqDoc.Find(site.Comments.ContainerQuery).First()
	if container.Length() == 0 {
		return []CommentNode{}
	}

	records := []CommentNode{}
	container.Find(site.Comments.ItemQuery).Each(func(i int, item *goquery.Selection) {
		records = append(records, s.scrapeItem(item, pageUrl, site))
	})
	return records
}

func (s *Scraper) scrapeItem(item *goquery.Selection, pageUrl url.URL, site sitecfg.Site) CommentNode {
	roles := site.Comments

	id, _ := item.Attr(roles.IDAttr)

	record := CommentNode{
		ID:        strings.TrimSpace(id),
		Author:    selectionText(item, roles.AuthorQuery),
		Body:      selectionText(item, roles.BodyQuery),
		CreatedAt: selectionText(item, roles.TimeQuery),
		Upvotes:   parseCount(selectionText(item, roles.UpvoteQuery)),
		Downvotes: parseCount(selectionText(item, roles.DownvoteQuery)),
		Depth:     s.normalizeDepth(item, roles.Depth),
	}

	if body := item.Find(roles.BodyQuery).First(); body.Length() > 0 {
		record.Media = mediaOnly(s.extractor.Extract(body.Nodes[0], pageUrl, site))
	}

	return record
}

// normalizeDepth reads the raw depth signal off the item and hands it to
// the site's encoding.
func (s *Scraper) normalizeDepth(item *goquery.Selection, encoding sitecfg.DepthEncoding) int {
	raw, _ := item.Attr(encoding.Attr)
	return encoding.Normalize(raw)
}

func selectionText(item *goquery.Selection, query string) string {
	if query == "" {
		return ""
	}
	return strings.TrimSpace(item.Find(query).First().Text())
}

// parseCount parses a vote or reply counter, tolerating thousands
// separators and trailing labels ("1,204 likes"). Unparseable counters
// are 0.
func parseCount(raw string) int {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	n := 0
	seen := false
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			break
		}
		n = n*10 + int(raw[i]-'0')
		seen = true
	}
	if !seen {
		return 0
	}
	return n
}

// mediaOnly keeps image and video blocks; comment prose already lives in
// the Body field. Orders are reassigned so the filtered sequence stays a
// contiguous 0-based run.
func mediaOnly(blocks []content.Block) []content.Block {
	media := make([]content.Block, 0, len(blocks))
	for _, block := range blocks {
		if block.Type == content.BlockImage || block.Type == content.BlockVideo {
			block.Order = len(media)
			media = append(media, block)
		}
	}
	if len(media) == 0 {
		return nil
	}
	return media
}
