/*
Responsibilities
- Strip script, style and other non-content machinery from a fetched page
- Drop advertising and promo containers by class signature
- Remove nodes left empty by the stripping passes

The sanitizer runs between fetch and extraction so the walker and the
comment scraper only ever see content-bearing markup. It mutates the
document in place and never fails: a page that resists cleaning is
extracted as-is.
*/
package sanitizer

import (
	"strings"

	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"golang.org/x/net/html"
)

// strippedTags never carry post content on a board page.
var strippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"iframe": true, "form": true, "template": true,
}

// adClassMarkers flag advertising containers. Matching is whole-class,
// so "advert-slot" matches via its prefix rule while "thread" does not.
var adClassMarkers = []string{
	"ad", "ads", "advert", "adsense", "banner", "sponsor", "sponsored", "promo",
}

type HtmlSanitizer struct {
	metadataSink metadata.MetadataSink
}

func NewHTMLSanitizer(metadataSink metadata.MetadataSink) HtmlSanitizer {
	return HtmlSanitizer{
		metadataSink: metadataSink,
	}
}

// Sanitize cleans the document in place and returns it. Nil documents
// pass through.
func (h *HtmlSanitizer) Sanitize(doc *html.Node) *html.Node {
	if doc == nil {
		return nil
	}

	removeMatchingNodes(doc, isStrippableNode)
	removeEmptyNodesBottomUp(doc)

	return doc
}

// isStrippableNode reports whether the node is machinery or advertising
// rather than content.
func isStrippableNode(node *html.Node) bool {
	if node.Type == html.CommentNode {
		return true
	}
	if node.Type != html.ElementNode {
		return false
	}
	if strippedTags[node.Data] {
		return true
	}
	return hasAdClass(node)
}

func hasAdClass(node *html.Node) bool {
	var classAttr string
	for _, attr := range node.Attr {
		if attr.Key == "class" {
			classAttr = attr.Val
			break
		}
	}
	if classAttr == "" {
		return false
	}

	for _, class := range strings.Fields(strings.ToLower(classAttr)) {
		for _, marker := range adClassMarkers {
			if class == marker || strings.HasPrefix(class, marker+"-") {
				return true
			}
		}
	}
	return false
}
