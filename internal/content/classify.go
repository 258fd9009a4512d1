package content

import (
	"strings"

	"github.com/rohmanhakim/board-scraper/internal/sitecfg"
	"golang.org/x/net/html"
)

// NodeKind is the closed classification set the walker dispatches on.
// Every element in a post body maps to exactly one kind; there is no
// site-specific control flow anywhere below this function.
type NodeKind int

const (
	KindIgnorable NodeKind = iota
	KindMediaLinkWrapper
	KindImage
	KindVideo
	KindTextBlock
)

// textBlockTags are the paragraph/division/heading-level elements that may
// produce a Text block of their own.
var textBlockTags = map[string]bool{
	"p": true, "div": true, "section": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "pre": true, "td": true, "figcaption": true,
}

// Classify maps a node's shape to its NodeKind. Pure: the same node and
// site configuration always classify identically.
func Classify(node *html.Node, site sitecfg.Site) NodeKind {
	if node == nil || node.Type != html.ElementNode {
		return KindIgnorable
	}

	switch node.Data {
	case "br", "hr", "script", "style", "noscript":
		return KindIgnorable
	case "img":
		return KindImage
	case "video":
		return KindVideo
	case "a":
		if isExpandableAnchor(node, site) && hasMediaDescendant(node) {
			return KindMediaLinkWrapper
		}
	}

	if textBlockTags[node.Data] {
		return KindTextBlock
	}

	// Anything else earns a block only through its contents: nodes carrying
	// text or media are treated as division-level, the rest are skipped
	// without consuming an order slot.
	if hasMediaDescendant(node) || strings.TrimSpace(nodeText(node)) != "" {
		return KindTextBlock
	}
	return KindIgnorable
}

// isExpandableAnchor reports whether the anchor carries one of the site's
// configured expandable-image classes.
func isExpandableAnchor(node *html.Node, site sitecfg.Site) bool {
	classes := strings.Fields(attrVal(node, "class"))
	for _, class := range classes {
		for _, marker := range site.Media.ExpandableAnchorClasses {
			if class == marker {
				return true
			}
		}
	}
	return false
}

// hasMediaDescendant reports whether any img or video exists below the node.
func hasMediaDescendant(node *html.Node) bool {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && (child.Data == "img" || child.Data == "video") {
			return true
		}
		if hasMediaDescendant(child) {
			return true
		}
	}
	return false
}

// nodeText concatenates all text below the node in document order.
func nodeText(node *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return sb.String()
}

// attrVal returns the value of the named attribute, or empty string.
func attrVal(node *html.Node, key string) string {
	for _, attr := range node.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// hasAttr reports whether the named attribute is present at all,
// distinguishing an empty value from an absent attribute.
func hasAttr(node *html.Node, key string) bool {
	for _, attr := range node.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}
