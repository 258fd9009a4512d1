package content

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/board-scraper/internal/mediaurl"
	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"github.com/rohmanhakim/board-scraper/internal/sitecfg"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Walk a post-body subtree in reading order
- Classify each node and emit typed content blocks
- De-duplicate media by canonical source URL

Traversal Contract
- Pre-order, depth-first, left-to-right over direct children
- Recurses into a node only when it contains nested media, so the same
  content is never counted as both a block and its media children
- One shared counter assigns contiguous 0-based order values
- Per-element failures skip the element and continue; a missing body
  container yields an empty sequence, never an error

The walker never issues network calls and never owns the document handle.
*/

type Extractor struct {
	metadataSink metadata.MetadataSink
}

func NewExtractor(metadataSink metadata.MetadataSink) Extractor {
	return Extractor{
		metadataSink: metadataSink,
	}
}

// walkState is allocated fresh per extraction call; nothing is shared
// between concurrent invocations.
type walkState struct {
	pageUrl url.URL
	site    sitecfg.Site
	order   int
	seenSrc map[string]bool
	blocks  []Block
}

// LocateBody finds the post-body container using the site's priority-ordered
// body queries. Returns nil when no query matches — removed and geo-blocked
// posts legitimately have no body, so absence is a normal outcome.
func LocateBody(doc *html.Node, site sitecfg.Site) *html.Node {
	if doc == nil {
		return nil
	}
	gqDoc := goquery.NewDocumentFromNode(doc)
	for _, query := range site.Post.BodyQueries {
		if sel := gqDoc.Find(query).First(); sel.Length() > 0 {
			return sel.Nodes[0]
		}
	}
	return nil
}

// ExtractFromDocument locates the body container and walks it.
// A missing container is recorded and yields an empty sequence.
func (e *Extractor) ExtractFromDocument(doc *html.Node, pageUrl url.URL, site sitecfg.Site) []Block {
	root := LocateBody(doc, site)
	if root == nil {
		e.metadataSink.RecordError(
			time.Now(),
			"content",
			"Extractor.ExtractFromDocument",
			metadata.CauseContentInvalid,
			"post body container not found",
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrSite, site.SiteID),
				metadata.NewAttr(metadata.AttrURL, pageUrl.String()),
			},
		)
		return []Block{}
	}
	return e.Extract(root, pageUrl, site)
}

// Extract walks the body subtree once and returns its content blocks in
// reading order. The sequence is finite and non-restartable: consuming a
// live element tree a second time is undefined.
func (e *Extractor) Extract(root *html.Node, pageUrl url.URL, site sitecfg.Site) []Block {
	if root == nil {
		return []Block{}
	}

	state := &walkState{
		pageUrl: pageUrl,
		site:    site,
		seenSrc: make(map[string]bool),
		blocks:  []Block{},
	}

	e.walkChildren(root, state)
	return state.blocks
}

func (e *Extractor) walkChildren(parent *html.Node, state *walkState) {
	for child := parent.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.TextNode:
			e.emitBareText(parent, child, state)
		case html.ElementNode:
			e.visitElement(child, state)
		}
	}
}

func (e *Extractor) visitElement(node *html.Node, state *walkState) {
	switch Classify(node, state.site) {
	case KindMediaLinkWrapper:
		e.emitWrappedImages(node, state)

	case KindImage:
		e.emitImage(node, "", state)

	case KindVideo:
		e.emitVideo(node, state)

	case KindTextBlock:
		// A text-bearing wrapper around media never becomes a Text block;
		// the walker descends instead so the media keeps its own slots.
		if hasMediaDescendant(node) {
			e.walkChildren(node, state)
			return
		}
		e.emitElementText(node, state)

	case KindIgnorable:
		// no order slot consumed
	}
}

// emitWrappedImages extracts every image below an expandable-image anchor,
// copying the anchor's href into each image's LinkHref.
func (e *Extractor) emitWrappedImages(anchor *html.Node, state *walkState) {
	href := attrVal(anchor, "href")

	var descend func(*html.Node)
	descend = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "img" {
				e.emitImage(c, href, state)
				continue
			}
			descend(c)
		}
	}
	descend(anchor)
}

func (e *Extractor) emitImage(img *html.Node, linkHref string, state *walkState) {
	candidates := make([]string, 0, len(state.site.Media.LazySourceAttrs))
	for _, attr := range state.site.Media.LazySourceAttrs {
		candidates = append(candidates, attrVal(img, attr))
	}

	sourceUrl := mediaurl.Normalize(candidates, state.pageUrl)
	if sourceUrl == "" {
		// Unresolvable source: the block has no usable payload and is omitted.
		e.recordSkip("unresolvable image source", state)
		return
	}

	key := mediaurl.CanonicalKey(sourceUrl)
	if state.seenSrc[key] {
		// Duplicate media is collapsed silently; first occurrence wins.
		return
	}
	state.seenSrc[key] = true

	state.blocks = append(state.blocks, newImageBlock(state.order, ImagePayload{
		SourceURL: sourceUrl,
		Alt:       attrVal(img, "alt"),
		Width:     parseDimension(attrVal(img, "width")),
		Height:    parseDimension(attrVal(img, "height")),
		LinkHref:  linkHref,
	}))
	state.order++
}

func (e *Extractor) emitVideo(video *html.Node, state *walkState) {
	candidates := make([]string, 0, len(state.site.Media.LazySourceAttrs)+2)
	for _, attr := range state.site.Media.LazySourceAttrs {
		candidates = append(candidates, attrVal(video, attr))
	}
	for c := video.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "source" {
			candidates = append(candidates, attrVal(c, "src"))
		}
	}

	sourceUrl := mediaurl.Normalize(candidates, state.pageUrl)
	if sourceUrl == "" {
		e.recordSkip("unresolvable video source", state)
		return
	}

	autoplay := hasAttr(video, "autoplay")
	muted := hasAttr(video, "muted")
	if autoplay && !muted {
		// Browsers refuse unmuted autoplay; store what actually plays.
		muted = true
	}

	state.blocks = append(state.blocks, newVideoBlock(state.order, VideoPayload{
		SourceURL: sourceUrl,
		Poster:    mediaurl.Normalize([]string{attrVal(video, "poster")}, state.pageUrl),
		Autoplay:  autoplay,
		Muted:     muted,
		Loop:      hasAttr(video, "loop"),
		Controls:  hasAttr(video, "controls"),
	}))
	state.order++
}

func (e *Extractor) emitElementText(node *html.Node, state *walkState) {
	text := strings.TrimSpace(nodeText(node))
	if text == "" || e.isNonContentText(text, state.site) {
		return
	}

	state.blocks = append(state.blocks, newTextBlock(state.order, TextPayload{
		Tag:       node.Data,
		Text:      text,
		StyleAttr: attrVal(node, "style"),
		ClassAttr: attrVal(node, "class"),
		RawMarkup: renderNode(node),
	}))
	state.order++
}

// emitBareText handles loose text nodes sitting directly under a container
// the walker descended into. They inherit the container's tag.
func (e *Extractor) emitBareText(parent *html.Node, textNode *html.Node, state *walkState) {
	text := strings.TrimSpace(textNode.Data)
	if text == "" || e.isNonContentText(text, state.site) {
		return
	}

	state.blocks = append(state.blocks, newTextBlock(state.order, TextPayload{
		Tag:  parent.Data,
		Text: text,
	}))
	state.order++
}

func (e *Extractor) isNonContentText(text string, site sitecfg.Site) bool {
	for _, fallback := range site.Post.NonContentText {
		if text == strings.TrimSpace(fallback) {
			return true
		}
	}
	return false
}

func (e *Extractor) recordSkip(details string, state *walkState) {
	e.metadataSink.RecordError(
		time.Now(),
		"content",
		"Extractor.Extract",
		metadata.CauseContentInvalid,
		details,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrSite, state.site.SiteID),
			metadata.NewAttr(metadata.AttrURL, state.pageUrl.String()),
		},
	)
}

// parseDimension parses a width/height attribute, tolerating a px suffix.
// Returns 0 for anything unparseable.
func parseDimension(raw string) int {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "px")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// renderNode serializes the node back to markup. Render only fails on
// writer errors, which a bytes.Buffer cannot produce.
func renderNode(node *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return ""
	}
	return buf.String()
}
