package sitecfg

import (
	"strconv"
	"strings"
)

// Site is the declarative extraction catalog for one board engine.
// It maps logical roles (title, body container, comment item, depth signal)
// to concrete CSS queries and attribute names. The core extraction
// algorithms receive a Site as plain data and never hard-code queries.
type Site struct {
	SiteID string `json:"siteId"`

	Listing  ListingRoles  `json:"listing"`
	Post     PostRoles     `json:"post"`
	Media    MediaRoles    `json:"media"`
	Comments CommentsRoles `json:"comments"`
}

// ListingRoles locates board-listing rows and their popularity metrics.
type ListingRoles struct {
	RowQuery   string `json:"rowQuery"`
	IDAttr     string `json:"idAttr"`
	LinkQuery  string `json:"linkQuery"`
	TitleQuery string `json:"titleQuery"`

	LikesQuery    string `json:"likesQuery"`
	CommentsQuery string `json:"commentsQuery"`
	ViewsQuery    string `json:"viewsQuery"`
}

// PostRoles locates the post body and its surrounding metadata.
type PostRoles struct {
	// BodyQueries are tried in order; the first match becomes the walker root.
	BodyQueries []string `json:"bodyQueries"`
	TitleQuery  string   `json:"titleQuery"`
	AuthorQuery string   `json:"authorQuery"`
	TimeQuery   string   `json:"timeQuery"`

	// NonContentText lists known placeholder strings that must never become
	// text blocks (e.g. the fallback shown when video playback is unsupported).
	NonContentText []string `json:"nonContentText"`
}

// MediaRoles configures media source resolution inside the post body.
type MediaRoles struct {
	// LazySourceAttrs is the preference-ordered list of attributes holding the
	// true image source. Renderers frequently put a low-resolution placeholder
	// in src and the real asset in a deferred attribute.
	LazySourceAttrs []string `json:"lazySourceAttrs"`

	// ExpandableAnchorClasses flag anchors that wrap a full-size image.
	ExpandableAnchorClasses []string `json:"expandableAnchorClasses"`
}

// CommentsRoles locates flat comment records and their depth signal.
type CommentsRoles struct {
	ContainerQuery string `json:"containerQuery"`
	ItemQuery      string `json:"itemQuery"`
	IDAttr         string `json:"idAttr"`
	AuthorQuery    string `json:"authorQuery"`
	BodyQuery      string `json:"bodyQuery"`
	TimeQuery      string `json:"timeQuery"`
	UpvoteQuery    string `json:"upvoteQuery"`
	DownvoteQuery  string `json:"downvoteQuery"`

	Depth DepthEncoding `json:"depth"`
}

// DepthKind selects how a comment's nesting level is encoded in markup.
type DepthKind string

const (
	// DepthKindMarginPercent derives depth from an inline margin-left
	// percentage divided by Divisor (e.g. margin-left:4% with divisor 2 → 2).
	DepthKindMarginPercent DepthKind = "margin-percent"
	// DepthKindLevelClass derives depth from a class like "reply-depth-3".
	DepthKindLevelClass DepthKind = "level-class"
	// DepthKindDataAttr reads an integer attribute such as data-depth.
	DepthKindDataAttr DepthKind = "data-attr"
)

// DepthEncoding is the per-site signal that yields an integer nesting level.
// Normalization of inconsistent markup signals lives here, in configuration;
// the reconstruction algorithm only ever consumes integers.
type DepthEncoding struct {
	Kind        DepthKind `json:"kind"`
	Attr        string    `json:"attr"`
	Divisor     int       `json:"divisor"`
	ClassPrefix string    `json:"classPrefix"`
}

// Normalize converts the raw markup value carrying the depth signal into a
// non-negative integer level. Unparseable or negative signals normalize to 0:
// a flattened comment is preferable to a dropped one.
func (d DepthEncoding) Normalize(raw string) int {
	switch d.Kind {
	case DepthKindMarginPercent:
		return d.normalizeMargin(raw)
	case DepthKindLevelClass:
		return d.normalizeLevelClass(raw)
	case DepthKindDataAttr:
		return clampDepth(parseLeadingInt(strings.TrimSpace(raw)))
	default:
		return 0
	}
}

// normalizeMargin extracts "margin-left: N%" from an inline style value and
// divides by the configured divisor.
func (d DepthEncoding) normalizeMargin(style string) int {
	const property = "margin-left:"

	idx := strings.Index(strings.ToLower(style), property)
	if idx < 0 {
		return 0
	}

	value := style[idx+len(property):]
	if end := strings.IndexByte(value, ';'); end >= 0 {
		value = value[:end]
	}
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "%"))

	percent := parseLeadingInt(value)
	divisor := d.Divisor
	if divisor <= 0 {
		divisor = 1
	}
	return clampDepth(percent / divisor)
}

func (d DepthEncoding) normalizeLevelClass(classAttr string) int {
	if d.ClassPrefix == "" {
		return 0
	}
	for _, class := range strings.Fields(classAttr) {
		if strings.HasPrefix(class, d.ClassPrefix) {
			return clampDepth(parseLeadingInt(strings.TrimPrefix(class, d.ClassPrefix)))
		}
	}
	return 0
}

// parseLeadingInt parses the leading integer of s, ignoring any trailing
// garbage. Returns 0 when no digits lead the string.
func parseLeadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func clampDepth(depth int) int {
	if depth < 0 {
		return 0
	}
	return depth
}
