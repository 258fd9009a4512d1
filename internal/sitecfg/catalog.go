package sitecfg

import (
	"encoding/json"
	"fmt"
	"os"
)

// KnownSites contains extraction catalogs for common forum engines.
// These cover the default markup the engines ship with; deployments that
// customize their theme override entries via a JSON catalog file.
//
//nolint:gochecknoglobals // This is a static lookup table that must be global
var KnownSites = map[string]Site{
	"generic": {
		SiteID: "generic",
		Listing: ListingRoles{
			RowQuery:      "table.board-list tbody tr",
			IDAttr:        "data-post-id",
			LinkQuery:     "a.post-link",
			TitleQuery:    "a.post-link",
			LikesQuery:    "td.likes",
			CommentsQuery: "td.comments",
			ViewsQuery:    "td.views",
		},
		Post: PostRoles{
			BodyQueries: []string{".post-body", ".entry-content", "article .content"},
			TitleQuery:  "h1.post-title",
			AuthorQuery: ".post-author",
			TimeQuery:   ".post-time",
			NonContentText: []string{
				"Your browser does not support the video tag.",
				"This browser does not support HTML5 video.",
			},
		},
		Media: MediaRoles{
			LazySourceAttrs:         []string{"data-original", "data-src", "src"},
			ExpandableAnchorClasses: []string{"expand-image", "lightbox"},
		},
		Comments: CommentsRoles{
			ContainerQuery: ".comment-list",
			ItemQuery:      "li.comment",
			IDAttr:         "data-comment-id",
			AuthorQuery:    ".comment-author",
			BodyQuery:      ".comment-body",
			TimeQuery:      ".comment-time",
			UpvoteQuery:    ".vote-up",
			DownvoteQuery:  ".vote-down",
			Depth: DepthEncoding{
				Kind:    DepthKindDataAttr,
				Attr:    "data-depth",
				Divisor: 1,
			},
		},
	},
	"phpbb": {
		SiteID: "phpbb",
		Listing: ListingRoles{
			RowQuery:      "ul.topiclist.topics li.row",
			IDAttr:        "data-topic-id",
			LinkQuery:     "a.topictitle",
			TitleQuery:    "a.topictitle",
			LikesQuery:    "dd.likes",
			CommentsQuery: "dd.posts",
			ViewsQuery:    "dd.views",
		},
		Post: PostRoles{
			BodyQueries: []string{".postbody .content"},
			TitleQuery:  ".postbody h3 a",
			AuthorQuery: ".postprofile .username",
			TimeQuery:   ".postbody .author time",
			NonContentText: []string{
				"Your browser does not support the video tag.",
			},
		},
		Media: MediaRoles{
			LazySourceAttrs:         []string{"data-src", "src"},
			ExpandableAnchorClasses: []string{"postimage-link"},
		},
		Comments: CommentsRoles{
			ContainerQuery: "#comment-wrapper",
			ItemQuery:      "div.comment",
			IDAttr:         "id",
			AuthorQuery:    ".comment-username",
			BodyQuery:      ".comment-content",
			TimeQuery:      "time",
			UpvoteQuery:    ".thumbs-up-count",
			DownvoteQuery:  ".thumbs-down-count",
			Depth: DepthEncoding{
				// phpBB themes indent replies with percentage margins on the
				// comment row; two percent per level is the shipped default.
				Kind:    DepthKindMarginPercent,
				Attr:    "style",
				Divisor: 2,
			},
		},
	},
	"discourse": {
		SiteID: "discourse",
		Listing: ListingRoles{
			RowQuery:      "tr.topic-list-item",
			IDAttr:        "data-topic-id",
			LinkQuery:     "a.title",
			TitleQuery:    "a.title",
			LikesQuery:    "td.likes .number",
			CommentsQuery: "td.replies .number",
			ViewsQuery:    "td.views .number",
		},
		Post: PostRoles{
			BodyQueries: []string{".topic-post .cooked"},
			TitleQuery:  "h1 .fancy-title",
			AuthorQuery: ".topic-post .username",
			TimeQuery:   ".topic-post .post-date",
			NonContentText: []string{
				"Your browser does not support the video tag.",
			},
		},
		Media: MediaRoles{
			LazySourceAttrs:         []string{"data-orig-src", "data-src", "src"},
			ExpandableAnchorClasses: []string{"lightbox"},
		},
		Comments: CommentsRoles{
			ContainerQuery: ".post-stream",
			ItemQuery:      "article[data-post-id]",
			IDAttr:         "data-post-id",
			AuthorQuery:    ".username",
			BodyQuery:      ".cooked",
			TimeQuery:      ".post-date",
			UpvoteQuery:    ".like-count",
			DownvoteQuery:  "",
			Depth: DepthEncoding{
				Kind:    DepthKindDataAttr,
				Attr:    "data-reply-depth",
				Divisor: 1,
			},
		},
	},
	"xenforo": {
		SiteID: "xenforo",
		Listing: ListingRoles{
			RowQuery:      ".structItem--thread",
			IDAttr:        "data-thread-id",
			LinkQuery:     ".structItem-title a",
			TitleQuery:    ".structItem-title a",
			LikesQuery:    ".structItem-cell--likes",
			CommentsQuery: ".structItem-cell--replies dd",
			ViewsQuery:    ".structItem-cell--views dd",
		},
		Post: PostRoles{
			BodyQueries: []string{".message-body .bbWrapper"},
			TitleQuery:  ".p-title-value",
			AuthorQuery: ".message-name",
			TimeQuery:   "time.u-dt",
			NonContentText: []string{
				"Your browser does not support the video tag.",
			},
		},
		Media: MediaRoles{
			LazySourceAttrs:         []string{"data-url", "data-src", "src"},
			ExpandableAnchorClasses: []string{"js-lbImage"},
		},
		Comments: CommentsRoles{
			ContainerQuery: ".block-body--comments",
			ItemQuery:      ".message--comment",
			IDAttr:         "data-content",
			AuthorQuery:    ".message-name",
			BodyQuery:      ".message-body .bbWrapper",
			TimeQuery:      "time.u-dt",
			UpvoteQuery:    ".reactionsBar-link",
			DownvoteQuery:  "",
			Depth: DepthEncoding{
				Kind:        DepthKindLevelClass,
				Attr:        "class",
				ClassPrefix: "message--depth",
			},
		},
	},
}

// Catalog resolves site identifiers to extraction configuration.
// Built-in entries are merged with an optional JSON override file;
// on collision the override wins.
type Catalog struct {
	sites map[string]Site
}

// NewCatalog returns a catalog containing only the built-in sites.
func NewCatalog() Catalog {
	sites := make(map[string]Site, len(KnownSites))
	for id, site := range KnownSites {
		sites[id] = site
	}
	return Catalog{sites: sites}
}

// LoadCatalog reads a JSON file of Site records and merges it over the
// built-in table.
func LoadCatalog(path string) (Catalog, error) {
	catalog := NewCatalog()

	content, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("%w: %s", ErrCatalogRead, err.Error())
	}

	var overrides []Site
	if err := json.Unmarshal(content, &overrides); err != nil {
		return Catalog{}, fmt.Errorf("%w: %s", ErrCatalogParse, err.Error())
	}

	for _, site := range overrides {
		if site.SiteID == "" {
			return Catalog{}, fmt.Errorf("%w: catalog entry without siteId", ErrCatalogInvalid)
		}
		catalog.sites[site.SiteID] = site
	}

	return catalog, nil
}

// Get returns the Site for the given identifier.
func (c Catalog) Get(siteID string) (Site, bool) {
	site, ok := c.sites[siteID]
	return site, ok
}

// SiteIDs returns all known site identifiers. Order is unspecified.
func (c Catalog) SiteIDs() []string {
	ids := make([]string, 0, len(c.sites))
	for id := range c.sites {
		ids = append(ids, id)
	}
	return ids
}
