package sitecfg_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/board-scraper/internal/sitecfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthEncoding_Normalize_DataAttr(t *testing.T) {
	encoding := sitecfg.DepthEncoding{Kind: sitecfg.DepthKindDataAttr, Attr: "data-depth"}

	tests := []struct {
		name     string
		raw      string
		expected int
	}{
		{"plain integer", "3", 3},
		{"zero", "0", 0},
		{"whitespace tolerated", "  2 ", 2},
		{"trailing garbage ignored", "4px", 4},
		{"non-numeric flattens", "deep", 0},
		{"empty flattens", "", 0},
		{"negative flattens", "-2", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, encoding.Normalize(tt.raw))
		})
	}
}

func TestDepthEncoding_Normalize_MarginPercent(t *testing.T) {
	encoding := sitecfg.DepthEncoding{
		Kind:    sitecfg.DepthKindMarginPercent,
		Attr:    "style",
		Divisor: 2,
	}

	tests := []struct {
		name     string
		style    string
		expected int
	}{
		{"two percent per level", "margin-left:2%", 1},
		{"deeper nesting", "margin-left: 6%;", 3},
		{"zero margin", "margin-left:0%", 0},
		{"other properties around", "color:red;margin-left:4%;padding:0", 2},
		{"property case insensitive", "MARGIN-LEFT: 4%", 2},
		{"missing property", "padding-left:4%", 0},
		{"unparseable value", "margin-left:wide", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, encoding.Normalize(tt.style))
		})
	}
}

func TestDepthEncoding_Normalize_MarginPercent_ZeroDivisor(t *testing.T) {
	encoding := sitecfg.DepthEncoding{Kind: sitecfg.DepthKindMarginPercent}
	assert.Equal(t, 3, encoding.Normalize("margin-left:3%"), "divisor defaults to 1")
}

func TestDepthEncoding_Normalize_LevelClass(t *testing.T) {
	encoding := sitecfg.DepthEncoding{
		Kind:        sitecfg.DepthKindLevelClass,
		Attr:        "class",
		ClassPrefix: "message--depth",
	}

	tests := []struct {
		name     string
		classes  string
		expected int
	}{
		{"prefixed class", "message message--depth2", 2},
		{"among other classes", "message message--comment message--depth1", 1},
		{"no depth class", "message message--comment", 0},
		{"prefix without number", "message--depth", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, encoding.Normalize(tt.classes))
		})
	}
}

func TestDepthEncoding_Normalize_UnknownKind(t *testing.T) {
	encoding := sitecfg.DepthEncoding{}
	assert.Equal(t, 0, encoding.Normalize("3"))
}

func TestNewCatalog_KnownSites(t *testing.T) {
	catalog := sitecfg.NewCatalog()

	for _, siteID := range []string{"generic", "phpbb", "discourse", "xenforo"} {
		site, ok := catalog.Get(siteID)
		require.True(t, ok, "expected built-in site %q", siteID)
		assert.Equal(t, siteID, site.SiteID)
		assert.NotEmpty(t, site.Post.BodyQueries)
		assert.NotEmpty(t, site.Comments.ContainerQuery)
	}

	_, ok := catalog.Get("no-such-engine")
	assert.False(t, ok)
}

func TestLoadCatalog_OverrideWins(t *testing.T) {
	content := `[
		{
			"siteId": "generic",
			"post": {"bodyQueries": [".custom-body"]}
		},
		{
			"siteId": "mycorp-forum",
			"post": {"bodyQueries": [".board-content"]}
		}
	]`
	path := filepath.Join(t.TempDir(), "sites.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	catalog, err := sitecfg.LoadCatalog(path)
	require.NoError(t, err)

	overridden, ok := catalog.Get("generic")
	require.True(t, ok)
	assert.Equal(t, []string{".custom-body"}, overridden.Post.BodyQueries)

	added, ok := catalog.Get("mycorp-forum")
	require.True(t, ok)
	assert.Equal(t, []string{".board-content"}, added.Post.BodyQueries)

	// Untouched built-ins survive the merge.
	_, ok = catalog.Get("phpbb")
	assert.True(t, ok)
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := sitecfg.LoadCatalog(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, sitecfg.ErrCatalogRead))
}

func TestLoadCatalog_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := sitecfg.LoadCatalog(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sitecfg.ErrCatalogParse))
}
