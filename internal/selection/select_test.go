package selection_test

import (
	"testing"

	"github.com/rohmanhakim/board-scraper/internal/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(entries []selection.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func fiveEntries() []selection.Entry {
	return []selection.Entry{
		{ID: "E1", Likes: 10, Comments: 1, Views: 100},
		{ID: "E2", Likes: 9, Comments: 2, Views: 90},
		{ID: "E3", Likes: 8, Comments: 3, Views: 80},
		{ID: "E4", Likes: 7, Comments: 10, Views: 70},
		{ID: "E5", Likes: 6, Comments: 9, Views: 60},
	}
}

func TestSelect_CrossMetricDeduplication(t *testing.T) {
	result := selection.Select(fiveEntries(), 2)

	assert.Equal(t, []string{"E1", "E2"}, ids(result.ByLikes))
	assert.Equal(t, []string{"E4", "E5"}, ids(result.ByComments),
		"likes winners are excluded, leaving the next comment leaders")
	assert.Equal(t, []string{"E3"}, ids(result.ByViews),
		"only one unclaimed entry remains; the list is not padded")
}

func TestSelect_ListsPairwiseDisjoint(t *testing.T) {
	result := selection.Select(fiveEntries(), 2)

	seen := map[string]int{}
	for _, e := range result.All() {
		seen[e.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "entry %s appears in more than one list", id)
	}
}

func TestSelect_TiesKeepInputOrder(t *testing.T) {
	entries := []selection.Entry{
		{ID: "A", Likes: 5},
		{ID: "B", Likes: 5},
		{ID: "C", Likes: 5},
	}

	result := selection.Select(entries, 2)

	assert.Equal(t, []string{"A", "B"}, ids(result.ByLikes))
}

func TestSelect_FewerEntriesThanN(t *testing.T) {
	entries := []selection.Entry{
		{ID: "A", Likes: 3, Comments: 1, Views: 2},
	}

	result := selection.Select(entries, 5)

	assert.Equal(t, []string{"A"}, ids(result.ByLikes))
	assert.Empty(t, result.ByComments)
	assert.Empty(t, result.ByViews)
}

func TestSelect_EmptyEntries(t *testing.T) {
	result := selection.Select([]selection.Entry{}, 3)

	assert.Empty(t, result.ByLikes)
	assert.Empty(t, result.ByComments)
	assert.Empty(t, result.ByViews)
}

func TestSelect_ZeroN(t *testing.T) {
	result := selection.Select(fiveEntries(), 0)

	assert.Empty(t, result.ByLikes)
	assert.Empty(t, result.ByComments)
	assert.Empty(t, result.ByViews)
}

func TestSelect_NegativeN(t *testing.T) {
	result := selection.Select(fiveEntries(), -1)

	assert.Empty(t, result.All())
}

func TestSelect_InputNotMutated(t *testing.T) {
	entries := fiveEntries()

	selection.Select(entries, 2)

	require.Len(t, entries, 5)
	assert.Equal(t, []string{"E1", "E2", "E3", "E4", "E5"}, ids(entries))
}

func TestSelect_AllClaimOrder(t *testing.T) {
	result := selection.Select(fiveEntries(), 2)

	assert.Equal(t, []string{"E1", "E2", "E4", "E5", "E3"}, ids(result.All()))
}
