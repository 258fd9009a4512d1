package selection

import (
	"sort"
)

/*
Responsibilities
- Rank board-listing entries across the three popularity metrics
- Partition the winners so no entry is credited to more than one metric

Algorithm
- Metrics are processed in fixed priority order: likes, then comments,
  then views. Each metric sorts the entries it can still claim by value
  descending (stable, so ties keep input order), takes the first n, and
  marks their ids claimed for the remaining metrics.
- An entry ranking highly on several metrics is credited only to the
  earliest metric, which frees later lists for other entries.
*/

// Entry is one row of a board listing with its popularity counters.
type Entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`

	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Views    int `json:"views"`
}

// Result partitions the selected entries by the metric that claimed them.
// The three lists are pairwise disjoint by id.
type Result struct {
	ByLikes    []Entry `json:"byLikes"`
	ByComments []Entry `json:"byComments"`
	ByViews    []Entry `json:"byViews"`
}

// All returns the selected entries in claim order: likes winners first,
// then comments, then views.
func (r Result) All() []Entry {
	all := make([]Entry, 0, len(r.ByLikes)+len(r.ByComments)+len(r.ByViews))
	all = append(all, r.ByLikes...)
	all = append(all, r.ByComments...)
	all = append(all, r.ByViews...)
	return all
}

// Select picks the top n entries per metric with cross-metric
// de-duplication. Lists come back shorter than n when too few unclaimed
// entries remain; they are never padded. n <= 0 or an empty input yields
// three empty lists.
func Select(entries []Entry, n int) Result {
	result := Result{
		ByLikes:    []Entry{},
		ByComments: []Entry{},
		ByViews:    []Entry{},
	}
	if n <= 0 || len(entries) == 0 {
		return result
	}

	claimed := make(map[string]bool, 3*n)

	result.ByLikes = takeTop(entries, n, claimed, func(e Entry) int { return e.Likes })
	result.ByComments = takeTop(entries, n, claimed, func(e Entry) int { return e.Comments })
	result.ByViews = takeTop(entries, n, claimed, func(e Entry) int { return e.Views })

	return result
}

// takeTop selects the n highest unclaimed entries by the given metric and
// marks them claimed. Stable sort keeps input order on ties.
func takeTop(entries []Entry, n int, claimed map[string]bool, metric func(Entry) int) []Entry {
	candidates := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if !claimed[entry.ID] {
			candidates = append(candidates, entry)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return metric(candidates[i]) > metric(candidates[j])
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	for _, entry := range candidates {
		claimed[entry.ID] = true
	}
	return candidates
}
