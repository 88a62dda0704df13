package search

import (
	"cmp"

	"github.com/poiesic/jobmatch/core"
)

// CompareRecency orders listings by posted-on descending, then by ID
// ascending. Distinct listings never compare equal.
func CompareRecency(a, b *core.Listing) int {
	if c := b.PostedOn.Compare(a.PostedOn); c != 0 {
		return c
	}
	return cmp.Compare(a.Id, b.Id)
}

// CompareScored orders scored listings by score descending and breaks ties
// with CompareRecency.
func CompareScored(a, b core.ScoredListing) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return CompareRecency(a.Listing, b.Listing)
}

// Paginate returns the page of items starting at skip holding at most limit
// entries. Callers sort before paginating.
func Paginate[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit < end-skip {
		end = skip + limit
	}
	return items[skip:end]
}
