package storage

import (
	"context"

	"github.com/poiesic/jobmatch/core"
)

// ResolveNames maps names to their stored spelling, creating missing terms.
// Names differing only by case collapse to the first occurrence.
func ResolveNames(ctx context.Context, repo TaxonomyRepository, kind core.TermKind, names []string) ([]string, error) {
	deduped := core.DedupeNames(names)
	if len(deduped) == 0 {
		return nil, nil
	}
	result := make([]string, len(deduped))
	for i, name := range deduped {
		term, err := repo.GetOrCreateTerm(ctx, kind, name)
		if err != nil {
			return nil, err
		}
		result[i] = term.Name
	}
	return result, nil
}
