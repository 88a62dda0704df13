package search

import (
	"strings"

	"github.com/poiesic/jobmatch/core"
)

// MatchesFilter reports whether a listing satisfies every predicate of spec.
// Within a field the values are alternatives; across fields all must hold.
// Absent fields impose no constraint. Eligibility is not checked here.
func MatchesFilter(listing *core.Listing, spec core.FilterSpec) bool {
	if listing == nil {
		return false
	}
	if wanted := nonBlank(spec.Categories); len(wanted) > 0 && !anyEqualFold(listing.Categories, wanted) {
		return false
	}
	if wanted := nonBlank(spec.Types); len(wanted) > 0 && !anyEqualFold([]string{listing.Type}, wanted) {
		return false
	}
	if spec.SalaryFrom != nil && (listing.SalaryFrom == nil || *listing.SalaryFrom < *spec.SalaryFrom) {
		return false
	}
	if spec.SalaryTo != nil && (listing.SalaryTo == nil || *listing.SalaryTo > *spec.SalaryTo) {
		return false
	}
	return true
}

// matchesLocation applies the optional country and city filters as
// case-insensitive substring tests.
func matchesLocation(listing *core.Listing, country, city string) bool {
	if country != "" && !containsFold(listing.Country, country) {
		return false
	}
	if city != "" && !containsFold(listing.City, city) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func anyEqualFold(values, wanted []string) bool {
	for _, v := range values {
		for _, w := range wanted {
			if strings.EqualFold(strings.TrimSpace(v), w) {
				return true
			}
		}
	}
	return false
}

func nonBlank(values []string) []string {
	var result []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
