package search

import (
	"strings"

	"github.com/poiesic/jobmatch/core"
)

// Field weights used by Score.
const (
	WeightTitle       = 5
	WeightCompany     = 4
	WeightType        = 2
	WeightDescription = 1
	WeightSkill       = 2
	WeightCategory    = 2
)

// scoringFields holds the normalized forms of the fields a listing is scored on.
type scoringFields struct {
	title       string
	company     string
	typ         string
	description string
	skills      []string
	categories  []string
}

func newScoringFields(listing *core.Listing) *scoringFields {
	f := &scoringFields{
		title:       NormalizeField(listing.Title),
		company:     NormalizeField(listing.Company),
		typ:         NormalizeField(listing.Type),
		description: NormalizeField(listing.Description),
		skills:      make([]string, len(listing.Skills)),
		categories:  make([]string, len(listing.Categories)),
	}
	for i, s := range listing.Skills {
		f.skills[i] = NormalizeField(s)
	}
	for i, c := range listing.Categories {
		f.categories[i] = NormalizeField(c)
	}
	return f
}

// tokenScore sums the weights of every field containing token.
func (f *scoringFields) tokenScore(token string) int {
	score := 0
	if strings.Contains(f.title, token) {
		score += WeightTitle
	}
	if strings.Contains(f.company, token) {
		score += WeightCompany
	}
	if strings.Contains(f.typ, token) {
		score += WeightType
	}
	if strings.Contains(f.description, token) {
		score += WeightDescription
	}
	if anyContains(f.skills, token) {
		score += WeightSkill
	}
	if anyContains(f.categories, token) {
		score += WeightCategory
	}
	return score
}

func anyContains(fields []string, token string) bool {
	for _, field := range fields {
		if strings.Contains(field, token) {
			return true
		}
	}
	return false
}

// Score computes the keyword relevance of a listing against normalized query
// tokens. Each token is tested for substring containment in every weighted
// field independently and the weights of all matching fields are summed over
// all tokens. A listing with score 0 does not match.
func Score(listing *core.Listing, tokens []string) int {
	if listing == nil || len(tokens) == 0 {
		return 0
	}
	fields := newScoringFields(listing)
	total := 0
	for _, token := range tokens {
		total += fields.tokenScore(token)
	}
	return total
}

// scoreAll is Score that also reports whether every token matched at least
// one field.
func scoreAll(listing *core.Listing, tokens []string) (int, bool) {
	fields := newScoringFields(listing)
	total := 0
	all := true
	for _, token := range tokens {
		s := fields.tokenScore(token)
		if s == 0 {
			all = false
		}
		total += s
	}
	return total, all
}
