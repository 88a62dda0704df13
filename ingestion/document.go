package ingestion

import (
	"strings"

	"github.com/poiesic/jobmatch/core"
)

// emptyValue stands in for a missing field in the embedding document.
const emptyValue = "Empty"

// BuildDocument renders the text the recommender embeds for a listing: one
// "label: value" line per field, joined with CRLF. Missing values are written
// as "Empty"; categories and skills are comma-separated.
//
// Equal listing content always yields an equal document.
func BuildDocument(listing *core.Listing) string {
	lines := []struct {
		label string
		value string
	}{
		{"title", listing.Title},
		{"keywords", listing.Keywords},
		{"categories", strings.Join(listing.Categories, ", ")},
		{"type", listing.Type},
		{"required skills", strings.Join(listing.Skills, ", ")},
		{"nice to have", listing.NiceToHaves},
		{"responsibilities", listing.Responsibilities},
		{"description", listing.Description},
		{"who you are", listing.WhoYouAre},
	}

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\r\n")
		}
		value := strings.TrimSpace(line.value)
		if value == "" {
			value = emptyValue
		}
		b.WriteString(line.label)
		b.WriteString(": ")
		b.WriteString(value)
	}
	return b.String()
}
