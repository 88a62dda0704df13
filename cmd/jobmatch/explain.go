package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/search"
)

// explainMonitor prints each stage of a search so users can see why
// listings ranked the way they did.
type explainMonitor struct {
	w io.Writer
}

var _ search.SearchMonitor = (*explainMonitor)(nil)

func (m *explainMonitor) Start(q search.Query) {
	fmt.Fprintf(m.w, "query: %q", q.Keyword)
	if q.Country != "" || q.City != "" {
		fmt.Fprintf(m.w, " country=%q city=%q", q.Country, q.City)
	}
	fmt.Fprintf(m.w, " skip=%d limit=%d\n", q.Skip, q.Limit)
}

func (m *explainMonitor) AfterTokenize(tokens []string) {
	if len(tokens) == 0 {
		fmt.Fprintln(m.w, "tokens: none, browsing by posting date")
		return
	}
	fmt.Fprintf(m.w, "tokens: %s\n", strings.Join(tokens, " "))
}

func (m *explainMonitor) AfterEligibility(candidates []*core.Listing) {
	fmt.Fprintf(m.w, "eligible candidates: %d\n", len(candidates))
}

func (m *explainMonitor) Scored(listing *core.Listing, score int) {
	fmt.Fprintf(m.w, "  score %3d  [%d] %s\n", score, listing.Id, listing.Title)
}

func (m *explainMonitor) Finish(results []core.ScoredListing) {
	fmt.Fprintf(m.w, "returned: %d\n\n", len(results))
}
