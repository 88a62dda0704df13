package search

import "github.com/poiesic/jobmatch/core"

// SearchMonitor receives callbacks at each stage of a search.
// Used by the CLI to explain why listings ranked the way they did.
type SearchMonitor interface {
	Start(query Query)
	AfterTokenize(tokens []string)
	AfterEligibility(candidates []*core.Listing)
	Scored(listing *core.Listing, score int)
	Finish(results []core.ScoredListing)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Query)                      {}
func (n *noopMonitor) AfterTokenize(_ []string)           {}
func (n *noopMonitor) AfterEligibility(_ []*core.Listing) {}
func (n *noopMonitor) Scored(_ *core.Listing, _ int)      {}
func (n *noopMonitor) Finish(_ []core.ScoredListing)      {}
