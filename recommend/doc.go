// Package recommend produces personalized listing recommendations.
//
// The Orchestrator makes sure a profile's vector is fresh, gathers the
// vectors of eligible listings that already have one, asks the recommender
// service to rank them and hydrates the ranked IDs into full listings.
// Recommendation is best effort: every failure of the recommender service
// degrades to an empty result instead of an error.
package recommend
