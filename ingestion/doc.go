// Package ingestion keeps listing embeddings in step with listing content.
// The Pipeline type runs the listing-ingest step:
//   - building the embedding document of a listing (BuildDocument)
//   - requesting its vector from the recommender service
//   - storing the vector in the embedding cache, clearing staleness
//
// Listings can be embedded synchronously (EmbedListing) or submitted to a
// worker pool (Submit, ListingChanged). Failures during async processing are
// logged and leave the listing's embedding absent or stale for the backfill.
package ingestion
