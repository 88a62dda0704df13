// Package reembed backfills embeddings that are absent or stale.
//
// A Backfiller finds every eligible listing and every profile whose cached
// vector is missing or marked stale, recomputes the vectors in batches
// through the recommender service and stores them in the embedding cache.
// Calls are retried with exponential backoff, optionally rate limited, and
// progress is reported to a writer. A Scheduler runs the backfill on a cron
// schedule.
package reembed
