// Package redis provides a storage.EmbeddingCache backed by Redis, for
// deployments where several engine processes share one vector cache.
// Records use the same binary encoding as the BadgerDB backend.
package redis
