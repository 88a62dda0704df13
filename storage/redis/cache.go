package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultKeyPrefix namespaces every key written by the cache.
	DefaultKeyPrefix = "jobmatch:embedding"

	// maxTxAttempts bounds optimistic-lock retries in Invalidate.
	maxTxAttempts = 5
)

// EmbeddingCache implements storage.EmbeddingCache on Redis so several
// engine processes share one set of vectors. Each entity is one string key
// holding the binary record encoding of its embedding.
type EmbeddingCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ storage.EmbeddingCache = (*EmbeddingCache)(nil)

// Option configures an EmbeddingCache.
type Option func(*EmbeddingCache)

// WithKeyPrefix sets the key namespace. Default is DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *EmbeddingCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithTTL expires vectors after ttl. Zero, the default, keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *EmbeddingCache) {
		c.ttl = ttl
	}
}

// Open connects to Redis at the given URL and returns an EmbeddingCache.
// URL format: redis://localhost:6379/0
func Open(ctx context.Context, redisURL string, opts ...Option) (*EmbeddingCache, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewEmbeddingCache(client, opts...), nil
}

// NewEmbeddingCache wraps an existing client. Close closes the client.
func NewEmbeddingCache(client *redis.Client, opts ...Option) *EmbeddingCache {
	c := &EmbeddingCache{
		client: client,
		prefix: DefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes the Redis connection.
func (c *EmbeddingCache) Close() error {
	return c.client.Close()
}

func (c *EmbeddingCache) EmbeddingOf(ctx context.Context, ref core.EntityRef) (core.Embedding, error) {
	data, err := c.client.Get(ctx, c.key(ref)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.Embedding{}, nil
	}
	if err != nil {
		return core.Embedding{}, err
	}
	return storage.UnmarshalEmbedding(data)
}

// EmbeddingsOf fetches every key with one MGET.
func (c *EmbeddingCache) EmbeddingsOf(ctx context.Context, refs ...core.EntityRef) (map[core.EntityRef]core.Embedding, error) {
	result := make(map[core.EntityRef]core.Embedding, len(refs))
	if len(refs) == 0 {
		return result, nil
	}

	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = c.key(ref)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for i, value := range values {
		s, ok := value.(string)
		if !ok {
			continue
		}
		emb, err := storage.UnmarshalEmbedding([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("embedding of %s %d: %w", refs[i].Kind, refs[i].Id, err)
		}
		if emb.Present() {
			result[refs[i]] = emb
		}
	}
	return result, nil
}

// Invalidate flips the stale flag of each existing record under WATCH, so a
// concurrent Store is never overwritten with an older vector.
func (c *EmbeddingCache) Invalidate(ctx context.Context, refs ...core.EntityRef) error {
	for _, ref := range refs {
		if err := c.invalidate(ctx, c.key(ref)); err != nil {
			return fmt.Errorf("failed to invalidate %s %d: %w", ref.Kind, ref.Id, err)
		}
	}
	return nil
}

func (c *EmbeddingCache) invalidate(ctx context.Context, key string) error {
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		emb, err := storage.UnmarshalEmbedding(data)
		if err != nil {
			return err
		}
		if emb.Stale {
			return nil
		}
		emb.Stale = true

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, storage.MarshalEmbedding(emb), redis.KeepTTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := c.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("%w: too many concurrent writers", redis.TxFailedErr)
}

func (c *EmbeddingCache) Store(ctx context.Context, ref core.EntityRef, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for %s %d", storage.ErrInvalidRecord, ref.Kind, ref.Id)
	}
	emb := core.Embedding{
		Vector:     vector,
		ComputedAt: time.Now().UTC(),
	}
	return c.client.Set(ctx, c.key(ref), storage.MarshalEmbedding(emb), c.ttl).Err()
}

func (c *EmbeddingCache) key(ref core.EntityRef) string {
	return c.prefix + ":" + ref.Kind.String() + ":" + strconv.FormatUint(uint64(ref.Id), 10)
}
