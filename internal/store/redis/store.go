package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/keepmark/internal/domain"
)

// maxTxRetries bounds optimistic-locking retries on a contended document.
const maxTxRetries = 5

// Store persists notes and bookmarks as JSON documents in Redis. Each user
// has one sorted set per record type, scored by creation time, so listings
// come back newest first without sorting in Go.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks that Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// getDoc loads and decodes the document at key. A missing key, or a
// document owned by someone else, is reported as domain.ErrNotFound.
func getDoc[T any](ctx context.Context, c getter, key, user string, owner func(*T) string) (*T, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	if user != "" && owner(&doc) != user {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// listDocs returns the documents referenced by the sorted set at indexKey,
// highest score first. Index entries whose document vanished are skipped.
func listDocs[T any](ctx context.Context, c *redis.Client, indexKey string, docKey func(string) string) ([]*T, error) {
	ids, err := c.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", indexKey, err)
	}
	if len(ids) == 0 {
		return []*T{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(id)
	}

	values, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	docs := make([]*T, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var doc T
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", keys[i], err)
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

// updateDoc applies fn to the document at key under WATCH, so concurrent
// writers never lose each other's changes. after runs inside the same
// MULTI block with the updated document.
func updateDoc[T any](
	ctx context.Context,
	c *redis.Client,
	key, user string,
	owner func(*T) string,
	fn func(*T) error,
	after func(pipe redis.Pipeliner, doc *T),
) (*T, error) {
	var updated *T

	txf := func(tx *redis.Tx) error {
		doc, err := getDoc(ctx, tx, key, user, owner)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if after != nil {
				after(pipe, doc)
			}
			return nil
		})
		if err != nil {
			return err
		}
		updated = doc
		return nil
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := c.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("failed to update %s: too many concurrent writers", key)
}

// score orders index entries by creation time.
func score(unixMilli int64) float64 {
	return float64(unixMilli)
}
