package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"marblehills.com/app/internal/modules/flow"
)

// Store keeps wizard drafts in redis under the session id. Drafts are
// short-lived by design: the TTL slides on every save and nothing survives
// it — the cart itself is the only durable output of a session.

const keyPrefix = "boxdraft:"

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Connect dials redis from a URL and verifies the connection.
func Connect(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return client, nil
}

// Get loads a session's draft. A missing key returns (nil, nil).
func (s *Store) Get(ctx context.Context, sessionID string) (*flow.Draft, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d flow.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		// corrupt drafts are dropped, not surfaced: the shopper restarts
		// the wizard instead of being wedged
		_ = s.rdb.Del(ctx, keyPrefix+sessionID).Err()
		return nil, nil
	}
	return &d, nil
}

func (s *Store) Save(ctx context.Context, sessionID string, d *flow.Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+sessionID, raw, s.ttl).Err()
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, keyPrefix+sessionID).Err()
}
