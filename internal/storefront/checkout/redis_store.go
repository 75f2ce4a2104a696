package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDraftTTL = 30 * time.Minute

// RedisDraftStore keeps drafts in Redis so any storefront replica can serve checkout.
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftStore returns a RedisDraftStore writing keys with ttl.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	return &RedisDraftStore{client: client, ttl: ttl}
}

func draftKey(id string) string {
	return fmt.Sprintf("checkout:draft:%s", id)
}

func (s *RedisDraftStore) Save(ctx context.Context, draft Draft) error {
	if draft.ID == "" {
		return errors.New("checkout: draft id is required")
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft failed: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(draft.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Load(ctx context.Context, id string) (Draft, error) {
	data, err := s.client.Get(ctx, draftKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Draft{}, ErrDraftNotFound
	}
	if err != nil {
		return Draft{}, fmt.Errorf("redis get failed: %w", err)
	}
	var draft Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return Draft{}, fmt.Errorf("unmarshal draft failed: %w", err)
	}
	return draft, nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, draftKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}
