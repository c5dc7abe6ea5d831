package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"swiftparcel/internal/domain"
)

// Store holds the single latest location sample per order. Publishing
// replaces the previous sample outright; there is no history.
type Store interface {
	Publish(ctx context.Context, sample domain.LocationSample) error
	Latest(ctx context.Context, orderID string) (*domain.LocationSample, error)
	Clear(ctx context.Context, orderID string) error
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func locationKey(orderID string) string {
	return fmt.Sprintf("track:loc:%s", orderID)
}

func (s *RedisStore) Publish(ctx context.Context, sample domain.LocationSample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("encoding location sample: %w", err)
	}

	// The TTL keeps a crashed publisher from leaving a stale position
	// pinned on the map.
	if err := s.client.Set(ctx, locationKey(sample.OrderID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("publishing location sample: %w", err)
	}

	return nil
}

// Latest returns nil with no error when the driver has not shared a location
// yet; viewers render a "not yet shared" state, never default coordinates.
func (s *RedisStore) Latest(ctx context.Context, orderID string) (*domain.LocationSample, error) {
	payload, err := s.client.Get(ctx, locationKey(orderID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching location sample: %w", err)
	}

	var sample domain.LocationSample
	if err := json.Unmarshal([]byte(payload), &sample); err != nil {
		return nil, fmt.Errorf("decoding location sample: %w", err)
	}

	return &sample, nil
}

func (s *RedisStore) Clear(ctx context.Context, orderID string) error {
	if err := s.client.Del(ctx, locationKey(orderID)).Err(); err != nil {
		return fmt.Errorf("clearing location sample: %w", err)
	}
	return nil
}
