package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// KVStore implements app.KVStore on Redis, backing settings and local bests.
// Values are kept without expiry; settings are tiny and overwrite in place.
type KVStore struct {
	client *redis.Client
}

func NewKVStore(client *redis.Client) *KVStore {
	return &KVStore{client: client}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, "kv:"+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, "kv:"+key, value, 0).Err()
}
