// File: services/intelligence/contextStore.go
package intelligence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-redis/redis/v8"
)

const copyCachePrefix = "ai:copy:"

// RedisCopyStore keeps generated text for a while so identical prompts do
// not hit the model again.
type RedisCopyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCopyStore(client *redis.Client, ttl time.Duration) *RedisCopyStore {
	return &RedisCopyStore{client: client, ttl: ttl}
}

// Get returns ok=false on a miss.
func (s *RedisCopyStore) Get(ctx context.Context, kind, prompt string) (string, bool, error) {
	data, err := s.client.Get(ctx, copyKey(kind, prompt)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return data, true, nil
}

func (s *RedisCopyStore) Set(ctx context.Context, kind, prompt, text string) error {
	return s.client.Set(ctx, copyKey(kind, prompt), text, s.ttl).Err()
}

func copyKey(kind, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return copyCachePrefix + kind + ":" + hex.EncodeToString(sum[:12])
}
