package claimRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const claimPrefix = "reminder:claim:"

// DefaultClaimTTL outlives the calendar day the claim is keyed on in any zone.
const DefaultClaimTTL = 48 * time.Hour

type RedisClaimStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClaimStore(client *redis.Client, ttl time.Duration) *RedisClaimStore {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	return &RedisClaimStore{client: client, ttl: ttl}
}

func claimKey(intakeTimeID, day string) string {
	return claimPrefix + intakeTimeID + ":" + day
}

func (s *RedisClaimStore) Claim(ctx context.Context, intakeTimeID, day string) (bool, error) {
	ok, err := s.client.SetNX(ctx, claimKey(intakeTimeID, day), time.Now().Unix(), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s on %s: %w", intakeTimeID, day, err)
	}
	return ok, nil
}

func (s *RedisClaimStore) Release(ctx context.Context, intakeTimeID, day string) error {
	if err := s.client.Del(ctx, claimKey(intakeTimeID, day)).Err(); err != nil {
		return fmt.Errorf("release %s on %s: %w", intakeTimeID, day, err)
	}
	return nil
}
