package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore holds the append-only seen log and carousel cooldown marks.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func seenKey(userID string) string {
	return fmt.Sprintf("feed:seen:%s", userID)
}

func carouselKey(userID, carouselType string) string {
	return fmt.Sprintf("feed:carousel:%s:%s", userID, carouselType)
}

// RecordSeen appends shown post IDs to the caller's seen log, scored by
// time so reads can window on it. Entries older than two days are
// trimmed on write.
func (s *RedisStore) RecordSeen(ctx context.Context, userID string, postIDs []string, at time.Time) error {
	if len(postIDs) == 0 {
		return nil
	}
	members := make([]redis.Z, 0, len(postIDs))
	for _, id := range postIDs {
		members = append(members, redis.Z{Score: float64(at.Unix()), Member: id})
	}
	key := seenKey(userID)
	if err := s.rdb.ZAdd(ctx, key, members...).Err(); err != nil {
		return err
	}
	horizon := at.Add(-48 * time.Hour).Unix()
	if err := s.rdb.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprint(horizon)).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, key, 48*time.Hour).Err()
}

// SeenPostIDs returns post IDs recorded since the given time, bounded.
func (s *RedisStore) SeenPostIDs(ctx context.Context, userID string, since time.Time, limit int) ([]string, error) {
	return s.rdb.ZRangeByScore(ctx, seenKey(userID), &redis.ZRangeBy{
		Min:   fmt.Sprint(since.Unix()),
		Max:   "+inf",
		Count: int64(limit),
	}).Result()
}

// HasSeenCarousel reports whether a cooldown mark for this carousel type
// is still live.
func (s *RedisStore) HasSeenCarousel(ctx context.Context, userID, carouselType string) (bool, error) {
	_, err := s.rdb.Get(ctx, carouselKey(userID, carouselType)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkCarouselSeen writes a cooldown mark for the carousel type.
func (s *RedisStore) MarkCarouselSeen(ctx context.Context, userID, carouselType string, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, carouselKey(userID, carouselType), "1", d).Err()
}
