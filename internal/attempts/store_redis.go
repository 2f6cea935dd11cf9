package attempts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-llm-move/internal/domain"
)

const DefaultTTL = 24 * time.Hour

// RedisStore keeps attempts as JSON blobs with a per-position id list.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) keyAttempt(id string) string   { return "attempt:" + strings.TrimSpace(id) }
func (s *RedisStore) keyPosition(fen string) string { return "attempts:pos:" + PositionKey(fen) }

func (s *RedisStore) Record(ctx context.Context, a domain.Attempt) error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("attempt id is required")
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	idx := s.keyPosition(a.FEN)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.keyAttempt(a.ID), raw, s.ttl)
		p.LPush(ctx, idx, a.ID)
		p.LTrim(ctx, idx, 0, MaxLimit-1)
		p.Expire(ctx, idx, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis record attempt: %w", err)
	}
	return nil
}

// Recent skips ids whose record already expired.
func (s *RedisStore) Recent(ctx context.Context, fen string, limit int) ([]domain.Attempt, error) {
	limit = clampLimit(limit)
	ids, err := s.rdb.LRange(ctx, s.keyPosition(fen), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list attempts: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keyAttempt(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load attempts: %w", err)
	}
	out := make([]domain.Attempt, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var a domain.Attempt
		if err := json.Unmarshal([]byte(str), &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
