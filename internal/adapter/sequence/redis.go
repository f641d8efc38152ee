package sequence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"procurement-backend/internal/domain/refcode"
)

var _ refcode.Sequencer = (*RedisSequencer)(nil)

// bucketTTL outlives the date bucket so late callers around midnight still
// see the running counter.
const bucketTTL = 48 * time.Hour

// RedisSequencer hands out counters with INCR. Values are unique and
// monotonic, but a rolled-back transaction leaves a gap.
type RedisSequencer struct {
	rdb *redis.Client
}

func NewRedisSequencer(rdb *redis.Client) *RedisSequencer { return &RedisSequencer{rdb: rdb} }

func Key(prefix, datePart string) string { return "refcode:" + prefix + ":" + datePart }

func (s *RedisSequencer) Next(ctx context.Context, prefix, datePart string) (int64, error) {
	key := Key(prefix, datePart)
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, bucketTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
