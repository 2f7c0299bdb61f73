package hashpool

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey   = "binify:hashpool:queue"
	emittedKey = "binify:hashpool:emitted"
	seqKey     = "binify:hashpool:seq"

	redisOpTimeout = 2 * time.Second
)

// RedisStore keeps the pool state in Redis so every app instance shares one
// queue and the sequence survives restarts.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, redisOpTimeout)
}

func (r *RedisStore) Len(ctx context.Context) (int64, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()
	return r.client.LLen(ctx, queueKey).Result()
}

func (r *RedisStore) PopFront(ctx context.Context) (string, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()
	v, err := r.client.LPop(ctx, queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrEmpty
		}
		return "", err
	}
	return v, nil
}

func (r *RedisStore) PushFront(ctx context.Context, value string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()
	return r.client.LPush(ctx, queueKey, value).Err()
}

func (r *RedisStore) Enqueue(ctx context.Context, values []string) error {
	if len(values) == 0 {
		return nil
	}
	ctx, cancel := opContext(ctx)
	defer cancel()
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return r.client.RPush(ctx, queueKey, args...).Err()
}

func (r *RedisStore) MarkEmitted(ctx context.Context, values []string) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ctx, cancel := opContext(ctx)
	defer cancel()

	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(values))
	for i, v := range values {
		cmds[i] = pipe.SAdd(ctx, emittedKey, v)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	fresh := make([]string, 0, len(values))
	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			fresh = append(fresh, values[i])
		}
	}
	return fresh, nil
}

func (r *RedisStore) NextSeq(ctx context.Context, n uint64) (uint64, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()
	end, err := r.client.IncrBy(ctx, seqKey, int64(n)).Result()
	if err != nil {
		return 0, err
	}
	return uint64(end) - n, nil
}
