package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanCount = 500

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds dial, read and write operations.
	Timeout time.Duration
}

// RedisStore implements Store on Redis.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore connects to Redis. The connection is lazy; use Ping to check it.
func NewRedisStore(opts RedisOptions) *RedisStore {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	return &RedisStore{client: client}
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("get", err)
	}
	return v, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (r *RedisStore) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := r.client.SAdd(ctx, key, toArgs(members)...).Err(); err != nil {
		return unavailable("sadd", err)
	}
	return nil
}

func (r *RedisStore) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := r.client.SRem(ctx, key, toArgs(members)...).Err(); err != nil {
		return unavailable("srem", err)
	}
	return nil
}

func (r *RedisStore) SMembers(ctx context.Context, key string) ([]string, error) {
	v, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, unavailable("smembers", err)
	}
	return v, nil
}

// PushRecent runs LREM, LPUSH, LTRIM and EXPIRE in one MULTI/EXEC transaction.
func (r *RedisStore) PushRecent(ctx context.Context, key, member string, maxLen int, ttl time.Duration) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, key, 0, member)
		pipe.LPush(ctx, key, member)
		if maxLen > 0 {
			pipe.LTrim(ctx, key, 0, int64(maxLen-1))
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return unavailable("push recent", err)
	}
	return nil
}

func (r *RedisStore) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	v, err := r.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, unavailable("lrange", err)
	}
	return v, nil
}

// Keys uses SCAN rather than KEYS so large key spaces do not block the server.
func (r *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, unavailable("scan", err)
	}
	return keys, nil
}

func (r *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return unavailable("del", err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func toArgs(members []string) []interface{} {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return args
}
