package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage implements fiber.Storage so sessions survive restarts and can
// be shared by several instances.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

func NewRedisStorage(addr string) *RedisStorage {
	return &RedisStorage{client: redis.NewClient(&redis.Options{Addr: addr}), prefix: "supermart:session:"}
}

func (r *RedisStorage) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	b, err := r.client.Get(context.Background(), r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

func (r *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return r.client.Set(context.Background(), r.prefix+key, val, exp).Err()
}

func (r *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return r.client.Del(context.Background(), r.prefix+key).Err()
}

// Reset drops every session under our prefix.
func (r *RedisStorage) Reset() error {
	ctx := context.Background()
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *RedisStorage) Close() error { return r.client.Close() }
