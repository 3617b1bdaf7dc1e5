package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Set sets a key-value pair in Redis.
func Set(ctx context.Context, client *redis.Client, key string, value interface{}, ttl time.Duration) error {
	return client.Set(ctx, key, value, ttl).Err()
}

// Get retrieves the value of a key from Redis.
func Get(ctx context.Context, client *redis.Client, key string) (string, error) {
	return client.Get(ctx, key).Result()
}

// GetOptional is Get with a missing key reported as "".
func GetOptional(ctx context.Context, client *redis.Client, key string) (string, error) {
	value, err := Get(ctx, client, key)
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

// MGet retrieves several keys at once; missing keys come back as "".
func MGet(ctx context.Context, client *redis.Client, keys ...string) ([]string, error) {
	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(values))
	for i, v := range values {
		if s, ok := v.(string); ok {
			out[i] = s
		}
	}
	return out, nil
}

// Del deletes keys from Redis and reports how many existed.
func Del(ctx context.Context, client *redis.Client, keys ...string) (int64, error) {
	return client.Del(ctx, keys...).Result()
}

// Exists checks if a key exists in Redis.
func Exists(ctx context.Context, client *redis.Client, key string) (bool, error) {
	exists, err := client.Exists(ctx, key).Result()
	return exists > 0, err
}

// Publish sends a message on a pub/sub channel.
func Publish(ctx context.Context, client *redis.Client, channel string, message interface{}) error {
	return client.Publish(ctx, channel, message).Err()
}

// Subscribe opens a subscription and waits for the server to confirm it.
func Subscribe(ctx context.Context, client *redis.Client, channel string) (*redis.PubSub, error) {
	sub := client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	return sub, nil
}
