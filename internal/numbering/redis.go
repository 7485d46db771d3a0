package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "mastercrm:order_number:"
	redisCounterTTL = 62 * 24 * time.Hour
)

// RedisSequence держит счётчики месяцев в Redis: INCR атомарен между процессами.
type RedisSequence struct {
	client *redis.Client
	finder LastNumberFinder
}

// NewRedisClient создаёт клиент Redis по адресу.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// NewRedisSequence создаёт счётчик поверх клиента Redis.
func NewRedisSequence(client *redis.Client, finder LastNumberFinder) *RedisSequence {
	return &RedisSequence{client: client, finder: finder}
}

// Next выдаёт следующий номер для префикса.
func (s *RedisSequence) Next(ctx context.Context, prefix string) (int, error) {
	key := redisKeyPrefix + prefix

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("check counter %s: %w", key, err)
	}

	if exists == 0 {
		seed := 0
		if s.finder != nil {
			last, err := s.finder.LastNumber(ctx, prefix)
			if err != nil {
				return 0, fmt.Errorf("seed sequence: %w", err)
			}
			seed = NextAfter(last, prefix) - 1
		}
		// Конкурентный SETNX проиграет, но засеет тем же значением.
		if err := s.client.SetNX(ctx, key, seed, redisCounterTTL).Err(); err != nil {
			return 0, fmt.Errorf("seed counter %s: %w", key, err)
		}
	}

	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", key, err)
	}

	return int(n), nil
}
