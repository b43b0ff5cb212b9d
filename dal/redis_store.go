package dal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mcpadmin/models"
	"mcpadmin/utils/logger"

	"github.com/redis/go-redis/v9"
)

const redisScanCount = 100

// RedisStore keeps values in Redis under "<namespace>:<key>"
type RedisStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	logger    logger.Logger
}

// NewRedisClient creates a Redis client from config and pings it
func NewRedisClient(ctx context.Context, cfg *models.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// NewRedisStore wraps an existing client. A ttl of zero keeps keys forever.
func NewRedisStore(client *redis.Client, namespace string, ttl time.Duration, log logger.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
		logger:    log,
	}
}

func (s *RedisStore) key(k string) string {
	return s.namespace + ":" + k
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Errorf("Redis GET %s failed: %v", s.key(key), err)
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		s.logger.Errorf("Redis SET %s failed: %v", s.key(key), err)
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear deletes every key matching "<namespace>:*" using SCAN
func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	pattern := s.namespace + ":*"
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, redisScanCount).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	s.logger.Debugf("Cleared redis namespace %s", s.namespace)
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
