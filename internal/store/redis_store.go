package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cooksync/internal/config"
	"github.com/cooksync/internal/document"
)

// RedisStore implements Store using Redis. Each session's document is stored
// as a single JSON value with an optional TTL so abandoned sessions clean
// themselves up.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration // 0 = no expiration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

// LoadDocument retrieves a session's document from Redis.
func (s *RedisStore) LoadDocument(ctx context.Context, id string) (document.Document, error) {
	data, err := s.client.Get(ctx, documentKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return document.Document{}, ErrSessionNotFound
		}
		return document.Document{}, fmt.Errorf("failed to get document: %w", err)
	}

	var doc document.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return document.Document{}, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// SaveDocument replaces a session's document in Redis, refreshing the TTL.
func (s *RedisStore) SaveDocument(ctx context.Context, id string, doc document.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := s.client.Set(ctx, documentKey(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

// DeleteDocument removes a session's document from Redis.
func (s *RedisStore) DeleteDocument(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, documentKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// documentKey generates the Redis key for a session's document.
func documentKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
