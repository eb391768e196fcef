package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ragchat/internal/domain"
)

const defaultPrefix = "ragchat:session:"

// SessionStore keeps each session as a Redis list of JSON messages. Every
// append refreshes the key's TTL, so idle sessions expire on their own.
type SessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, prefix string, ttl time.Duration) *SessionStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SessionStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *SessionStore) key(id string) string {
	return s.prefix + id
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	key := s.key(id)

	values, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis lrange: %v", domain.ErrExternalService, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}

	messages := make([]domain.Message, 0, len(values))
	for i, v := range values {
		var msg domain.Message
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message %d of session %s: %w", i, id, err)
		}
		messages = append(messages, msg)
	}

	session := &domain.Session{ID: id, Messages: messages}
	if s.ttl > 0 {
		if remaining, err := s.client.TTL(ctx, key).Result(); err == nil && remaining > 0 {
			session.UpdatedAt = time.Now().Add(remaining - s.ttl)
		}
	}
	return session, nil
}

func (s *SessionStore) Append(ctx context.Context, id string, messages ...domain.Message) error {
	if len(messages) == 0 {
		return nil
	}

	values := make([]any, len(messages))
	for i, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
		values[i] = data
	}

	key := s.key(id)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: redis append: %v", domain.ErrExternalService, err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %v", domain.ErrExternalService, err)
	}
	return nil
}
