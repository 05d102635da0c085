package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentpanel/agentpanel/internal/conversation"
)

const keyPrefix = "agentpanel:session:"

// RedisStore keeps live conversations in redis so sessions survive process
// restarts and can be shared across instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string) (*conversation.Conversation, error) {
	b, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var c conversation.Conversation
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, c *conversation.Conversation) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+key, b, s.ttl).Err()
}

func (s *RedisStore) Reset(ctx context.Context, key, sourceID string) (*conversation.Conversation, error) {
	c := fresh(sourceID)
	if err := s.Set(ctx, key, c); err != nil {
		return nil, err
	}
	return c, nil
}
