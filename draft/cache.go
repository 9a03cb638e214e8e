package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Drafts survive a browser reload but not a week of absence.
const draftTTL = 7 * 24 * time.Hour

// RedisCache mirrors wizard sessions into Redis under a fixed key per user.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func draftKey(userID string) string {
	return "queuedraft:" + userID
}

func (c *RedisCache) Load(ctx context.Context, userID string) (*Session, error) {
	raw, err := c.client.Get(ctx, draftKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &sess, nil
}

func (c *RedisCache) Save(ctx context.Context, userID string, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := c.client.Set(ctx, draftKey(userID), raw, draftTTL).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (c *RedisCache) Clear(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, draftKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}

// MemoryCache is the fallback mirror when Redis is not configured. Drafts
// then survive a websocket reconnect but not a process restart.
type MemoryCache struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{sessions: make(map[string]Session)}
}

func (c *MemoryCache) Load(_ context.Context, userID string) (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if sess, ok := c.sessions[userID]; ok {
		return &sess, nil
	}
	return nil, nil
}

func (c *MemoryCache) Save(_ context.Context, userID string, sess Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[userID] = sess
	return nil
}

func (c *MemoryCache) Clear(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, userID)
	return nil
}
