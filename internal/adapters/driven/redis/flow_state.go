package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.FlowStateStore     = (*FlowStateStore)(nil)
	_ driven.RequestSecretCache = (*RequestSecretCache)(nil)
)

const (
	flowStatePrefix     = "flow:state:"
	requestSecretPrefix = "flow:reqsecret:"
)

// FlowStateStore implements driven.FlowStateStore using Redis.
// Expiry rides on the Redis key TTL; GETDEL gives single-use semantics.
type FlowStateStore struct {
	client *redis.Client
}

// NewFlowStateStore creates a new Redis-backed flow state store.
func NewFlowStateStore(client *redis.Client) *FlowStateStore {
	return &FlowStateStore{client: client}
}

// Save stores flow state for a session, replacing any previous state.
func (s *FlowStateStore) Save(ctx context.Context, state *driven.FlowState) error {
	ttl := time.Until(state.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal flow state: %w", err)
	}
	if err := s.client.Set(ctx, flowStatePrefix+state.SessionID, data, ttl).Err(); err != nil {
		return fmt.Errorf("save flow state: %w", err)
	}
	return nil
}

// GetAndDelete atomically retrieves and deletes the session's state.
// Returns nil, nil if the state doesn't exist or has expired.
func (s *FlowStateStore) GetAndDelete(ctx context.Context, sessionID string) (*driven.FlowState, error) {
	data, err := s.client.GetDel(ctx, flowStatePrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get and delete flow state: %w", err)
	}

	var state driven.FlowState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal flow state: %w", err)
	}
	return &state, nil
}

// Cleanup is a no-op: Redis expires keys on its own.
func (s *FlowStateStore) Cleanup(ctx context.Context) error {
	return nil
}

// RequestSecretCache implements driven.RequestSecretCache using Redis.
// Every entry carries the unconditional cache TTL.
type RequestSecretCache struct {
	client *redis.Client
}

// NewRequestSecretCache creates a new Redis-backed request secret cache.
func NewRequestSecretCache(client *redis.Client) *RequestSecretCache {
	return &RequestSecretCache{client: client}
}

// Put stores the secret hash keyed by request token, bounded by the cache TTL.
func (c *RequestSecretCache) Put(ctx context.Context, token, secretHash string) error {
	err := c.client.Set(ctx, requestSecretPrefix+token, secretHash, driven.RequestSecretCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("put request secret: %w", err)
	}
	return nil
}

// Get retrieves the hash for a token without consuming it.
// Returns "", nil if the token is unknown or expired.
func (c *RequestSecretCache) Get(ctx context.Context, token string) (string, error) {
	hash, err := c.client.Get(ctx, requestSecretPrefix+token).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get request secret: %w", err)
	}
	return hash, nil
}

// Delete removes the entry for a token. Unknown tokens are a no-op.
func (c *RequestSecretCache) Delete(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, requestSecretPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete request secret: %w", err)
	}
	return nil
}

// Cleanup is a no-op: Redis expires keys on its own.
func (c *RequestSecretCache) Cleanup(ctx context.Context) error {
	return nil
}
