package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GTDGit/gtd_tariff/internal/models"
)

// SessionOverrideCache holds simulated tariffs per caller session.
// Each session's definitions are stored as one ordered JSON array under
// tariff:overrides:session:{sessionID}; the TTL slides on every read and write.
type SessionOverrideCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewSessionOverrideCache creates a new SessionOverrideCache.
func NewSessionOverrideCache(redis *RedisClient, ttl time.Duration) *SessionOverrideCache {
	return &SessionOverrideCache{redis: redis, ttl: ttl}
}

// ForSession returns the override store scoped to one session.
func (c *SessionOverrideCache) ForSession(sessionID string) *SessionOverrideStore {
	return &SessionOverrideStore{
		redis: c.redis,
		key:   fmt.Sprintf("tariff:overrides:session:%s", sessionID),
		ttl:   c.ttl,
	}
}

// SessionOverrideStore is the override backend for a single session.
// Sessions are single-writer, so read-modify-write needs no locking.
type SessionOverrideStore struct {
	redis *RedisClient
	key   string
	ttl   time.Duration
}

// List returns the session's definitions in insertion order and renews
// the session's TTL.
func (s *SessionOverrideStore) List(ctx context.Context) ([]models.TariffDefinition, error) {
	raw, err := s.redis.Get(ctx, s.key)
	if errors.Is(err, ErrCacheMiss) {
		return []models.TariffDefinition{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session overrides: %w", err)
	}
	if err := s.redis.Expire(ctx, s.key, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to refresh session overrides ttl: %w", err)
	}

	var defs []models.TariffDefinition
	if err := json.Unmarshal([]byte(raw), &defs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session overrides: %w", err)
	}
	if defs == nil {
		defs = []models.TariffDefinition{}
	}
	return defs, nil
}

// Get returns the definition with id, or nil when absent.
func (s *SessionOverrideStore) Get(ctx context.Context, id string) (*models.TariffDefinition, error) {
	defs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range defs {
		if defs[i].ID == id {
			return &defs[i], nil
		}
	}
	return nil, nil
}

// Put replaces the entry with the same id in place, or appends it.
func (s *SessionOverrideStore) Put(ctx context.Context, def models.TariffDefinition) error {
	defs, err := s.List(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range defs {
		if defs[i].ID == def.ID {
			defs[i] = def
			replaced = true
			break
		}
	}
	if !replaced {
		defs = append(defs, def)
	}
	return s.write(ctx, defs)
}

// Delete removes the entry with id and reports whether it existed.
func (s *SessionOverrideStore) Delete(ctx context.Context, id string) (bool, error) {
	defs, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for i := range defs {
		if defs[i].ID == id {
			defs = append(defs[:i], defs[i+1:]...)
			return true, s.write(ctx, defs)
		}
	}
	return false, nil
}

// Clear drops every definition in the session.
func (s *SessionOverrideStore) Clear(ctx context.Context) error {
	return s.redis.Delete(ctx, s.key)
}

func (s *SessionOverrideStore) write(ctx context.Context, defs []models.TariffDefinition) error {
	data, err := json.Marshal(defs)
	if err != nil {
		return fmt.Errorf("failed to marshal session overrides: %w", err)
	}
	if err := s.redis.Set(ctx, s.key, string(data), s.ttl); err != nil {
		return fmt.Errorf("failed to store session overrides: %w", err)
	}
	return nil
}
