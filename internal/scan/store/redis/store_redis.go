// Package redis stores scan session snapshots in Redis so any instance behind
// a load balancer can continue a capture. Keys expire with the session.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cardscan/internal/scan/models"
	id "cardscan/pkg/domain"
	"cardscan/pkg/platform/sentinel"
	"cardscan/pkg/requestcontext"
)

const sessionKeyPrefix = "scan:session:"

// SessionStore is a Redis-backed session store.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(sessionID id.ScanSessionID) string {
	return sessionKeyPrefix + sessionID.String()
}

// Save writes the snapshot with a TTL equal to the remaining session lifetime.
// A snapshot without an expiry is stored without TTL.
func (s *SessionStore) Save(ctx context.Context, snap *models.Snapshot) error {
	var ttl time.Duration
	if !snap.ExpiresAt.IsZero() {
		ttl = snap.ExpiresAt.Sub(requestcontext.Now(ctx))
		if ttl <= 0 {
			return sentinel.ErrExpired
		}
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(snap.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, sessionID id.ScanSessionID) (*models.Snapshot, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID id.ScanSessionID) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session snapshot: %w", err)
	}
	return nil
}
