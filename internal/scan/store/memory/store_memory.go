// Package memory keeps scan sessions and results in process memory. It is the
// default when no Redis or Postgres URL is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"cardscan/internal/scan/models"
	id "cardscan/pkg/domain"
	"cardscan/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[id.ScanSessionID]models.Snapshot
	results  map[id.ScanSessionID]models.ScanResult
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[id.ScanSessionID]models.Snapshot),
		results:  make(map[id.ScanSessionID]models.ScanResult),
	}
}

func (s *InMemoryStore) Save(_ context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[snap.ID] = copySnapshot(snap)
	return nil
}

func (s *InMemoryStore) Load(_ context.Context, sessionID id.ScanSessionID) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := copySnapshot(&snap)
	return &out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID id.ScanSessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *InMemoryStore) SaveResult(_ context.Context, result *models.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *result
	r.Fields = result.Fields.Clone()
	r.MRZLines = append([]string{}, result.MRZLines...)
	s.results[result.SessionID] = r
	return nil
}

func (s *InMemoryStore) FindResult(_ context.Context, sessionID id.ScanSessionID) (*models.ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	r.Fields = r.Fields.Clone()
	r.MRZLines = append([]string{}, r.MRZLines...)
	return &r, nil
}

// DeleteExpiredSessions removes every session whose handle has expired as of
// now and reports how many were removed.
func (s *InMemoryStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for sessionID, snap := range s.sessions {
		if snap.IsExpired(now) {
			delete(s.sessions, sessionID)
			deleted++
		}
	}
	return deleted, nil
}

// StartCleanup sweeps expired sessions every interval until ctx is cancelled.
func (s *InMemoryStore) StartCleanup(ctx context.Context, interval time.Duration, onSweep func(deleted int)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deleted, err := s.DeleteExpiredSessions(ctx, time.Now())
			if err != nil {
				return err
			}
			if onSweep != nil {
				onSweep(deleted)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Len reports the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func copySnapshot(snap *models.Snapshot) models.Snapshot {
	out := *snap
	if snap.Front != nil {
		front := *snap.Front
		out.Front = &front
	}
	if snap.Back != nil {
		back := *snap.Back
		out.Back = &back
	}
	if snap.Fields != nil {
		out.Fields = snap.Fields.Clone()
	}
	return out
}
