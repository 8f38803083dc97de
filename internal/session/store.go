// Package session holds short-lived server-side state for the two-phase
// spreadsheet upload: parsed rows are staged under an opaque token, previewed
// by the client, then committed (or abandoned and swept by TTL).
package session

import (
	"context"
	"sync"
	"time"

	"flowmrp/internal/dto"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Upload is one staged spreadsheet upload.
type Upload struct {
	Token     uuid.UUID
	Rows      []dto.IngestRow
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store is an in-process arena of staged uploads keyed by token. Entries
// expire after the configured TTL; StartSweep removes them periodically so
// abandoned uploads do not accumulate.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Upload
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{sessions: make(map[uuid.UUID]*Upload), ttl: ttl}
}

// Put stages rows under a fresh token and returns the session.
func (s *Store) Put(rows []dto.IngestRow) *Upload {
	now := time.Now()
	up := &Upload{
		Token:     uuid.New(),
		Rows:      rows,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.mu.Lock()
	s.sessions[up.Token] = up
	s.mu.Unlock()
	return up
}

// Get returns the staged upload for token, treating expired entries as absent.
func (s *Store) Get(token uuid.UUID) (*Upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	if time.Now().After(up.ExpiresAt) {
		delete(s.sessions, token)
		return nil, false
	}
	return up, true
}

// Delete removes a session, typically right after a successful commit.
func (s *Store) Delete(token uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// StartSweep launches the purge goroutine. It stops when ctx is cancelled.
func (s *Store) StartSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if purged := s.purgeExpired(); purged > 0 {
					log.Debug().Int("purged", purged).Msg("upload sessions swept")
				}
			}
		}
	}()
}

func (s *Store) purgeExpired() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for token, up := range s.sessions {
		if now.After(up.ExpiresAt) {
			delete(s.sessions, token)
			purged++
		}
	}
	return purged
}
