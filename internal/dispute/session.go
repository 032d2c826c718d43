// Package dispute implements the multi-turn dispute resolution state
// machine: session lifecycle, evidence accumulation, turn budget
// enforcement, decision extraction, and refund trigger guards.
package dispute

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/arbiter/internal/domain"
	"github.com/soyeahso/arbiter/internal/logging"
)

// DefaultIdleTimeout is how long a session may sit without activity before
// it is eligible for expiry.
const DefaultIdleTimeout = 30 * time.Minute

// SessionStore holds active dispute sessions in a lock-guarded arena keyed
// by session id. Operations on different sessions proceed in parallel;
// operations on the same session are serialized by a per-session lock.
type SessionStore struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	idle    time.Duration
	log     *logging.Logger
	now     func() time.Time
}

type sessionEntry struct {
	mu      sync.Mutex
	sess    *domain.DisputeSession
	evicted bool
}

// NewSessionStore creates a session store with the given idle timeout.
func NewSessionStore(idle time.Duration, log *logging.Logger) *SessionStore {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &SessionStore{
		entries: make(map[string]*sessionEntry),
		idle:    idle,
		log:     log.Sub("sessions"),
		now:     time.Now,
	}
}

// NewSession allocates a fresh, unregistered session at step 1. Sessions
// are registered via Put only once a turn ends in an evidence request, so a
// dispute resolved on its first turn never occupies the arena.
func (s *SessionStore) NewSession(transactionID string) *domain.DisputeSession {
	now := s.now()
	return &domain.DisputeSession{
		ID:             uuid.New().String(),
		TransactionID:  transactionID,
		Step:           1,
		Status:         domain.StatusAwaitingEvidence,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// Put registers a session in the arena.
func (s *SessionStore) Put(sess *domain.DisputeSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sess.ID] = &sessionEntry{sess: sess}
	s.log.Debug().Str("sessionId", sess.ID).Str("transaction", sess.TransactionID).Msg("session registered")
}

// Acquire looks up a session and takes its per-session lock. The returned
// release function must be called once the turn is finished. Unknown and
// expired ids both yield domain.ErrSessionNotFound.
func (s *SessionStore) Acquire(id string) (*domain.DisputeSession, func(), error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}

	e.mu.Lock()
	if e.evicted {
		e.mu.Unlock()
		return nil, nil, domain.ErrSessionNotFound
	}

	now := s.now()
	if now.Sub(e.sess.LastActivityAt) > s.idle {
		s.evict(e)
		e.mu.Unlock()
		s.log.Info().Str("sessionId", id).Msg("session expired")
		return nil, nil, domain.ErrSessionNotFound
	}

	e.sess.LastActivityAt = now
	return e.sess, e.mu.Unlock, nil
}

// Expire evicts sessions idle past the timeout and returns how many were
// removed. Each candidate's per-session lock is taken before eviction so an
// in-flight turn is never raced.
func (s *SessionStore) Expire(now time.Time) int {
	s.mu.Lock()
	candidates := make([]*sessionEntry, 0, len(s.entries))
	for _, e := range s.entries {
		candidates = append(candidates, e)
	}
	s.mu.Unlock()

	evicted := 0
	for _, e := range candidates {
		e.mu.Lock()
		if !e.evicted && now.Sub(e.sess.LastActivityAt) > s.idle {
			s.evict(e)
			evicted++
		}
		e.mu.Unlock()
	}

	if evicted > 0 {
		s.log.Info().Int("count", evicted).Msg("expired idle sessions")
	}
	return evicted
}

// StartReaper runs Expire on a ticker until the context is cancelled.
func (s *SessionStore) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Expire(now)
			}
		}
	}()
}

// ActiveIDs returns the ids of all registered sessions.
func (s *SessionStore) ActiveIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of registered sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evict marks the entry dead and removes it from the arena. The caller
// holds the entry lock.
func (s *SessionStore) evict(e *sessionEntry) {
	e.evicted = true
	s.mu.Lock()
	delete(s.entries, e.sess.ID)
	s.mu.Unlock()
}
