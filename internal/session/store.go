// Package session keeps parse sessions for the HTTP API: one streaming parser
// per generation, looked up by id and evicted after a period of inactivity.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/slidestream/internal/stats"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrLimit    = errors.New("session limit reached")
)

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	limit    int

	log    *slog.Logger
	timing *stats.Set
	newID  func() string
	now    func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStats records submit and finalize latencies into set.
func WithStats(set *stats.Set) Option {
	return func(s *Store) { s.timing = set }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(ttl time.Duration, limit int, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		limit:    limit,
		log:      slog.New(slog.DiscardHandler),
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create opens a new session. It fails with ErrLimit when the store is full
// even after evicting expired sessions.
func (s *Store) Create() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limit > 0 && len(s.sessions) >= s.limit {
		s.cleanupLocked()
		if len(s.sessions) >= s.limit {
			return nil, fmt.Errorf("create session: %w (%d)", ErrLimit, s.limit)
		}
	}

	sess := newSession(s.newID(), s.log, s.timing, s.now)
	s.sessions[sess.ID] = sess
	s.log.Debug("session created", "session_id", sess.ID, "sessions", len(s.sessions))
	return sess, nil
}

// Get returns a live session by id.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return nil, fmt.Errorf("get session %s: %w", id, ErrNotFound)
	}
	return sess, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("delete session %s: %w", id, ErrNotFound)
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of sessions held, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes expired sessions and returns how many it removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked()
}

func (s *Store) cleanupLocked() int {
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Info("evicted expired sessions", "removed", removed, "remaining", len(s.sessions))
	}
	return removed
}

func (s *Store) expired(sess *Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.lastUpdate()) > s.ttl
}

// Start launches the periodic cleanup goroutine.
func (s *Store) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Stop halts the cleanup goroutine and waits for it to exit.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
