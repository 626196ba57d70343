package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/slidestream/internal/deck"
	"github.com/dgallion1/slidestream/internal/parser"
	"github.com/dgallion1/slidestream/internal/replay"
	"github.com/dgallion1/slidestream/internal/stats"
)

// Status represents the state of a parse session.
type Status string

const (
	StatusOpen      Status = "open"
	StatusFinalized Status = "finalized"
)

// Session owns one streaming parser. Every call into the parser goes through
// the session's mutex, since a parser must not be used concurrently.
type Session struct {
	mu sync.Mutex

	ID        string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time

	chunks int
	bytes  int

	parser *parser.Parser
	timing *stats.Set
	log    *slog.Logger
	now    func() time.Time
}

func newSession(id string, log *slog.Logger, timing *stats.Set, now func() time.Time) *Session {
	log = log.With("session_id", id)
	t := now()
	return &Session{
		ID:        id,
		Status:    StatusOpen,
		CreatedAt: t,
		UpdatedAt: t,
		parser:    parser.New(parser.WithLogger(log)),
		timing:    timing,
		log:       log,
		now:       now,
	}
}

// Submit feeds chunk to the parser in the given mode and returns the slides
// it completed.
func (s *Session) Submit(chunk string, mode replay.Mode) []deck.Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.record("submit")()

	s.chunks++
	s.bytes += len(chunk)
	s.UpdatedAt = s.now()
	if mode == replay.Delta {
		return s.parser.SubmitDelta(chunk)
	}
	return s.parser.Submit(chunk)
}

// Finalize closes the parser's trailing section and marks the session done.
func (s *Session) Finalize() []deck.Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.record("finalize")()

	s.Status = StatusFinalized
	s.UpdatedAt = s.now()
	out := s.parser.Finalize()
	s.log.Info("session finalized", "slides", len(s.parser.Slides()))
	return out
}

// Slides returns every slide emitted so far.
func (s *Session) Slides() []deck.Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parser.Slides()
}

// Reset starts the session over. Slide ids issued before the reset are
// reissued for the same slides afterwards.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parser.Reset()
	s.Status = StatusOpen
	s.chunks = 0
	s.bytes = 0
	s.UpdatedAt = s.now()
}

// ClearLive strips live marks from all emitted slides.
func (s *Session) ClearLive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parser.ClearLiveMarks()
	s.UpdatedAt = s.now()
}

func (s *Session) record(op string) func() {
	if s.timing == nil {
		return func() {}
	}
	return s.timing.Time(op)
}

func (s *Session) lastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ID           string    `json:"session_id"`
	Status       Status    `json:"status"`
	Slides       int       `json:"slides"`
	Chunks       int       `json:"chunks"`
	Bytes        int       `json:"bytes"`
	PendingBytes int       `json:"pending_bytes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:           s.ID,
		Status:       s.Status,
		Slides:       len(s.parser.Slides()),
		Chunks:       s.chunks,
		Bytes:        s.bytes,
		PendingBytes: s.parser.Pending(),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
