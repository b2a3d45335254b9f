package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// maxSessionTurns bounds a session's in-memory log. The prompt builder
// only looks at the most recent exchange, so trimming old turns is safe.
const maxSessionTurns = 50

// TranscriptStore persists conversation turns. Failures are logged and
// never fail a turn.
type TranscriptStore interface {
	AppendTranscript(ctx context.Context, sessionID string, turn Turn) error
}

// Session is one conversation. Turns within a session are processed in
// arrival order under the session lock.
type Session struct {
	ID string

	mu        sync.Mutex
	turns     []Turn
	updatedAt time.Time
}

// History returns a copy of the session's turn log.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Manager tracks sessions by ID.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	transcripts TranscriptStore // nil disables persistence
}

// NewManager creates a session Manager. transcripts may be nil.
func NewManager(transcripts TranscriptStore) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		transcripts: transcripts,
	}
}

// Get returns the session for id, creating it if needed. An empty id
// allocates a fresh session with a generated ID.
func (m *Manager) Get(id string) *Session {
	if id == "" {
		id = shortuuid.New()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = &Session{ID: id, updatedAt: time.Now()}
		m.sessions[id] = s
	}
	return s
}

// Count returns the number of tracked sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// End removes a session and its history.
func (m *Manager) End(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Prune drops sessions idle longer than maxIdle and returns how many
// were removed.
func (m *Manager) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	// Idleness is checked outside the manager lock to keep lock order
	// consistent with Resolve.
	m.mu.RLock()
	candidates := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.mu.RUnlock()

	var stale []string
	for _, s := range candidates {
		s.mu.Lock()
		if s.updatedAt.Before(cutoff) {
			stale = append(stale, s.ID)
		}
		s.mu.Unlock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for _, id := range stale {
		if _, ok := m.sessions[id]; ok {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Resolve runs one utterance through the pipeline under the session
// lock, then appends both turns to the session log.
func (m *Manager) Resolve(ctx context.Context, p *Pipeline, sessionID, utterance string) (*Session, Result) {
	s := m.Get(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]Turn, len(s.turns))
	copy(history, s.turns)

	result := p.Resolve(ctx, utterance, history)

	userTurn := Turn{Role: "user", Text: utterance}
	assistantTurn := Turn{Role: "assistant", Text: result.Text}
	s.turns = append(s.turns, userTurn, assistantTurn)
	if len(s.turns) > maxSessionTurns {
		s.turns = s.turns[len(s.turns)-maxSessionTurns:]
	}
	s.updatedAt = time.Now()

	if m.transcripts != nil {
		if err := m.transcripts.AppendTranscript(ctx, s.ID, userTurn); err != nil {
			slog.Error("chat: transcript persist failed", "session", s.ID, "error", err)
		} else if err := m.transcripts.AppendTranscript(ctx, s.ID, assistantTurn); err != nil {
			slog.Error("chat: transcript persist failed", "session", s.ID, "error", err)
		}
	}

	if p.exporter != nil {
		p.exporter.SetActiveSessions(m.Count())
	}
	return s, result
}
