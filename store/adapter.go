package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/solace/ai/chat"
	"github.com/hrygo/solace/ai/memory"
)

// MemoryAdapter bridges the Store to the pipeline's persistent memory
// contract.
type MemoryAdapter struct {
	store *Store
}

// NewMemoryAdapter wraps a Store for use as the memory cache backing.
func NewMemoryAdapter(s *Store) *MemoryAdapter {
	return &MemoryAdapter{store: s}
}

func (a *MemoryAdapter) LoadMemories(ctx context.Context) ([]memory.Entry, error) {
	rows, err := a.store.ListMemoryEntries(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]memory.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, memory.Entry{
			Input:     r.Input,
			Response:  r.Response,
			CreatedAt: time.Unix(r.CreatedTs, 0),
		})
	}
	return entries, nil
}

func (a *MemoryAdapter) AppendMemory(ctx context.Context, e memory.Entry) error {
	_, err := a.store.CreateMemoryEntry(ctx, &MemoryEntry{
		UID:       uuid.NewString(),
		Input:     e.Input,
		Response:  e.Response,
		CreatedTs: e.CreatedAt.Unix(),
	})
	return err
}

// TranscriptAdapter bridges the Store to the session manager's
// transcript contract.
type TranscriptAdapter struct {
	store *Store
}

// NewTranscriptAdapter wraps a Store for conversation persistence.
func NewTranscriptAdapter(s *Store) *TranscriptAdapter {
	return &TranscriptAdapter{store: s}
}

func (a *TranscriptAdapter) AppendTranscript(ctx context.Context, sessionID string, turn chat.Turn) error {
	_, err := a.store.CreateTranscript(ctx, &Transcript{
		SessionID: sessionID,
		Role:      turn.Role,
		Text:      turn.Text,
		CreatedTs: time.Now().Unix(),
	})
	return err
}
