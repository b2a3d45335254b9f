// Package store provides database access to all raw objects.
package store

import (
	"context"
	"database/sql"

	"github.com/hrygo/solace/internal/profile"
)

// MemoryEntry is one resolved (input, response) pair in the append-only
// memory log.
type MemoryEntry struct {
	ID        int32
	UID       string
	Input     string
	Response  string
	CreatedTs int64
}

// Transcript is one persisted conversation turn.
type Transcript struct {
	ID        int32
	SessionID string
	Role      string
	Text      string
	CreatedTs int64
}

// ReferenceEmbedding is a cached embedding vector for a reference
// corpus question. Only drivers with vector support implement it.
type ReferenceEmbedding struct {
	Question  string
	Embedding []float32
	CreatedTs int64
}

// Driver is an interface for store driver.
type Driver interface {
	GetDB() *sql.DB
	Close() error
	Migrate(ctx context.Context) error

	// MemoryEntry model related methods.
	CreateMemoryEntry(ctx context.Context, create *MemoryEntry) (*MemoryEntry, error)
	ListMemoryEntries(ctx context.Context) ([]*MemoryEntry, error)

	// Transcript model related methods.
	CreateTranscript(ctx context.Context, create *Transcript) (*Transcript, error)
	ListTranscripts(ctx context.Context, sessionID string) ([]*Transcript, error)
}

// VectorDriver is implemented by drivers that can persist embedding
// vectors.
type VectorDriver interface {
	UpsertReferenceEmbedding(ctx context.Context, upsert *ReferenceEmbedding) error
	ListReferenceEmbeddings(ctx context.Context) ([]*ReferenceEmbedding, error)
}

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateMemoryEntry(ctx context.Context, create *MemoryEntry) (*MemoryEntry, error) {
	return s.driver.CreateMemoryEntry(ctx, create)
}

func (s *Store) ListMemoryEntries(ctx context.Context) ([]*MemoryEntry, error) {
	return s.driver.ListMemoryEntries(ctx)
}

func (s *Store) CreateTranscript(ctx context.Context, create *Transcript) (*Transcript, error) {
	return s.driver.CreateTranscript(ctx, create)
}

func (s *Store) ListTranscripts(ctx context.Context, sessionID string) ([]*Transcript, error) {
	return s.driver.ListTranscripts(ctx, sessionID)
}

// UpsertReferenceEmbedding persists a reference question vector when the
// driver supports it; otherwise it is a no-op.
func (s *Store) UpsertReferenceEmbedding(ctx context.Context, upsert *ReferenceEmbedding) error {
	vd, ok := s.driver.(VectorDriver)
	if !ok {
		return nil
	}
	return vd.UpsertReferenceEmbedding(ctx, upsert)
}

// ListReferenceEmbeddings returns cached vectors, or nil when the driver
// has no vector support.
func (s *Store) ListReferenceEmbeddings(ctx context.Context) ([]*ReferenceEmbedding, error) {
	vd, ok := s.driver.(VectorDriver)
	if !ok {
		return nil, nil
	}
	return vd.ListReferenceEmbeddings(ctx)
}
