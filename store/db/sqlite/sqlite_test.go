package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/solace/internal/profile"
	"github.com/hrygo/solace/store"
)

func testDriver(t *testing.T) store.Driver {
	t.Helper()
	d, err := NewDB(&profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "solace_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, d.Migrate(context.Background()))
	return d
}

func TestMemoryEntryRoundTrip(t *testing.T) {
	d := testDriver(t)
	ctx := context.Background()

	first, err := d.CreateMemoryEntry(ctx, &store.MemoryEntry{
		UID: "u1", Input: "how do i manage stress", Response: "take a break", CreatedTs: 100,
	})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	_, err = d.CreateMemoryEntry(ctx, &store.MemoryEntry{
		UID: "u2", Input: "how do i manage stress", Response: "another answer", CreatedTs: 200,
	})
	require.NoError(t, err)

	list, err := d.ListMemoryEntries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Append order is preserved.
	assert.Equal(t, "take a break", list[0].Response)
	assert.Equal(t, "another answer", list[1].Response)
}

func TestTranscriptRoundTrip(t *testing.T) {
	d := testDriver(t)
	ctx := context.Background()

	for _, turn := range []store.Transcript{
		{SessionID: "s1", Role: "user", Text: "hello", CreatedTs: 1},
		{SessionID: "s1", Role: "assistant", Text: "hi there", CreatedTs: 2},
		{SessionID: "s2", Role: "user", Text: "other session", CreatedTs: 3},
	} {
		turn := turn
		_, err := d.CreateTranscript(ctx, &turn)
		require.NoError(t, err)
	}

	list, err := d.ListTranscripts(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "user", list[0].Role)
	assert.Equal(t, "hi there", list[1].Text)

	empty, err := d.ListTranscripts(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMigrateIsIdempotent(t *testing.T) {
	d := testDriver(t)
	assert.NoError(t, d.Migrate(context.Background()))
}

func TestNewDBRequiresDSN(t *testing.T) {
	_, err := NewDB(&profile.Profile{})
	assert.Error(t, err)
}
