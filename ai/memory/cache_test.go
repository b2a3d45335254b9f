package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	loaded    []Entry
	loadErr   error
	appended  []Entry
	appendErr error
}

func (f *fakeStore) LoadMemories(ctx context.Context) ([]Entry, error) {
	return f.loaded, f.loadErr
}

func (f *fakeStore) AppendMemory(ctx context.Context, e Entry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func TestCacheGetPut(t *testing.T) {
	ctx := context.Background()
	c := NewCache(ctx, nil, 0)

	_, ok := c.Get("how do i manage stress")
	assert.False(t, ok)

	c.Put(ctx, "how do i manage stress", "take a short break")
	got, ok := c.Get("how do i manage stress")
	require.True(t, ok)
	assert.Equal(t, "take a short break", got)

	// Exact-match only, no partial matching.
	_, ok = c.Get("how do i manage stress today")
	assert.False(t, ok)
}

func TestCachePutIdempotent(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c := NewCache(ctx, store, 0)

	c.Put(ctx, "input", "response")
	c.Put(ctx, "input", "response")

	assert.Len(t, store.appended, 1)
	assert.Equal(t, 1, c.Len())
}

func TestCacheDifferentResponseAppends(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c := NewCache(ctx, store, 0)

	c.Put(ctx, "input", "first")
	c.Put(ctx, "input", "second")

	// Appends rather than overwrites, and Get keeps returning the first.
	assert.Len(t, store.appended, 2)
	got, ok := c.Get("input")
	require.True(t, ok)
	assert.Equal(t, "first", got)
}

func TestCacheLoadsFromStore(t *testing.T) {
	store := &fakeStore{loaded: []Entry{
		{Input: "a", Response: "ra", CreatedAt: time.Now()},
		{Input: "a", Response: "rb", CreatedAt: time.Now()},
		{Input: "b", Response: "rc", CreatedAt: time.Now()},
	}}
	c := NewCache(context.Background(), store, 0)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "ra", got)
	assert.Equal(t, 2, c.Len())
}

func TestCacheLoadFailureStartsCold(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("disk gone")}
	c := NewCache(context.Background(), store, 0)
	assert.Equal(t, 0, c.Len())

	// Still usable.
	c.Put(context.Background(), "x", "y")
	got, ok := c.Get("x")
	require.True(t, ok)
	assert.Equal(t, "y", got)
}

func TestCachePersistFailureKeepsEntry(t *testing.T) {
	store := &fakeStore{appendErr: errors.New("write failed")}
	c := NewCache(context.Background(), store, 0)

	c.Put(context.Background(), "x", "y")
	got, ok := c.Get("x")
	require.True(t, ok)
	assert.Equal(t, "y", got)
}

func TestCacheTTL(t *testing.T) {
	c := NewCache(context.Background(), nil, time.Hour)

	clock := time.Now()
	c.now = func() time.Time { return clock }

	c.Put(context.Background(), "x", "y")
	_, ok := c.Get("x")
	assert.True(t, ok)

	clock = clock.Add(2 * time.Hour)
	_, ok = c.Get("x")
	assert.False(t, ok)
}
