package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscripts struct {
	turns []Turn
	err   error
}

func (f *fakeTranscripts) AppendTranscript(ctx context.Context, sessionID string, turn Turn) error {
	if f.err != nil {
		return f.err
	}
	f.turns = append(f.turns, turn)
	return nil
}

func TestManagerGet(t *testing.T) {
	m := NewManager(nil)

	s := m.Get("abc")
	assert.Equal(t, "abc", s.ID)
	assert.Same(t, s, m.Get("abc"))

	anon := m.Get("")
	assert.NotEmpty(t, anon.ID)
	assert.NotEqual(t, "abc", anon.ID)
	assert.Equal(t, 2, m.Count())
}

func TestManagerResolveAppendsTurns(t *testing.T) {
	m := NewManager(nil)
	p := newTestPipeline(pipelineCorpus(), nil)

	s, result := m.Resolve(context.Background(), p, "s1", "How do I manage stress?")
	require.Equal(t, StageMatcher, result.Stage)

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, Turn{Role: "user", Text: "How do I manage stress?"}, history[0])
	assert.Equal(t, Turn{Role: "assistant", Text: result.Text}, history[1])
}

func TestManagerResolveSameSessionCacheHit(t *testing.T) {
	m := NewManager(nil)
	p := newTestPipeline(pipelineCorpus(), nil)
	ctx := context.Background()

	_, first := m.Resolve(ctx, p, "s1", "How do I manage stress?")
	_, second := m.Resolve(ctx, p, "s1", "How do I manage stress?")
	assert.Equal(t, StageCache, second.Stage)
	assert.Equal(t, first.Text, second.Text)
}

func TestManagerTranscripts(t *testing.T) {
	ts := &fakeTranscripts{}
	m := NewManager(ts)
	p := newTestPipeline(pipelineCorpus(), nil)

	m.Resolve(context.Background(), p, "s1", "How do I manage stress?")
	require.Len(t, ts.turns, 2)
	assert.Equal(t, "user", ts.turns[0].Role)
	assert.Equal(t, "assistant", ts.turns[1].Role)
}

func TestManagerTranscriptFailureDoesNotFailTurn(t *testing.T) {
	m := NewManager(&fakeTranscripts{err: errors.New("db down")})
	p := newTestPipeline(pipelineCorpus(), nil)

	_, result := m.Resolve(context.Background(), p, "s1", "How do I manage stress?")
	assert.NotEmpty(t, result.Text)
}

func TestManagerEndAndPrune(t *testing.T) {
	m := NewManager(nil)
	m.Get("a")
	m.Get("b")

	m.End("a")
	assert.Equal(t, 1, m.Count())

	removed := m.Prune(time.Nanosecond)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, m.Count())
}

func TestSessionTurnCap(t *testing.T) {
	m := NewManager(nil)
	p := newTestPipeline(pipelineCorpus(), nil)
	ctx := context.Background()

	for i := 0; i < maxSessionTurns; i++ {
		m.Resolve(ctx, p, "s1", "How do I manage stress?")
	}
	s := m.Get("s1")
	assert.Len(t, s.History(), maxSessionTurns)
}
