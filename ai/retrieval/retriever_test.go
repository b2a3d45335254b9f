package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/solace/ai/corpus"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "abcd", "abcd", 1},
		{"both empty", "", "", 1},
		{"one empty", "abc", "", 0},
		{"disjoint", "abc", "xyz", 0},
		{"half", "ab", "abcdab", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Ratio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRatioSymmetricRange(t *testing.T) {
	pairs := [][2]string{
		{"how can i reduce my anxiety", "how to reduce anxiety?"},
		{"manage stress", "how do i manage stress"},
		{"completely different", "nothing shared here at all zzz"},
	}
	for _, p := range pairs {
		r := Ratio(p[0], p[1])
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 1.0)
	}
}

func refItems() []corpus.ReferenceItem {
	return []corpus.ReferenceItem{
		{Question: "How to reduce anxiety?", Answer: "Try grounding techniques. Name five things you can see around you.", Topic: "anxiety"},
		{Question: "How do I sleep better?", Answer: "Keep a consistent bedtime.", Topic: "sleep"},
		{Question: "What helps with burnout?", Answer: "Schedule real breaks.", Topic: "burnout"},
	}
}

func TestSearchHit(t *testing.T) {
	r := NewRetriever(refItems(), nil, 0.6)

	hit, ok := r.Search(context.Background(), "how can i reduce my anxiety")
	require.True(t, ok)
	assert.Equal(t, "anxiety", hit.Topic)
	assert.Contains(t, hit.Answer, "Try grounding techniques")
	assert.GreaterOrEqual(t, hit.Score, 0.6)
}

func TestSearchMiss(t *testing.T) {
	r := NewRetriever(refItems(), nil, 0.6)

	_, ok := r.Search(context.Background(), "what is the capital of france")
	assert.False(t, ok)
}

func TestSearchThresholdMonotonicity(t *testing.T) {
	// Anything the strict retriever returns, the looser one does too.
	items := refItems()
	strict := NewRetriever(items, nil, 0.8)
	loose := NewRetriever(items, nil, 0.3)

	inputs := []string{
		"how to reduce anxiety?",
		"how can i reduce my anxiety",
		"how do i sleep better",
		"random words entirely",
	}
	for _, in := range inputs {
		if _, ok := strict.Search(context.Background(), in); ok {
			_, okLoose := loose.Search(context.Background(), in)
			assert.True(t, okLoose, "loose retriever missed %q", in)
		}
	}
}

func TestSearchFirstSeenTieBreak(t *testing.T) {
	items := []corpus.ReferenceItem{
		{Question: "same question", Answer: "first answer"},
		{Question: "same question", Answer: "second answer"},
	}
	r := NewRetriever(items, nil, 0.6)

	hit, ok := r.Search(context.Background(), "same question")
	require.True(t, ok)
	assert.Equal(t, "first answer", hit.Answer)
}

type failingScorer struct{}

func (failingScorer) Name() string { return "failing" }
func (failingScorer) Score(context.Context, string, string) (float64, error) {
	return 0, assert.AnError
}

func TestSearchScorerFailureDegrades(t *testing.T) {
	r := NewRetriever(refItems(), failingScorer{}, 0.6)

	hit, ok := r.Search(context.Background(), "how to reduce anxiety?")
	require.True(t, ok)
	assert.Contains(t, hit.Answer, "grounding")
}

func TestThresholdDefault(t *testing.T) {
	r := NewRetriever(nil, nil, -1)
	assert.InDelta(t, 0.6, r.Threshold(), 1e-9)
}
