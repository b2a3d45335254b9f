package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/solace/ai/corpus"
)

// fixedRand always picks index 0 and never fires the connector branch.
type fixedRand struct {
	n int
	f float64
}

func (r fixedRand) Intn(n int) int   { return r.n % n }
func (r fixedRand) Float64() float64 { return r.f }

func matcherCorpus() *corpus.Corpus {
	return &corpus.Corpus{
		Topics: []corpus.Topic{
			{Key: "stress", Keywords: []string{"stress", "stressed"}, Responses: []string{"stress-a", "stress-b"}},
			{Key: "deadline", Keywords: []string{"deadline"}, Responses: []string{"deadline-a"}},
		},
		Advice: []corpus.AdviceTopic{
			{
				Key:     "stress_reduction",
				Phrases: []string{"reduce stress", "calm down"},
				Strategies: []corpus.Strategy{
					{Name: "physical", Triggers: []string{"physical", "exercise"}, Text: "try a short walk"},
					{Name: "mental", Triggers: []string{"mental", "mind"}, Text: "try a breathing exercise"},
				},
			},
		},
		Connectors: []string{"", "I hear you."},
	}
}

func TestMatchTopic(t *testing.T) {
	m := NewMatcher(matcherCorpus(), WithRand(fixedRand{f: 1}))

	got, ok := m.Match("how do i manage stress")
	require.True(t, ok)
	assert.Equal(t, "stress", got.Topic)
	assert.Equal(t, "stress-a", got.Text)
	assert.False(t, got.Advice)
}

func TestMatchFirstTopicWins(t *testing.T) {
	// "stressed about my deadline" hits both topics; enumeration order
	// breaks the tie.
	m := NewMatcher(matcherCorpus(), WithRand(fixedRand{f: 1}))

	got, ok := m.Match("stressed about my deadline")
	require.True(t, ok)
	assert.Equal(t, "stress", got.Topic)
}

func TestMatchAdviceSubIntent(t *testing.T) {
	m := NewMatcher(matcherCorpus(), WithRand(fixedRand{n: 1, f: 1}))

	// Trigger word selects the strategy deterministically.
	got, ok := m.Match("help me calm down with physical activity")
	require.True(t, ok)
	assert.True(t, got.Advice)
	assert.Equal(t, "try a short walk", got.Text)

	// No trigger word falls back to a random strategy.
	got, ok = m.Match("help me calm down please")
	require.True(t, ok)
	assert.Equal(t, "try a breathing exercise", got.Text)
}

func TestMatchAdviceTopicOverlapsCanned(t *testing.T) {
	// An advice phrase containing a topic keyword still resolves at the
	// canned topic first.
	m := NewMatcher(matcherCorpus(), WithRand(fixedRand{f: 1}))

	got, ok := m.Match("i want to reduce stress")
	require.True(t, ok)
	assert.False(t, got.Advice)
	assert.Equal(t, "stress", got.Topic)
}

func TestMatchNone(t *testing.T) {
	m := NewMatcher(matcherCorpus(), WithRand(fixedRand{}))

	_, ok := m.Match("what is the capital of france")
	assert.False(t, ok)
	_, ok = m.Match("")
	assert.False(t, ok)
}

func TestMatchConnectorPrefix(t *testing.T) {
	// Float64 below the probability and Intn picking the non-empty
	// connector yields a prefixed response.
	m := NewMatcher(matcherCorpus(), WithRand(fixedRand{n: 1, f: 0.1}))

	got, ok := m.Match("so much stress today")
	require.True(t, ok)
	assert.Equal(t, "I hear you. stress-b", got.Text)
}

func TestMatchConnectorDisabled(t *testing.T) {
	m := NewMatcher(matcherCorpus(), WithRand(fixedRand{f: 0}), WithConnectorProbability(0))

	got, ok := m.Match("so much stress today")
	require.True(t, ok)
	assert.Equal(t, "stress-a", got.Text)
}
