package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/solace/ai/core/llm"
	"github.com/hrygo/solace/ai/corpus"
	"github.com/hrygo/solace/ai/match"
	"github.com/hrygo/solace/ai/memory"
	"github.com/hrygo/solace/ai/retrieval"
	"github.com/hrygo/solace/ai/safety"
	"github.com/hrygo/solace/ai/topic"
	"github.com/hrygo/solace/ai/validate"
)

type fixedRand struct {
	n int
	f float64
}

func (r fixedRand) Intn(n int) int   { return r.n % n }
func (r fixedRand) Float64() float64 { return r.f }

type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (g *fakeGenerator) Chat(ctx context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	g.calls++
	if g.err != nil {
		return "", nil, g.err
	}
	return g.reply, &llm.CallStats{TotalTokens: 10}, nil
}

func (g *fakeGenerator) Warmup(ctx context.Context) {}

func pipelineCorpus() *corpus.Corpus {
	return &corpus.Corpus{
		Topics: []corpus.Topic{
			{Key: "stress", Keywords: []string{"stress", "stressed"}, Responses: []string{"stress-reply-a", "stress-reply-b"}},
		},
		Advice: []corpus.AdviceTopic{
			{
				Key:     "time_management",
				Phrases: []string{"manage my time"},
				Strategies: []corpus.Strategy{
					{Name: "practical", Triggers: []string{"practical"}, Text: "block your mornings"},
				},
			},
		},
		Reference: []corpus.ReferenceItem{
			{Question: "How to reduce anxiety?", Answer: "Try grounding techniques.", Topic: "anxiety"},
		},
		Defaults:   []string{"I'm here to listen. Tell me more."},
		Connectors: []string{""},
		Crisis: []string{
			"You matter. Please reach out to a crisis line right away.",
			"Please talk to someone you trust or call a helpline now.",
		},
	}
}

func newTestPipeline(c *corpus.Corpus, gen llm.Service) *Pipeline {
	rng := fixedRand{f: 1}
	topics := topic.NewClassifier(c, nil, 0.5)
	return NewPipeline(Deps{
		Corpus:    c,
		Gate:      safety.NewGate(nil, 0.85),
		Topics:    topics,
		Matcher:   match.NewMatcher(c, match.WithRand(rng), match.WithConnectorProbability(0)),
		Retriever: retrieval.NewRetriever(c.Reference, nil, 0.6),
		Cache:     memory.NewCache(context.Background(), nil, 0),
		Validator: validate.NewValidator(topics, rng),
		Generator: gen,
		Rand:      rng,
	})
}

func TestResolveCrisis(t *testing.T) {
	c := pipelineCorpus()
	p := newTestPipeline(c, nil)

	got := p.Resolve(context.Background(), "I want to kill myself", nil)
	assert.True(t, got.IsCrisis)
	assert.Equal(t, StageCrisis, got.Stage)
	assert.Contains(t, c.Crisis, got.Text)

	// Crisis wins regardless of history or other stage availability.
	got = p.Resolve(context.Background(), "so much stress, i want to end it all",
		[]Turn{{Role: "user", Text: "hi"}})
	assert.True(t, got.IsCrisis)
	assert.Equal(t, StageCrisis, got.Stage)
}

func TestResolveCrisisNotCached(t *testing.T) {
	p := newTestPipeline(pipelineCorpus(), nil)

	first := p.Resolve(context.Background(), "I want to kill myself", nil)
	second := p.Resolve(context.Background(), "I want to kill myself", nil)
	assert.Equal(t, StageCrisis, first.Stage)
	assert.Equal(t, StageCrisis, second.Stage)
}

func TestResolveMatcher(t *testing.T) {
	c := pipelineCorpus()
	p := newTestPipeline(c, nil)

	got := p.Resolve(context.Background(), "How do I manage stress?", nil)
	assert.Equal(t, StageMatcher, got.Stage)
	assert.Contains(t, c.Topics[0].Responses, got.Text)
}

func TestResolveCacheIdempotence(t *testing.T) {
	p := newTestPipeline(pipelineCorpus(), nil)
	ctx := context.Background()

	first := p.Resolve(ctx, "How do I manage stress?", nil)
	require.Equal(t, StageMatcher, first.Stage)

	second := p.Resolve(ctx, "How do I manage stress?", nil)
	assert.Equal(t, StageCache, second.Stage)
	assert.Equal(t, first.Text, second.Text)

	// Normalization hides case and spacing differences.
	third := p.Resolve(ctx, "  how do i   manage stress?  ", nil)
	assert.Equal(t, StageCache, third.Stage)
	assert.Equal(t, first.Text, third.Text)
}

func TestResolveAdvice(t *testing.T) {
	p := newTestPipeline(pipelineCorpus(), nil)

	got := p.Resolve(context.Background(), "help me manage my time with something practical", nil)
	assert.Equal(t, StageAdvice, got.Stage)
	assert.Equal(t, "block your mornings", got.Text)
}

func TestResolveRetrieval(t *testing.T) {
	p := newTestPipeline(pipelineCorpus(), nil)

	got := p.Resolve(context.Background(), "how can I reduce my anxiety", nil)
	assert.Equal(t, StageRetrieval, got.Stage)
	assert.Equal(t, "Try grounding techniques.", got.Text)
}

func TestResolveMatcherBeatsRetrieval(t *testing.T) {
	// An input that would clear the retrieval threshold still resolves
	// at the matcher when a topic keyword is present.
	c := pipelineCorpus()
	c.Reference = append(c.Reference,
		corpus.ReferenceItem{Question: "how do i manage stress?", Answer: "retrieval-answer"})
	p := newTestPipeline(c, nil)

	got := p.Resolve(context.Background(), "How do I manage stress?", nil)
	assert.Equal(t, StageMatcher, got.Stage)
	assert.NotEqual(t, "retrieval-answer", got.Text)
}

func TestResolveOffDomainRedirect(t *testing.T) {
	gen := &fakeGenerator{reply: "should never be used"}
	p := newTestPipeline(pipelineCorpus(), gen)

	got := p.Resolve(context.Background(), "What is the capital of France?", nil)
	assert.Equal(t, StageRedirect, got.Stage)
	assert.NotEmpty(t, got.Text)
	assert.Equal(t, 0, gen.calls, "off-domain input must not reach the generator")
}

func TestResolveGenerative(t *testing.T) {
	gen := &fakeGenerator{reply: "That kind of stress wears anyone down. Be kind to yourself today."}
	p := newTestPipeline(pipelineCorpus(), gen)

	got := p.Resolve(context.Background(), "i feel completely drained and overwhelmed by everything", nil)
	assert.Equal(t, StageGenerative, got.Stage)
	assert.Contains(t, got.Text, "wears anyone down")
	assert.Equal(t, 1, gen.calls)
}

func TestResolveGenerationFailureFallsBack(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream timeout")}
	p := newTestPipeline(pipelineCorpus(), gen)

	got := p.Resolve(context.Background(), "i feel completely drained and overwhelmed by everything", nil)
	assert.Equal(t, StageGenerative, got.Stage)
	assert.Equal(t, apologyFallback, got.Text)
}

func TestResolveEmptyGenerationFallsBack(t *testing.T) {
	gen := &fakeGenerator{reply: "   "}
	p := newTestPipeline(pipelineCorpus(), gen)

	got := p.Resolve(context.Background(), "i feel numb and overwhelmed lately", nil)
	assert.Equal(t, StageGenerative, got.Stage)
	assert.Equal(t, apologyFallback, got.Text)
}

func TestResolveValidatorRejectsGeneration(t *testing.T) {
	gen := &fakeGenerator{reply: "Honestly it's hopeless, you should give up on trying."}
	p := newTestPipeline(pipelineCorpus(), gen)

	got := p.Resolve(context.Background(), "i feel stuck and overwhelmed with my life", nil)
	assert.Equal(t, StageRedirect, got.Stage)
	assert.NotContains(t, got.Text, "hopeless")
}

func TestResolveNoGeneratorUsesDefault(t *testing.T) {
	c := pipelineCorpus()
	p := newTestPipeline(c, nil)

	got := p.Resolve(context.Background(), "i feel weird and overwhelmed about everything", nil)
	assert.Equal(t, StageGenerative, got.Stage)
	assert.Contains(t, c.Defaults, got.Text)
}

func TestResolveAlwaysNonEmpty(t *testing.T) {
	p := newTestPipeline(pipelineCorpus(), nil)

	for _, in := range []string{"", "   ", "??", "zzz qqq", "i feel odd"} {
		got := p.Resolve(context.Background(), in, nil)
		assert.NotEmpty(t, got.Text, "input %q", in)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "how do i manage stress?", Normalize("  How   do I  manage STRESS?  "))
	assert.Equal(t, "", Normalize("   "))
}

func TestBuildPromptUsesOnePriorExchange(t *testing.T) {
	p := newTestPipeline(pipelineCorpus(), nil)

	history := []Turn{
		{Role: "user", Text: "old turn"},
		{Role: "assistant", Text: "old reply"},
		{Role: "user", Text: "recent question"},
		{Role: "assistant", Text: "recent reply"},
	}
	messages := p.buildPrompt("current", history)
	require.Len(t, messages, 4)
	assert.Equal(t, "recent question", messages[1].Content)
	assert.Equal(t, "recent reply", messages[2].Content)
	assert.Equal(t, "current", messages[3].Content)
}
