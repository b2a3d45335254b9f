// Package chat composes the resolution stages into the end-to-end
// pipeline and owns conversation sessions. Each turn is resolved by
// exactly one stage; the safety gate runs first and fully short-circuits
// on crisis.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/solace/ai/core/llm"
	"github.com/hrygo/solace/ai/corpus"
	"github.com/hrygo/solace/ai/match"
	"github.com/hrygo/solace/ai/memory"
	"github.com/hrygo/solace/ai/metrics"
	"github.com/hrygo/solace/ai/retrieval"
	"github.com/hrygo/solace/ai/safety"
	"github.com/hrygo/solace/ai/topic"
	"github.com/hrygo/solace/ai/validate"
)

// Stage identifies which stage resolved a turn.
type Stage string

const (
	StageCrisis     Stage = "crisis"
	StageCache      Stage = "cache"
	StageMatcher    Stage = "matcher"
	StageAdvice     Stage = "advice"
	StageRetrieval  Stage = "retrieval"
	StageGenerative Stage = "generative"
	StageRedirect   Stage = "redirect"
)

// Result is the outcome of one resolved turn.
type Result struct {
	Text     string `json:"response"`
	Stage    Stage  `json:"stage"`
	IsCrisis bool   `json:"is_crisis"`
}

// Turn is one entry of a session's conversation log.
type Turn struct {
	Role string `json:"role"` // user or assistant
	Text string `json:"text"`
}

// apologyFallback is returned when generation fails outright.
const apologyFallback = "I'm sorry, I'm having trouble putting a response together right now. I'm still here with you though. Could you tell me a bit more about what's going on?"

const generationSystemPrompt = `You are a warm, supportive companion for everyday stress and wellbeing conversations.
Keep replies short (2-4 sentences), empathetic, and practical.
Never give medical, legal, or financial advice. Never discourage someone from seeking professional help.`

// Normalize produces the matching form of an utterance: trimmed,
// lower-cased, inner whitespace collapsed.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Pipeline wires the stages together. Construct once at startup and
// share across sessions; all stage dependencies are read-only or guard
// their own state.
type Pipeline struct {
	corpus    *corpus.Corpus
	gate      *safety.Gate
	topics    *topic.Classifier
	matcher   *match.Matcher
	retriever *retrieval.Retriever
	cache     *memory.Cache
	validator *validate.Validator
	generator llm.Service                 // nil disables the generative stage
	exporter  *metrics.PrometheusExporter // nil disables metrics
	rng       match.Rand
	insights  *Insights
}

// Deps carries the pipeline's constructor dependencies.
type Deps struct {
	Corpus    *corpus.Corpus
	Gate      *safety.Gate
	Topics    *topic.Classifier
	Matcher   *match.Matcher
	Retriever *retrieval.Retriever
	Cache     *memory.Cache
	Validator *validate.Validator
	Generator llm.Service
	Exporter  *metrics.PrometheusExporter
	Rand      match.Rand
}

// NewPipeline assembles the pipeline.
func NewPipeline(d Deps) *Pipeline {
	rng := d.Rand
	if rng == nil {
		rng = match.GlobalRand()
	}
	return &Pipeline{
		corpus:    d.Corpus,
		gate:      d.Gate,
		topics:    d.Topics,
		matcher:   d.Matcher,
		retriever: d.Retriever,
		cache:     d.Cache,
		validator: d.Validator,
		generator: d.Generator,
		exporter:  d.Exporter,
		rng:       rng,
		insights:  NewInsights(),
	}
}

// Insights returns the pipeline's aggregated counters.
func (p *Pipeline) Insights() *Insights { return p.insights }

// Resolve runs one utterance through the stages and always returns a
// non-empty reply. history is the session's prior turns, oldest first;
// only the most recent turns feed the generation prompt.
func (p *Pipeline) Resolve(ctx context.Context, utterance string, history []Turn) Result {
	start := time.Now()
	result := p.resolve(ctx, utterance, history)

	p.insights.record(result)
	if p.exporter != nil {
		p.exporter.RecordResolution(string(result.Stage), time.Since(start))
	}
	slog.Info("chat: turn resolved",
		"stage", result.Stage,
		"is_crisis", result.IsCrisis,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}

func (p *Pipeline) resolve(ctx context.Context, utterance string, history []Turn) Result {
	normalized := Normalize(utterance)
	if normalized == "" {
		return Result{Text: p.defaultResponse(), Stage: StageRedirect}
	}

	// Safety first. A crisis verdict bypasses everything else and is
	// never cached.
	verdict := p.gate.Check(ctx, normalized)
	if verdict.Unsafe {
		if p.exporter != nil {
			if verdict.Reason == safety.ReasonToxicity {
				p.exporter.RecordToxicityBlock()
				p.exporter.RecordCrisisDetection("toxicity")
			} else {
				p.exporter.RecordCrisisDetection("pattern")
			}
		}
		return Result{Text: p.crisisResponse(), Stage: StageCrisis, IsCrisis: true}
	}

	if cached, ok := p.cache.Get(normalized); ok {
		p.recordCache(true)
		return Result{Text: cached, Stage: StageCache}
	}
	p.recordCache(false)

	if m, ok := p.matcher.Match(normalized); ok {
		stage := StageMatcher
		if m.Advice {
			stage = StageAdvice
		}
		p.insights.recordTopic(m.Topic)
		p.cache.Put(ctx, normalized, m.Text)
		return Result{Text: m.Text, Stage: stage}
	}

	// The in-domain gate protects only retrieval and generation.
	if !p.topics.InDomain(ctx, normalized) {
		return Result{Text: p.validator.Redirect(normalized), Stage: StageRedirect}
	}

	if hit, ok := p.retriever.Search(ctx, normalized); ok {
		p.insights.recordTopic(hit.Topic)
		p.cache.Put(ctx, normalized, hit.Answer)
		return Result{Text: hit.Answer, Stage: StageRetrieval}
	}

	return p.generate(ctx, normalized, history)
}

// generate runs the generative fallback and validates its output. The
// validator applies only here; corpus-drawn replies are pre-validated.
func (p *Pipeline) generate(ctx context.Context, normalized string, history []Turn) Result {
	if p.generator == nil {
		return Result{Text: p.defaultResponse(), Stage: StageGenerative}
	}

	text, stats, err := p.generator.Chat(ctx, p.buildPrompt(normalized, history))
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			slog.Warn("chat: generation failed, using fallback", "error", err)
		}
		if p.exporter != nil {
			p.exporter.RecordLLMError("chat", "generation")
		}
		return Result{Text: apologyFallback, Stage: StageGenerative}
	}
	if p.exporter != nil && stats != nil {
		p.exporter.RecordLLMTokens("chat", "prompt", stats.PromptTokens)
		p.exporter.RecordLLMTokens("chat", "completion", stats.CompletionTokens)
	}

	outcome := p.validator.Validate(ctx, normalized, text)
	if outcome.Redirected {
		if p.exporter != nil {
			p.exporter.RecordValidatorRejection(outcome.Reason)
		}
		return Result{Text: outcome.Text, Stage: StageRedirect}
	}

	final := p.validator.Enhance(outcome.Text)
	p.cache.Put(ctx, normalized, final)
	return Result{Text: final, Stage: StageGenerative}
}

// buildPrompt supplies one prior exchange of context, not the full
// history.
func (p *Pipeline) buildPrompt(normalized string, history []Turn) []llm.Message {
	messages := []llm.Message{llm.SystemPrompt(generationSystemPrompt)}

	var prevUser, prevAssistant string
	for i := len(history) - 1; i >= 0; i-- {
		switch history[i].Role {
		case "assistant":
			if prevAssistant == "" && prevUser == "" {
				prevAssistant = history[i].Text
			}
		case "user":
			if prevUser == "" {
				prevUser = history[i].Text
			}
		}
		if prevUser != "" {
			break
		}
	}
	if prevUser != "" {
		messages = append(messages, llm.UserMessage(prevUser))
		if prevAssistant != "" {
			messages = append(messages, llm.AssistantMessage(prevAssistant))
		}
	}

	return append(messages, llm.UserMessage(normalized))
}

func (p *Pipeline) crisisResponse() string {
	return p.corpus.Crisis[p.rng.Intn(len(p.corpus.Crisis))]
}

func (p *Pipeline) defaultResponse() string {
	if len(p.corpus.Defaults) == 0 {
		return apologyFallback
	}
	return p.corpus.Defaults[p.rng.Intn(len(p.corpus.Defaults))]
}

func (p *Pipeline) recordCache(hit bool) {
	if p.exporter == nil {
		return
	}
	if hit {
		p.exporter.RecordCacheHit("memory")
	} else {
		p.exporter.RecordCacheMiss("memory")
	}
}
