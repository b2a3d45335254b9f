// Package match implements the deterministic matcher: ordered substring
// lookup against the corpus topics and advice sets. No statistical model
// is involved; tie-breaking follows corpus enumeration order.
package match

import (
	"math/rand"
	"strings"

	"github.com/hrygo/solace/ai/corpus"
)

// Rand is the random source used for response variety. The default
// implementation delegates to math/rand's goroutine-safe global source;
// tests inject a fixed one.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) Intn(n int) int   { return rand.Intn(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// GlobalRand returns the process-wide random source.
func GlobalRand() Rand { return globalRand{} }

// Result is a successful match.
type Result struct {
	Text  string
	Topic string
	// Advice marks a hit in the advice set rather than the canned
	// response topics.
	Advice bool
}

// Matcher performs ordered substring matching against the corpus.
type Matcher struct {
	corpus        *corpus.Corpus
	rng           Rand
	connectorProb float64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithRand replaces the random source.
func WithRand(r Rand) Option {
	return func(m *Matcher) { m.rng = r }
}

// WithConnectorProbability sets the probability of prefixing a matched
// response with an empathetic connector. Out-of-range values disable
// connectors.
func WithConnectorProbability(p float64) Option {
	return func(m *Matcher) {
		if p < 0 || p > 1 {
			p = 0
		}
		m.connectorProb = p
	}
}

// NewMatcher creates a Matcher over the loaded corpus.
func NewMatcher(c *corpus.Corpus, opts ...Option) *Matcher {
	m := &Matcher{
		corpus:        c,
		rng:           globalRand{},
		connectorProb: 0.4,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match looks the normalized utterance up against topic keywords first,
// then advice phrases. The first topic whose trigger appears as a
// substring wins; within a topic the response is chosen at random.
func (m *Matcher) Match(normalized string) (Result, bool) {
	if normalized == "" {
		return Result{}, false
	}

	for _, t := range m.corpus.Topics {
		if !containsAny(normalized, t.TriggersFor()) {
			continue
		}
		text := t.Responses[m.rng.Intn(len(t.Responses))]
		return Result{Text: m.decorate(text), Topic: t.Key}, true
	}

	for _, a := range m.corpus.Advice {
		if !containsAny(normalized, a.Phrases) {
			continue
		}
		return Result{Text: m.pickStrategy(a, normalized), Topic: a.Key, Advice: true}, true
	}

	return Result{}, false
}

// pickStrategy selects a strategy by sub-intent trigger words
// ("physical", "mental", "practical", ...), falling back to a random
// strategy when no trigger word is present.
func (m *Matcher) pickStrategy(a corpus.AdviceTopic, normalized string) string {
	for _, s := range a.Strategies {
		if containsAny(normalized, s.Triggers) {
			return s.Text
		}
	}
	return a.Strategies[m.rng.Intn(len(a.Strategies))].Text
}

// decorate optionally prefixes text with an empathetic connector.
func (m *Matcher) decorate(text string) string {
	if m.connectorProb <= 0 || len(m.corpus.Connectors) == 0 {
		return text
	}
	if m.rng.Float64() >= m.connectorProb {
		return text
	}
	connector := m.corpus.Connectors[m.rng.Intn(len(m.corpus.Connectors))]
	if connector == "" {
		return text
	}
	return connector + " " + text
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}
