// Package retrieval implements the semantic retriever: a linear
// best-scoring scan over the reference question/answer corpus with a
// configurable scorer and threshold.
package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hrygo/solace/ai/corpus"
)

// normalizeQuestion lower-cases reference questions so scoring sees the
// same form as the normalized utterance.
func normalizeQuestion(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// Hit is the best-scoring reference item at or above the threshold.
type Hit struct {
	Question string
	Answer   string
	Topic    string
	Score    float64
}

// Retriever searches the reference corpus.
type Retriever struct {
	items     []corpus.ReferenceItem
	scorer    Scorer
	fallback  Scorer
	threshold float64
}

// NewRetriever creates a Retriever. scorer may be nil, in which case the
// sequence scorer is used. threshold defaults to 0.6 when out of range.
func NewRetriever(items []corpus.ReferenceItem, scorer Scorer, threshold float64) *Retriever {
	if scorer == nil {
		scorer = SequenceScorer{}
	}
	if threshold <= 0 || threshold > 1 {
		threshold = 0.6
	}
	return &Retriever{
		items:     items,
		scorer:    scorer,
		fallback:  SequenceScorer{},
		threshold: threshold,
	}
}

// Threshold returns the configured minimum score.
func (r *Retriever) Threshold() float64 { return r.threshold }

// Candidates returns the normalized question strings the scorer will be
// asked about, for prewarming embedding caches.
func (r *Retriever) Candidates() []string {
	out := make([]string, len(r.items))
	for i := range r.items {
		out[i] = normalizeQuestion(r.items[i].Question)
	}
	return out
}

// Search returns the highest-scoring item's answer if its score reaches
// the threshold. Ties go to the first-seen item. A scorer failure mid
// scan degrades to the sequence scorer for the whole scan rather than
// failing the turn.
func (r *Retriever) Search(ctx context.Context, normalized string) (*Hit, bool) {
	hit, ok, err := r.scan(ctx, normalized, r.scorer)
	if err != nil {
		slog.Warn("retrieval: scorer failed, degrading to sequence ratio",
			"scorer", r.scorer.Name(), "error", err)
		hit, ok, err = r.scan(ctx, normalized, r.fallback)
		if err != nil {
			return nil, false
		}
	}
	if !ok {
		return nil, false
	}
	slog.Debug("retrieval: hit", "question", hit.Question, "score", hit.Score)
	return hit, true
}

func (r *Retriever) scan(ctx context.Context, normalized string, scorer Scorer) (*Hit, bool, error) {
	var best *Hit
	for i := range r.items {
		item := &r.items[i]
		score, err := scorer.Score(ctx, normalized, normalizeQuestion(item.Question))
		if err != nil {
			return nil, false, err
		}
		if best == nil || score > best.Score {
			best = &Hit{
				Question: item.Question,
				Answer:   item.Answer,
				Topic:    item.Topic,
				Score:    score,
			}
		}
	}
	if best == nil || best.Score < r.threshold {
		return nil, false, nil
	}
	return best, true, nil
}
