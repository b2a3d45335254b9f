// Package topic decides whether an utterance is in-domain for the
// support corpus. Keyword and emotion-pattern rules run first; a
// zero-shot classifier is consulted only when the rules see nothing,
// and its failure conservatively reads as out-of-domain.
package topic

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hrygo/solace/ai/core/classify"
	"github.com/hrygo/solace/ai/corpus"
)

// Zero-shot label set. InDomainLabel must stay first-person enough for
// the classifier to separate support requests from trivia.
const InDomainLabel = "mental health and wellbeing support"

var outOfDomainLabels = []string{
	"general knowledge question",
	"technology",
	"sports and entertainment",
	"shopping or travel",
}

// baseKeywords is the domain vocabulary that is always in force, on top
// of whatever the loaded corpus contributes.
var baseKeywords = []string{
	"stress", "stressed", "anxiety", "anxious", "depress", "overwhelm",
	"sad", "lonely", "tired", "exhausted", "burnout", "burned out",
	"sleep", "insomnia", "worry", "worried", "panic", "mood",
	"therapy", "therapist", "counsel", "mental health", "emotion",
	"cope", "coping", "mindful", "meditat", "breathing",
	"motivation", "focus", "deadline", "procrastinat",
	"self care", "self-care", "wellbeing", "well-being",
	"frustrated", "angry", "hopeless", "helpless", "struggling",
}

// emotionPatterns catch first-person emotional statements that carry no
// domain keyword.
var emotionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bi\s+feel\b`),
	regexp.MustCompile(`\bi'?m\s+feeling\b`),
	regexp.MustCompile(`\bi'?ve\s+been\b`),
	regexp.MustCompile(`\bi\s+am\s+so\b`),
	regexp.MustCompile(`\bi'?m\s+so\b`),
	regexp.MustCompile(`\bi\s+can'?t\s+(stop|handle|cope|sleep|focus)\b`),
	regexp.MustCompile(`\bmakes?\s+me\s+feel\b`),
	regexp.MustCompile(`\bi\s+don'?t\s+know\s+what\s+to\s+do\b`),
}

// Classifier gates the retrieval and generative stages.
type Classifier struct {
	keywords  []string
	zero      classify.Classifier
	threshold float64
}

// NewClassifier builds the in-domain test from the corpus vocabulary.
// zero may be nil. threshold is the minimum zero-shot confidence
// (default 0.5 when out of range).
func NewClassifier(c *corpus.Corpus, zero classify.Classifier, threshold float64) *Classifier {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5
	}

	seen := make(map[string]struct{})
	keywords := make([]string, 0, len(baseKeywords))
	add := func(word string) {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			return
		}
		if _, ok := seen[word]; ok {
			return
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	for _, w := range baseKeywords {
		add(w)
	}
	if c != nil {
		for _, t := range c.Topics {
			add(t.Key)
			for _, k := range t.Keywords {
				add(k)
			}
		}
		for _, a := range c.Advice {
			for _, p := range a.Phrases {
				add(p)
			}
		}
	}

	return &Classifier{keywords: keywords, zero: zero, threshold: threshold}
}

// InDomain reports whether the normalized utterance belongs to the
// support domain.
func (c *Classifier) InDomain(ctx context.Context, normalized string) bool {
	if normalized == "" {
		return false
	}

	for _, kw := range c.keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	for _, p := range emotionPatterns {
		if p.MatchString(normalized) {
			return true
		}
	}

	if c.zero == nil || !c.zero.Available() {
		return false
	}

	labels := append([]string{InDomainLabel}, outOfDomainLabels...)
	result, err := c.zero.Classify(ctx, normalized, labels)
	if err != nil {
		slog.Warn("topic: zero-shot classifier failed, treating as out-of-domain", "error", err)
		return false
	}
	if result.Label == InDomainLabel && result.Confidence >= c.threshold {
		slog.Debug("topic: zero-shot in-domain", "confidence", result.Confidence)
		return true
	}
	return false
}
