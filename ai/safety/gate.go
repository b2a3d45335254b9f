// Package safety implements the crisis gate: pattern rules over
// self-harm language plus an optional toxicity classifier. The gate runs
// before every other stage and its verdict short-circuits the pipeline.
package safety

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/hrygo/solace/ai/core/classify"
)

// Detection reasons.
const (
	ReasonCrisisPattern = "crisis-pattern"
	ReasonToxicity      = "toxicity"
)

// Result is the gate's verdict for one utterance.
type Result struct {
	Unsafe bool
	Reason string
}

// crisisPatterns match explicit self-harm or suicidal language. Checked
// against the normalized (lower-cased) utterance.
var crisisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bkill(ing)?\s+myself\b`),
	regexp.MustCompile(`\bwant\s+to\s+die\b`),
	regexp.MustCompile(`\bend\s+it\s+all\b`),
	regexp.MustCompile(`\bend\s+my\s+life\b`),
	regexp.MustCompile(`\bsuicid(e|al)\b`),
	regexp.MustCompile(`\bself[\s-]?harm\b`),
	regexp.MustCompile(`\bhurt(ing)?\s+myself\b`),
	regexp.MustCompile(`\bno\s+reason\s+to\s+live\b`),
	regexp.MustCompile(`\bbetter\s+off\s+dead\b`),
}

// MatchesCrisisPattern reports whether the normalized text matches any
// crisis pattern, without consulting the classifier.
func MatchesCrisisPattern(normalized string) bool {
	for _, p := range crisisPatterns {
		if p.MatchString(normalized) {
			return true
		}
	}
	return false
}

// Gate classifies utterances as crisis / unsafe / safe.
type Gate struct {
	classifier classify.Classifier
	threshold  float64
}

// NewGate creates a Gate. classifier may be nil; the gate then runs in
// pattern-only mode. threshold is the toxicity confidence above which an
// utterance is blocked (default 0.85 when out of range).
func NewGate(classifier classify.Classifier, threshold float64) *Gate {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.85
	}
	return &Gate{classifier: classifier, threshold: threshold}
}

// Check classifies a normalized utterance. Classifier failures are
// treated as no signal, never as an error.
func (g *Gate) Check(ctx context.Context, normalized string) Result {
	if MatchesCrisisPattern(normalized) {
		slog.Info("safety: crisis pattern matched")
		return Result{Unsafe: true, Reason: ReasonCrisisPattern}
	}

	if g.classifier != nil && g.classifier.Available() {
		score, err := g.classifier.Toxicity(ctx, normalized)
		if err != nil {
			slog.Warn("safety: toxicity classifier unavailable, pattern-only mode", "error", err)
			return Result{}
		}
		if score >= g.threshold {
			slog.Info("safety: toxicity threshold exceeded", "score", score, "threshold", g.threshold)
			return Result{Unsafe: true, Reason: ReasonToxicity}
		}
	}

	return Result{}
}
