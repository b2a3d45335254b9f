// Package validate implements the response validator: the final check a
// generated reply must pass before it reaches the user. Curated corpus
// responses skip it; only generative output goes through.
package validate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hrygo/solace/ai/match"
	"github.com/hrygo/solace/ai/safety"
	"github.com/hrygo/solace/ai/topic"
)

// Rejection reasons.
const (
	ReasonDisallowed = "disallowed-content"
	ReasonOffDomain  = "off-domain"
)

// Redirect texts. The crisis redirect mirrors the crisis-resource tone
// without claiming to be a hotline itself.
const (
	safetyMessage = "I'm not able to share that. If you're going through a hard time, talking to a mental health professional can really help."

	crisisRedirect = "It sounds like you're carrying a lot right now. Please consider reaching out to a crisis line or a mental health professional — you don't have to handle this alone."

	specialtyRedirect = "I specialize in stress management and mental wellbeing, so I can't help with that one. Is there anything on your mind I can support you with?"

	genericRedirect = "I'm here for conversations about stress, mood, and wellbeing. What's been on your mind lately?"
)

// disallowedPhrases must never appear in a reply. Checked against the
// lower-cased response.
var disallowedPhrases = []string{
	"you should give up",
	"give up on",
	"it's hopeless",
	"it is hopeless",
	"no point in living",
	"stop taking your medication",
	"you deserve to suffer",
	"nobody cares about you",
	"as an ai language model",
	"i cannot help you",
}

// followUps are appended to enhanced replies to keep the conversation
// open.
var followUps = []string{
	"How does that sound to you?",
	"Would you like to talk more about it?",
	"What do you think has been weighing on you the most?",
	"Have you been able to take any time for yourself lately?",
}

// Outcome is the validator's decision for one reply.
type Outcome struct {
	Text       string
	Redirected bool
	Reason     string
}

// Validator checks generated replies and substitutes redirects.
type Validator struct {
	topics       *topic.Classifier
	rng          match.Rand
	followUpProb float64
}

// NewValidator creates a Validator sharing the pipeline's in-domain
// test. rng may be nil.
func NewValidator(topics *topic.Classifier, rng match.Rand) *Validator {
	if rng == nil {
		rng = match.GlobalRand()
	}
	return &Validator{topics: topics, rng: rng, followUpProb: 0.3}
}

// Validate checks a reply against the disallowed-phrase list and the
// in-domain test over the combined utterance and reply. A failed check
// yields a redirect shaped by the utterance: crisis-like phrasing gets a
// supportive-resource redirect, questions get the specialty redirect,
// anything else the generic one.
func (v *Validator) Validate(ctx context.Context, normalized, response string) Outcome {
	lower := strings.ToLower(response)
	for _, phrase := range disallowedPhrases {
		if strings.Contains(lower, phrase) {
			slog.Warn("validate: disallowed phrase in reply", "phrase", phrase)
			return Outcome{Text: safetyMessage, Redirected: true, Reason: ReasonDisallowed}
		}
	}

	combined := normalized + " " + lower
	if !v.topics.InDomain(ctx, combined) {
		slog.Info("validate: reply failed in-domain check")
		return Outcome{Text: v.redirectFor(normalized), Redirected: true, Reason: ReasonOffDomain}
	}

	return Outcome{Text: response}
}

// Enhance polishes a validated reply: trims whitespace, guarantees
// terminal punctuation, and occasionally appends a follow-up question.
func (v *Validator) Enhance(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	if !strings.ContainsAny(text[len(text)-1:], ".!?") {
		text += "."
	}
	if v.followUpProb > 0 && v.rng.Float64() < v.followUpProb {
		text += " " + followUps[v.rng.Intn(len(followUps))]
	}
	return text
}

// Redirect returns the context-sensitive redirect for an utterance that
// never produced an in-domain reply.
func (v *Validator) Redirect(normalized string) string {
	return v.redirectFor(normalized)
}

func (v *Validator) redirectFor(normalized string) string {
	if safety.MatchesCrisisPattern(normalized) {
		return crisisRedirect
	}
	if isQuestion(normalized) {
		return specialtyRedirect
	}
	return genericRedirect
}

func isQuestion(s string) bool {
	if strings.HasSuffix(strings.TrimSpace(s), "?") {
		return true
	}
	for _, w := range []string{"what", "how", "why", "when", "where", "who", "which", "can you", "could you", "do you"} {
		if strings.HasPrefix(s, w+" ") || s == w {
			return true
		}
	}
	return false
}
