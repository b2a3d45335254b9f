// Package classify provides zero-shot text classification and toxicity
// scoring on top of a chat-completion model, with structured JSON output
// parsed defensively.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/solace/ai/core/llm"
)

// Result is a single classification outcome.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier performs zero-shot classification and toxicity scoring.
type Classifier interface {
	// Classify assigns text to one of the candidate labels with a
	// confidence in [0, 1].
	Classify(ctx context.Context, text string, labels []string) (*Result, error)

	// Toxicity scores how toxic or harmful the text is, in [0, 1].
	Toxicity(ctx context.Context, text string) (float64, error)

	// Available reports whether the classifier backend is usable.
	Available() bool
}

// Config represents classifier configuration.
type Config struct {
	Timeout time.Duration // default: 5s
}

type classifier struct {
	llm     llm.Service
	timeout time.Duration
}

// NewClassifier creates a Classifier backed by the given chat model.
// Passing nil yields an unavailable classifier whose callers must
// degrade to rule-based behavior.
func NewClassifier(svc llm.Service, cfg *Config) Classifier {
	timeout := 5 * time.Second
	if cfg != nil && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	return &classifier{llm: svc, timeout: timeout}
}

const classifyPrompt = `You are a strict text classifier. Assign the user message to exactly one of the candidate labels.
Candidate labels: %s
Respond with ONLY a JSON object: {"label": "<one of the labels>", "confidence": <0.0-1.0>}`

const toxicityPrompt = `You are a content safety rater. Score how toxic, hostile, or harmful the user message is.
Respond with ONLY a JSON object: {"score": <0.0-1.0>}`

func (c *classifier) Classify(ctx context.Context, text string, labels []string) (*Result, error) {
	if c.llm == nil {
		return nil, fmt.Errorf("classifier unavailable")
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no candidate labels")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	system := fmt.Sprintf(classifyPrompt, strings.Join(labels, ", "))
	content, _, err := c.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(system),
		llm.UserMessage(text),
	})
	if err != nil {
		return nil, fmt.Errorf("classify call: %w", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(extractJSON(content)), &result); err != nil {
		return nil, fmt.Errorf("classify parse %q: %w", content, err)
	}
	result.Label = strings.TrimSpace(strings.ToLower(result.Label))
	if !containsLabel(labels, result.Label) {
		return nil, fmt.Errorf("classify returned unknown label %q", result.Label)
	}
	result.Confidence = clamp01(result.Confidence)

	slog.Debug("classify: result", "label", result.Label, "confidence", result.Confidence)
	return &result, nil
}

func (c *classifier) Toxicity(ctx context.Context, text string) (float64, error) {
	if c.llm == nil {
		return 0, fmt.Errorf("classifier unavailable")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	content, _, err := c.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(toxicityPrompt),
		llm.UserMessage(text),
	})
	if err != nil {
		return 0, fmt.Errorf("toxicity call: %w", err)
	}

	var parsed struct {
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &parsed); err != nil {
		return 0, fmt.Errorf("toxicity parse %q: %w", content, err)
	}
	return clamp01(parsed.Score), nil
}

func (c *classifier) Available() bool {
	return c.llm != nil
}

// extractJSON pulls the first JSON object out of a model response that
// may wrap it in prose or a code fence.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
