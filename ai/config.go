// Package ai holds the shared configuration for the response pipeline services.
package ai

import (
	"errors"
	"time"

	"github.com/hrygo/solace/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	LLM        LLMConfig
	Embedding  EmbeddingConfig
	Classifier ClassifierConfig
	Thresholds ThresholdConfig
	Enabled    bool
}

// LLMConfig represents generation provider configuration.
type LLMConfig struct {
	Provider    string // openai, deepseek, siliconflow, ollama
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 512
	Temperature float32 // default: 0.7
	Timeout     time.Duration
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// ClassifierConfig represents the external zero-shot / toxicity classifier.
// Uses a lightweight model for fast, cost-effective classification.
type ClassifierConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Enabled  bool
}

// ThresholdConfig carries the pipeline decision thresholds. The observed
// values differ between deployments, so they are configuration rather than
// constants.
type ThresholdConfig struct {
	Similarity           float64 // retriever acceptance, default 0.6
	Toxicity             float64 // safety classifier confidence, default 0.85
	Topic                float64 // zero-shot in-domain confidence, default 0.5
	ConnectorProbability float64 // empathetic prefix chance, default 0.4
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsGenerationEnabled() || p.IsClassifierEnabled() || p.IsEmbeddingEnabled(),
	}

	cfg.LLM = LLMConfig{
		Provider:    p.LLMProvider,
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   512,
		Temperature: 0.7,
		Timeout:     time.Duration(p.LLMTimeout) * time.Second,
	}

	cfg.Embedding = EmbeddingConfig{
		Provider:   p.EmbeddingProvider,
		Model:      p.EmbeddingModel,
		APIKey:     p.EmbeddingAPIKey,
		BaseURL:    p.EmbeddingBaseURL,
		Dimensions: 1024,
	}

	cfg.Classifier = ClassifierConfig{
		Enabled:  p.IsClassifierEnabled(),
		Provider: p.ClassifierProvider,
		Model:    p.ClassifierModel,
		APIKey:   p.ClassifierAPIKey,
		BaseURL:  p.ClassifierBaseURL,
		Timeout:  5 * time.Second,
	}

	cfg.Thresholds = ThresholdConfig{
		Similarity:           p.SimilarityThreshold,
		Toxicity:             p.ToxicityThreshold,
		Topic:                p.TopicThreshold,
		ConnectorProbability: p.ConnectorProbability,
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Provider != "" && c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	if c.Thresholds.Similarity <= 0 || c.Thresholds.Similarity > 1 {
		return errors.New("similarity threshold must be in (0, 1]")
	}

	return nil
}
