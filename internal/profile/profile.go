package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol).
	// All providers (openai, deepseek, siliconflow, ollama, ...) use the same config.
	LLMProvider string // Provider identifier: openai, deepseek, siliconflow, ollama
	LLMAPIKey   string
	LLMBaseURL  string // Optional, has default per provider
	LLMModel    string
	LLMTimeout  int // LLM request timeout in seconds (default: 10)

	// Embedding configuration. When unset the retriever falls back to the
	// character-sequence similarity scorer.
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingAPIKey   string
	EmbeddingBaseURL  string

	// Classifier configuration (zero-shot topic + toxicity). Optional; the
	// safety gate and topic classifier degrade to pure rule mode without it.
	ClassifierProvider string
	ClassifierModel    string
	ClassifierAPIKey   string
	ClassifierBaseURL  string

	// Pipeline thresholds. Exposed as configuration because the observed
	// values vary between deployments.
	SimilarityThreshold  float64 // Semantic retriever acceptance (default: 0.6)
	ToxicityThreshold    float64 // Safety gate classifier confidence (default: 0.85)
	TopicThreshold       float64 // Zero-shot in-domain confidence (default: 0.5)
	ConnectorProbability float64 // Empathetic connector prefix chance (default: 0.4)
	CacheTTLHours        int     // Memory cache entry TTL; 0 = never expire

	// Telegram channel (optional).
	TelegramBotToken string

	Mode        string
	Addr        string
	Data        string
	Driver      string
	DSN         string
	Version     string
	InstanceURL string
	Port        int
}

// Provider default configurations for the LLM.
// Used when SOLACE_AI_LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-7B-Instruct",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsGenerationEnabled returns true if the generative fallback can run.
func (p *Profile) IsGenerationEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// IsClassifierEnabled returns true if the external classifier is configured.
func (p *Profile) IsClassifierEnabled() bool {
	return p.ClassifierAPIKey != ""
}

// IsEmbeddingEnabled returns true if the embedding scorer is configured.
func (p *Profile) IsEmbeddingEnabled() bool {
	return p.EmbeddingAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float64 or default value.
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("SOLACE_AI_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("SOLACE_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("SOLACE_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("SOLACE_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("SOLACE_AI_LLM_TIMEOUT_SECONDS", 10)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("unknown LLM provider, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	p.EmbeddingProvider = getEnvOrDefault("SOLACE_AI_EMBEDDING_PROVIDER", "openai")
	p.EmbeddingModel = getEnvOrDefault("SOLACE_AI_EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingAPIKey = getEnvOrDefault("SOLACE_AI_EMBEDDING_API_KEY", "")
	p.EmbeddingBaseURL = getEnvOrDefault("SOLACE_AI_EMBEDDING_BASE_URL", "https://api.openai.com/v1")

	p.ClassifierProvider = getEnvOrDefault("SOLACE_AI_CLASSIFIER_PROVIDER", "siliconflow")
	p.ClassifierModel = getEnvOrDefault("SOLACE_AI_CLASSIFIER_MODEL", "Qwen/Qwen2.5-7B-Instruct")
	p.ClassifierAPIKey = getEnvOrDefault("SOLACE_AI_CLASSIFIER_API_KEY", "")
	p.ClassifierBaseURL = getEnvOrDefault("SOLACE_AI_CLASSIFIER_BASE_URL", "https://api.siliconflow.cn/v1")

	p.SimilarityThreshold = getEnvOrDefaultFloat("SOLACE_SIMILARITY_THRESHOLD", 0.6)
	p.ToxicityThreshold = getEnvOrDefaultFloat("SOLACE_TOXICITY_THRESHOLD", 0.85)
	p.TopicThreshold = getEnvOrDefaultFloat("SOLACE_TOPIC_THRESHOLD", 0.5)
	p.ConnectorProbability = getEnvOrDefaultFloat("SOLACE_CONNECTOR_PROBABILITY", 0.4)
	p.CacheTTLHours = getEnvOrDefaultInt("SOLACE_CACHE_TTL_HOURS", 0)

	p.TelegramBotToken = getEnvOrDefault("SOLACE_TELEGRAM_BOT_TOKEN", "")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies.
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "solace")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/solace"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("solace_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.SimilarityThreshold <= 0 || p.SimilarityThreshold > 1 {
		p.SimilarityThreshold = 0.6
	}
	if p.ToxicityThreshold <= 0 || p.ToxicityThreshold > 1 {
		p.ToxicityThreshold = 0.85
	}
	if p.TopicThreshold <= 0 || p.TopicThreshold > 1 {
		p.TopicThreshold = 0.5
	}

	return nil
}
