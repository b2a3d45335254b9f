package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/solace/ai"
	"github.com/hrygo/solace/ai/chat"
	"github.com/hrygo/solace/ai/core/classify"
	"github.com/hrygo/solace/ai/core/embedding"
	"github.com/hrygo/solace/ai/core/llm"
	"github.com/hrygo/solace/ai/corpus"
	"github.com/hrygo/solace/ai/match"
	"github.com/hrygo/solace/ai/memory"
	"github.com/hrygo/solace/ai/metrics"
	"github.com/hrygo/solace/ai/retrieval"
	"github.com/hrygo/solace/ai/safety"
	"github.com/hrygo/solace/ai/topic"
	"github.com/hrygo/solace/ai/validate"
	"github.com/hrygo/solace/internal/profile"
	"github.com/hrygo/solace/store"
	"github.com/hrygo/solace/store/db"
)

// runtime holds everything a front end (HTTP, Telegram, REPL) needs.
type runtime struct {
	profile  *profile.Profile
	store    *store.Store
	pipeline *chat.Pipeline
	sessions *chat.Manager
	exporter *metrics.PrometheusExporter
}

// newRuntime wires the corpus, providers, stages, and persistence into a
// ready pipeline.
func newRuntime(ctx context.Context, prof *profile.Profile) (*runtime, error) {
	aiCfg := ai.NewConfigFromProfile(prof)
	if err := aiCfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid ai config")
	}

	c, err := corpus.Load(prof.Data)
	if err != nil {
		return nil, errors.Wrap(err, "load corpus")
	}

	dbDriver, err := db.NewDBDriver(prof)
	if err != nil {
		return nil, errors.Wrap(err, "create db driver")
	}
	st := store.New(dbDriver, prof)
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, errors.Wrap(err, "migrate database")
	}

	var generator llm.Service
	if prof.IsGenerationEnabled() {
		generator, err = llm.NewService(&llm.Config{
			Provider:    aiCfg.LLM.Provider,
			Model:       aiCfg.LLM.Model,
			APIKey:      aiCfg.LLM.APIKey,
			BaseURL:     aiCfg.LLM.BaseURL,
			MaxTokens:   aiCfg.LLM.MaxTokens,
			Temperature: aiCfg.LLM.Temperature,
			Timeout:     aiCfg.LLM.Timeout,
		})
		if err != nil {
			st.Close()
			return nil, errors.Wrap(err, "create generation service")
		}
		go generator.Warmup(ctx)
	} else {
		slog.Info("runtime: generation disabled, corpus-only replies")
	}

	var classifierLLM llm.Service
	if aiCfg.Classifier.Enabled {
		classifierLLM, err = llm.NewService(&llm.Config{
			Provider:  aiCfg.Classifier.Provider,
			Model:     aiCfg.Classifier.Model,
			APIKey:    aiCfg.Classifier.APIKey,
			BaseURL:   aiCfg.Classifier.BaseURL,
			MaxTokens: 64,
			Timeout:   aiCfg.Classifier.Timeout,
		})
		if err != nil {
			slog.Warn("runtime: classifier unavailable, rule-based fallbacks only", "error", err)
			classifierLLM = nil
		}
	}
	classifier := classify.NewClassifier(classifierLLM, &classify.Config{Timeout: aiCfg.Classifier.Timeout})

	retriever := newRetriever(ctx, prof, aiCfg, c, st)

	topics := topic.NewClassifier(c, classifier, aiCfg.Thresholds.Topic)
	cache := memory.NewCache(ctx, store.NewMemoryAdapter(st), time.Duration(prof.CacheTTLHours)*time.Hour)
	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())

	pipeline := chat.NewPipeline(chat.Deps{
		Corpus:    c,
		Gate:      safety.NewGate(classifier, aiCfg.Thresholds.Toxicity),
		Topics:    topics,
		Matcher:   match.NewMatcher(c, match.WithConnectorProbability(aiCfg.Thresholds.ConnectorProbability)),
		Retriever: retriever,
		Cache:     cache,
		Validator: validate.NewValidator(topics, nil),
		Generator: generator,
		Exporter:  exporter,
	})

	return &runtime{
		profile:  prof,
		store:    st,
		pipeline: pipeline,
		sessions: chat.NewManager(store.NewTranscriptAdapter(st)),
		exporter: exporter,
	}, nil
}

// newRetriever picks the scorer: embedding cosine when an embedding
// provider is configured, sequence ratio otherwise. Persisted vectors
// seed the embedding cache and fresh ones are written back.
func newRetriever(ctx context.Context, prof *profile.Profile, aiCfg *ai.Config, c *corpus.Corpus, st *store.Store) *retrieval.Retriever {
	if !prof.IsEmbeddingEnabled() {
		return retrieval.NewRetriever(c.Reference, nil, aiCfg.Thresholds.Similarity)
	}

	provider, err := embedding.NewProvider(&embedding.Config{
		Provider:   aiCfg.Embedding.Provider,
		Model:      aiCfg.Embedding.Model,
		APIKey:     aiCfg.Embedding.APIKey,
		BaseURL:    aiCfg.Embedding.BaseURL,
		Dimensions: aiCfg.Embedding.Dimensions,
	})
	if err != nil {
		slog.Warn("runtime: embedding provider unavailable, using sequence scorer", "error", err)
		return retrieval.NewRetriever(c.Reference, nil, aiCfg.Thresholds.Similarity)
	}

	scorer := retrieval.NewEmbeddingScorer(provider)
	retriever := retrieval.NewRetriever(c.Reference, scorer, aiCfg.Thresholds.Similarity)

	if cached, err := st.ListReferenceEmbeddings(ctx); err == nil && len(cached) > 0 {
		seed := make(map[string][]float32, len(cached))
		for _, e := range cached {
			seed[e.Question] = e.Embedding
		}
		scorer.Seed(seed)
		slog.Info("runtime: seeded reference embeddings", "count", len(seed))
	}

	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if err := scorer.Prewarm(warmCtx, retriever.Candidates()); err != nil {
			slog.Warn("runtime: embedding prewarm failed", "error", err)
			return
		}
		now := time.Now().Unix()
		for question, vec := range scorer.Export() {
			if err := st.UpsertReferenceEmbedding(warmCtx, &store.ReferenceEmbedding{
				Question:  question,
				Embedding: vec,
				CreatedTs: now,
			}); err != nil {
				slog.Warn("runtime: embedding persist failed", "error", err)
				return
			}
		}
	}()

	return retriever
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		slog.Error("runtime: store close failed", "error", err)
	}
}
