package retrieval

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/hrygo/solace/ai/core/embedding"
)

// EmbeddingScorer scores by cosine similarity of embedding vectors,
// clamped to [0, 1]. Candidate vectors are computed once on first use
// and cached for the process lifetime.
type EmbeddingScorer struct {
	provider embedding.Provider

	mu    sync.Mutex
	cache map[string][]float32
}

// NewEmbeddingScorer creates a scorer over the given provider.
func NewEmbeddingScorer(provider embedding.Provider) *EmbeddingScorer {
	return &EmbeddingScorer{
		provider: provider,
		cache:    make(map[string][]float32),
	}
}

func (s *EmbeddingScorer) Name() string { return "embedding" }

func (s *EmbeddingScorer) Score(ctx context.Context, query, candidate string) (float64, error) {
	qv, err := s.vector(ctx, query)
	if err != nil {
		return 0, errors.Wrap(err, "embed query")
	}
	cv, err := s.vector(ctx, candidate)
	if err != nil {
		return 0, errors.Wrap(err, "embed candidate")
	}
	cos := embedding.Cosine(qv, cv)
	if cos < 0 {
		cos = 0
	}
	return cos, nil
}

// Prewarm embeds all candidates in one batch so the first search does
// not pay N embedding round-trips.
func (s *EmbeddingScorer) Prewarm(ctx context.Context, candidates []string) error {
	vectors, err := s.provider.EmbedBatch(ctx, candidates)
	if err != nil {
		return errors.Wrap(err, "prewarm embeddings")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range candidates {
		s.cache[c] = vectors[i]
	}
	return nil
}

// Seed preloads cached vectors, e.g. from a persistent embedding store.
func (s *EmbeddingScorer) Seed(vectors map[string][]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range vectors {
		s.cache[k] = v
	}
}

// Export returns a copy of the cached vectors for persistence.
func (s *EmbeddingScorer) Export() map[string][]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]float32, len(s.cache))
	for k, v := range s.cache {
		out[k] = v
	}
	return out
}

func (s *EmbeddingScorer) vector(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	v, ok := s.cache[text]
	s.mu.Unlock()
	if ok {
		return v, nil
	}

	v, err := s.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache[text] = v
	s.mu.Unlock()
	return v, nil
}
