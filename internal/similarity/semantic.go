package similarity

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Embedder generates an embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SemanticScorer is the higher-fidelity similarity backend. It scores texts
// by cosine similarity of their embeddings and falls back to the keyword
// scorer when the embedding service is unavailable, so callers always get a
// valid score in [0,1] and never an error.
type SemanticScorer struct {
	embedder Embedder
	fallback Scorer
	logger   *zap.Logger

	mu    sync.RWMutex
	cache map[string][]float32
}

// NewSemanticScorer creates a semantic scorer backed by embedder, with
// fallback used whenever embedding fails. A nil fallback gets the default
// keyword scorer.
func NewSemanticScorer(embedder Embedder, fallback Scorer, logger *zap.Logger) *SemanticScorer {
	if fallback == nil {
		fallback = NewKeywordScorer(Config{})
	}
	return &SemanticScorer{
		embedder: embedder,
		fallback: fallback,
		logger:   logger,
		cache:    make(map[string][]float32),
	}
}

// Similarity returns the cosine similarity of the two texts' embeddings.
// Identical inputs short-circuit to 1.0 without a network call.
func (s *SemanticScorer) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	embA, err := s.embeddingFor(a)
	if err != nil {
		s.logger.Debug("embedding unavailable, falling back to keyword overlap", zap.Error(err))
		return s.fallback.Similarity(a, b)
	}
	embB, err := s.embeddingFor(b)
	if err != nil {
		s.logger.Debug("embedding unavailable, falling back to keyword overlap", zap.Error(err))
		return s.fallback.Similarity(a, b)
	}

	return CosineSimilarity(embA, embB)
}

// embeddingFor returns a cached embedding or generates and caches one.
// Caching matters for the hallucination path, which compares every response
// sentence against the same source sentences repeatedly.
func (s *SemanticScorer) embeddingFor(text string) ([]float32, error) {
	s.mu.RLock()
	cached, ok := s.cache[text]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	embedding, err := s.embedder.Embed(context.Background(), text)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[text] = embedding
	s.mu.Unlock()
	return embedding, nil
}
