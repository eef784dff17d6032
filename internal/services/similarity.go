package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"astramatch/resume-matcher/internal/models"
)

// embedChunkSize keeps each chunk comfortably inside the embedding model's
// input window while leaving texture for mean pooling.
const embedChunkSize = 6000

// EmbeddingBackend produces a vector for a piece of text. The Gemini
// service satisfies this; tests supply stubs.
type EmbeddingBackend interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// SimilarityScore is the scorer output: a fit percentage in [0,100] and
// the tag of the algorithm that produced it, so callers can surface
// whether semantic or exact matching was used. An empty tag means the
// degenerate case where no algorithm ran (both inputs empty).
type SimilarityScore struct {
	Percent   float64 `json:"percent"`
	Algorithm string  `json:"algorithm"`
}

// SimilarityScorer computes the fit percentage between candidate text and
// job-description text. The embedding path is primary; any backend
// failure silently engages the exact-token-match fallback, which is a
// degraded mode rather than an error.
type SimilarityScorer interface {
	Score(ctx context.Context, candidateText, jobText string) SimilarityScore
}

type similarityScorer struct {
	backend      EmbeddingBackend
	chunker      TextChunker
	embedTimeout time.Duration
	log          *zap.Logger
}

// NewSimilarityScorer builds the scorer. A nil backend is valid and pins
// the scorer to the fallback path (no embedding credential configured).
func NewSimilarityScorer(backend EmbeddingBackend, embedTimeout time.Duration, log *zap.Logger) SimilarityScorer {
	if log == nil {
		log = zap.NewNop()
	}
	if embedTimeout <= 0 {
		embedTimeout = 20 * time.Second
	}
	return &similarityScorer{
		backend:      backend,
		chunker:      NewTextChunker(),
		embedTimeout: embedTimeout,
		log:          log.With(zap.String("service", "similarity_scorer")),
	}
}

// Score implements SimilarityScorer.
func (s *similarityScorer) Score(ctx context.Context, candidateText, jobText string) SimilarityScore {
	candidateText = strings.TrimSpace(candidateText)
	jobText = strings.TrimSpace(jobText)

	// Degenerate input: nothing to compare, no algorithm ran.
	if candidateText == "" || jobText == "" {
		return SimilarityScore{Percent: 0, Algorithm: ""}
	}

	if s.backend != nil {
		score, err := s.scoreEmbedding(ctx, candidateText, jobText)
		if err == nil {
			return SimilarityScore{Percent: score, Algorithm: models.AlgorithmEmbedding}
		}
		s.log.Warn("embedding backend unavailable, using exact-match fallback",
			zap.Error(err),
			zap.String("stage", StageSimilarity),
		)
	}

	return SimilarityScore{
		Percent:   s.scoreFallback(candidateText, jobText),
		Algorithm: models.AlgorithmFallback,
	}
}

// scoreEmbedding embeds both texts and maps the cosine similarity to a
// percentage. Negative similarity is clamped to 0: anti-correlated text is
// simply "no fit", not an error state.
func (s *similarityScorer) scoreEmbedding(ctx context.Context, candidateText, jobText string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	candidateVec, err := s.embedPooled(ctx, candidateText)
	if err != nil {
		return 0, fmt.Errorf("candidate embedding: %w", err)
	}

	jobVec, err := s.embedPooled(ctx, jobText)
	if err != nil {
		return 0, fmt.Errorf("job embedding: %w", err)
	}

	sim, err := cosineSimilarity(candidateVec, jobVec)
	if err != nil {
		return 0, err
	}

	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return sim * 100, nil
}

// embedPooled embeds text that may exceed the backend's input window by
// chunking it and mean-pooling the chunk vectors.
func (s *similarityScorer) embedPooled(ctx context.Context, text string) ([]float32, error) {
	chunks := s.chunker.ChunkText(text, embedChunkSize)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no text to embed")
	}

	if len(chunks) == 1 {
		return s.backend.GenerateEmbedding(ctx, chunks[0])
	}

	var pooled []float64
	for _, chunk := range chunks {
		vec, err := s.backend.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return nil, err
		}
		if pooled == nil {
			pooled = make([]float64, len(vec))
		}
		if len(vec) != len(pooled) {
			return nil, fmt.Errorf("inconsistent embedding dimensions: %d vs %d", len(vec), len(pooled))
		}
		for i, v := range vec {
			pooled[i] += float64(v)
		}
	}

	mean := make([]float32, len(pooled))
	for i, v := range pooled {
		mean[i] = float32(v / float64(len(chunks)))
	}
	return mean, nil
}

// scoreFallback computes the exact-token overlap ratio against the
// job-description token set, scaled to a percentage. An empty job token
// set yields 0 rather than a division by zero.
func (s *similarityScorer) scoreFallback(candidateText, jobText string) float64 {
	jobTokens := TokenizeSkills(jobText)
	if len(jobTokens) == 0 {
		return 0
	}

	candidateSet := skillSet(TokenizeSkills(candidateText))

	matches := 0
	for _, token := range jobTokens {
		if candidateSet[token] {
			matches++
		}
	}

	return float64(matches) / float64(len(jobTokens)) * 100
}

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("invalid embedding dimensions: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
