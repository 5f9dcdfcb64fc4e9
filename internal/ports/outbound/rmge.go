package outbound

import (
	"context"

	"github.com/alchemorsel/v3/internal/domain/rmge"
)

// EmbeddingService produces fixed-dimension vectors for text, per
// SPEC_FULL.md §6's embedding service contract.
type EmbeddingService interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// VectorIndexMatch is one hit returned by a similarity search, carrying the
// raw content and the parsed metadata view.
type VectorIndexMatch struct {
	Document rmge.Document
	Score    float64
}

// VectorIndexService adapts a remote vector index: upsert, similarity
// search, stats, and full clears.
type VectorIndexService interface {
	Upsert(ctx context.Context, docs []rmge.Document) error
	SimilaritySearch(ctx context.Context, queryVector []float32, k int) ([]VectorIndexMatch, error)
	Stats(ctx context.Context) (count int, err error)
	DeleteAll(ctx context.Context, namespace string) error
}

// GenerationParams are the knobs the caller controls on one LLM call.
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
}

// GenerationResult is one LLM completion plus reported token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// LLMGenerationService wraps a single chat-completion call.
type LLMGenerationService interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (*GenerationResult, error)
}

// UserProfileRepository is the thin persistence boundary the engine reads
// user profiles through; it never owns the database.
type UserProfileRepository interface {
	GetUser(ctx context.Context, userID string) (*rmge.UserProfile, error)
	UpdateUser(ctx context.Context, userID string, fields map[string]interface{}) error
}

// QuotaRepository is the persistence boundary for QuotaState.
type QuotaRepository interface {
	GetQuota(ctx context.Context, userID string) (*rmge.QuotaState, error)
	SaveQuota(ctx context.Context, state *rmge.QuotaState) error
	// IncrementMealCounter performs the compare-and-update increment
	// described in SPEC_FULL.md §13: callers acquire the per-user lock
	// before calling this, so the implementation may assume
	// single-writer semantics per userID.
	IncrementMealCounter(ctx context.Context, userID string, weekly bool) error
}
