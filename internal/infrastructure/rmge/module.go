// Package rmge wires the outbound adapters (embedding client, LLM clients,
// vector index, persistence repositories) behind the ports the application
// layer depends on.
package rmge

import (
	infracache "github.com/alchemorsel/v3/internal/infrastructure/cache"
	"github.com/alchemorsel/v3/internal/infrastructure/config"
	"github.com/alchemorsel/v3/internal/infrastructure/rmge/embedder"
	"github.com/alchemorsel/v3/internal/infrastructure/rmge/llm"
	"github.com/alchemorsel/v3/internal/infrastructure/rmge/persistence"
	"github.com/alchemorsel/v3/internal/infrastructure/rmge/vectorindex"
	rmgecache "github.com/alchemorsel/v3/internal/infrastructure/rmge/cache"
	"github.com/alchemorsel/v3/internal/ports/outbound"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the RMGE outbound adapters. Primary and fallback LLM
// clients are registered under distinct fx names since both satisfy the
// same outbound.LLMGenerationService interface.
var Module = fx.Provide(
	fx.Annotate(
		provideEmbeddingService,
		fx.As(new(outbound.EmbeddingService)),
	),
	provideEmbeddingL2Cache,
	fx.Annotate(
		providePrimaryLLM,
		fx.ResultTags(`name:"rmge_llm_primary"`),
		fx.As(new(outbound.LLMGenerationService)),
	),
	fx.Annotate(
		provideFallbackLLM,
		fx.ResultTags(`name:"rmge_llm_fallback"`),
	),
	fx.Annotate(
		provideVectorIndex,
		fx.As(new(outbound.VectorIndexService)),
	),
	fx.Annotate(
		persistence.NewUserProfileRepository,
		fx.As(new(outbound.UserProfileRepository)),
	),
	fx.Annotate(
		persistence.NewQuotaRepository,
		fx.As(new(outbound.QuotaRepository)),
	),
)

func provideEmbeddingService(cfg *config.Config, logger *zap.Logger) *embedder.Client {
	c := cfg.RMGE.Embedding
	return embedder.NewClient(c.APIKey, c.BaseURL, c.Model, c.Dimensions, logger)
}

// provideEmbeddingL2Cache shares the repository's existing Redis client
// (circuit breaker, health checks, metrics included) as the embedding
// cache's optional L2 tier, so repeated query embeddings across replicas
// skip the embedding provider entirely. A nil return (no Redis.Host
// configured) leaves the embedding cache local-only.
func provideEmbeddingL2Cache(cfg *config.Config, logger *zap.Logger) (rmgecache.L2, error) {
	if cfg.Redis.Host == "" {
		return nil, nil
	}
	client, err := infracache.NewRedisClient(&cfg.Redis, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func providePrimaryLLM(cfg *config.Config, logger *zap.Logger) *llm.Client {
	c := cfg.RMGE.LLM
	return llm.NewClient(c.PrimaryAPIKey, c.PrimaryBaseURL, c.PrimaryModel, logger)
}

// provideFallbackLLM returns a genuinely nil interface when no fallback is
// configured, so LLMClient.Generate's "c.fallback == nil" check still works
// (a *llm.Client(nil) wrapped in the interface would not compare equal to nil).
func provideFallbackLLM(cfg *config.Config, logger *zap.Logger) outbound.LLMGenerationService {
	c := cfg.RMGE.LLM
	if c.FallbackBaseURL == "" {
		return nil
	}
	return llm.NewClient(c.FallbackAPIKey, c.FallbackBaseURL, c.FallbackModel, logger)
}

func provideVectorIndex(cfg *config.Config, logger *zap.Logger) *vectorindex.Client {
	c := cfg.RMGE.Retrieval
	return vectorindex.NewClient(c.IndexAPIKey, c.IndexBaseURL, c.Namespace, logger)
}
