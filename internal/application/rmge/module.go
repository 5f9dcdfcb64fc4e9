package rmge

import (
	"github.com/alchemorsel/v3/internal/infrastructure/config"
	rmgecache "github.com/alchemorsel/v3/internal/infrastructure/rmge/cache"
	"github.com/alchemorsel/v3/internal/ports/outbound"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides every application-layer RMGE component for DI composition,
// following the fx.Provide grouping style in internal/infrastructure/container.
// NewLLMClient and NewQueryExpander both take an outbound.LLMGenerationService;
// fx.Annotate resolves the ambiguity against the name-tagged primary/fallback
// providers the infrastructure module registers.
var Module = fx.Provide(
	provideRetryConfig,
	provideQuotaConfig,
	provideRetrievalConfig,
	provideLLMParams,
	provideEmbeddingTuning,
	PrometheusRegistry,
	provideEmbedder,
	NewVectorIndex,
	NewMetadataFilter,
	NewDeduplicator,
	NewReRanker,
	NewMacroPlanner,
	fx.Annotate(
		NewQueryExpander,
		fx.ParamTags(`name:"rmge_llm_primary"`),
	),
	NewPromptBuilder,
	fx.Annotate(
		NewLLMClient,
		fx.ParamTags(`name:"rmge_llm_primary"`, `name:"rmge_llm_fallback"`),
	),
	NewValidator,
	NewQuotaGate,
	NewMetrics,
	NewCostTracker,
	NewOrchestrator,
)

// provideEmbedder wires the optional Redis-backed L2 cache (nil when no
// Redis host is configured) into the Embedder's variadic l2 parameter,
// since fx does not populate variadic constructor arguments itself.
func provideEmbedder(svc outbound.EmbeddingService, retry RetryConfig, tuning EmbeddingTuning, logger *zap.Logger, l2 rmgecache.L2) *Embedder {
	return NewEmbedder(svc, retry, tuning, logger, l2)
}

func provideRetryConfig(cfg *config.Config) RetryConfig {
	r := cfg.RMGE.Retry
	if r.MaxRetries == 0 && r.InitialDelay == 0 {
		return DefaultRetryConfig()
	}
	return RetryConfig{
		MaxRetries:        r.MaxRetries,
		InitialDelay:      r.InitialDelay,
		MaxDelay:          r.MaxDelay,
		BackoffMultiplier: r.BackoffMultiplier,
	}
}

func provideQuotaConfig(cfg *config.Config) QuotaConfig {
	q := cfg.RMGE.Quota
	return QuotaConfig{
		FreeTotal:  q.FreeTotal,
		ProWeekly:  q.ProWeekly,
		MaxWeekly:  q.MaxWeekly,
		TestUserID: q.TestUserID,
		ResetTZ:    q.ResetTimezone,
	}
}

// provideRetrievalConfig reads rmge.retrieval.* into the Orchestrator's
// retrieval-shaping knobs (base fan-out width, trim depth, minScore floor,
// concurrency, and query-expansion variant count/LLM use).
func provideRetrievalConfig(cfg *config.Config) RetrievalConfig {
	r := cfg.RMGE.Retrieval
	if r.BaseTopK == 0 && r.TrimToTopDocs == 0 {
		return DefaultRetrievalConfig()
	}
	return RetrievalConfig{
		BaseTopK:        r.BaseTopK,
		TrimToTopDocs:   r.TrimToTopDocs,
		MinScore:        r.MinScore,
		MaxConcurrency:  r.MaxConcurrency,
		MaxVariations:   r.MaxVariations,
		UseLLMExpansion: r.UseLLMExpansion,
	}
}

// provideLLMParams reads rmge.llm.{temperature,max_tokens} into the
// Orchestrator's generation sampling parameters.
func provideLLMParams(cfg *config.Config) LLMParams {
	l := cfg.RMGE.LLM
	if l.Temperature == 0 && l.MaxTokens == 0 {
		return DefaultLLMParams()
	}
	return LLMParams{Temperature: l.Temperature, MaxTokens: l.MaxTokens}
}

// provideEmbeddingTuning reads rmge.embedding.{cache_size,cache_ttl,
// batch_size,rate_limit_rps} into the Embedder's cache/batch/rate knobs.
func provideEmbeddingTuning(cfg *config.Config) EmbeddingTuning {
	e := cfg.RMGE.Embedding
	if e.BatchSize == 0 && e.CacheSize == 0 {
		return DefaultEmbeddingTuning()
	}
	return EmbeddingTuning{
		CacheSize:    e.CacheSize,
		CacheTTL:     e.CacheTTL,
		BatchSize:    e.BatchSize,
		RateLimitRPS: e.RateLimitRPS,
	}
}

// PrometheusRegistry provides the default registerer the Metrics component
// registers its collectors against.
func PrometheusRegistry() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}
