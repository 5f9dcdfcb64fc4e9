package rmge

import (
	"context"
	"time"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/alchemorsel/v3/internal/ports/outbound"
	apperrors "github.com/alchemorsel/v3/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	embedTimeout      = 15 * time.Second
	searchTimeout     = 10 * time.Second
	llmTimeout        = 60 * time.Second
	generateTotalTime = 90 * time.Second
)

// RetrievalConfig shapes the retrieval stage: fan-out width, how many
// documents come back per variant, the minScore floor, and how many
// query variants get generated. Sourced from rmge.retrieval in config.
type RetrievalConfig struct {
	BaseTopK        int
	TrimToTopDocs   int
	MinScore        float64
	MaxConcurrency  int
	MaxVariations   int
	UseLLMExpansion bool
}

// DefaultRetrievalConfig matches the values this package hardcoded before
// rmge.retrieval.* config plumbing existed.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		BaseTopK:        25,
		TrimToTopDocs:   20,
		MinScore:        0.3,
		MaxConcurrency:  4,
		MaxVariations:   3,
		UseLLMExpansion: true,
	}
}

// LLMParams configures the generation call's sampling parameters. Sourced
// from rmge.llm.temperature / rmge.llm.max_tokens.
type LLMParams struct {
	Temperature float64
	MaxTokens   int
}

// DefaultLLMParams matches the values this package hardcoded before
// rmge.llm.{temperature,max_tokens} config plumbing existed.
func DefaultLLMParams() LLMParams {
	return LLMParams{Temperature: 0.4, MaxTokens: 4000}
}

// Orchestrator is the RMGE façade: it wires every component into one
// generatePlan request, per SPEC_FULL.md §4.11.
type Orchestrator struct {
	quota       *QuotaGate
	macros      *MacroPlanner
	expander    *QueryExpander
	embedder    *Embedder
	index       *VectorIndex
	filter      *MetadataFilter
	dedup       *Deduplicator
	reranker    *ReRanker
	promptBuild *PromptBuilder
	llm         *LLMClient
	validator   *Validator
	metrics     *Metrics
	costs       *CostTracker
	retrieval   RetrievalConfig
	llmParams   LLMParams
	logger      *zap.Logger
}

// NewOrchestrator wires every RMGE component into a single façade.
func NewOrchestrator(
	quota *QuotaGate,
	macros *MacroPlanner,
	expander *QueryExpander,
	embedder *Embedder,
	index *VectorIndex,
	filter *MetadataFilter,
	dedup *Deduplicator,
	reranker *ReRanker,
	promptBuild *PromptBuilder,
	llm *LLMClient,
	validator *Validator,
	metrics *Metrics,
	costs *CostTracker,
	retrieval RetrievalConfig,
	llmParams LLMParams,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		quota: quota, macros: macros, expander: expander, embedder: embedder,
		index: index, filter: filter, dedup: dedup, reranker: reranker,
		promptBuild: promptBuild, llm: llm, validator: validator, metrics: metrics,
		costs: costs, retrieval: retrieval, llmParams: llmParams, logger: logger,
	}
}

// GeneratePlan drives the full request flow from spec.md §2 / §4.11.
func (o *Orchestrator) GeneratePlan(ctx context.Context, req domain.PlanRequest) (*domain.MealPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTotalTime)
	defer cancel()

	meta := domain.GenerationMetadata{StageDurationsMS: make(map[string]int64)}
	overallStart := time.Now()
	outcome := "ok"
	defer func() {
		meta.TotalDurationMS = time.Since(overallStart).Milliseconds()
		if o.metrics != nil {
			o.metrics.RecordOutcome(outcome)
		}
	}()

	// 1. QuotaGate.check
	stage := o.timed(&meta, "quota_check")
	_, err := o.quota.CheckErr(ctx, req.Profile.UserID)
	stage()
	if err != nil {
		outcome = "quota_exceeded"
		return nil, err
	}

	// 2. MacroPlanner.derive
	stage = o.timed(&meta, "macro_plan")
	targets := o.macros.Derive(req.Profile, req)
	stage()

	// 3. Build base query; QueryExpander.expand
	baseQuery := buildBaseQuery(req)
	stage = o.timed(&meta, "query_expand")
	variants := o.expander.Expand(ctx, baseQuery, o.retrieval.MaxVariations, o.retrieval.UseLLMExpansion)
	stage()

	// 4. Per-variant embed + similarity search, bounded fan-out <=4.
	stage = o.timed(&meta, "retrieve")
	candidates, err := o.retrieveVariants(ctx, variants)
	stage()
	if err != nil {
		if apperrors.Is(err, apperrors.CodeCancelled) {
			outcome = "cancelled"
		} else {
			outcome = "retrieval_failed"
		}
		return nil, err
	}
	meta.RetrievalCandidateCount = len(candidates)

	// 5. MetadataFilter.apply
	stage = o.timed(&meta, "filter")
	spec := TranslatePreferences(req.Profile, req)
	filtered := o.filterCandidates(candidates, spec)
	stage()

	// 6. Deduplicator. The minScore floor is applied after this step, not
	// before: dropping a low-scoring state-specific document pre-dedup
	// would let a weaker All-States document for the same meal survive
	// the subordination rule unchallenged (SPEC_FULL.md §13.4).
	stage = o.timed(&meta, "dedup")
	deduped := o.applyMinScoreFloor(o.dedup.Apply(filtered))
	stage()

	// 7. ReRanker.reRank
	stage = o.timed(&meta, "rerank")
	rctx := buildRerankContext(req, targets)
	reranked := o.reranker.ReRank(deduped, req.IntentQuery, rctx)
	stage()
	meta.RerankedCount = len(reranked)

	// 8. Trim to top documents
	if len(reranked) > o.retrieval.TrimToTopDocs {
		reranked = reranked[:o.retrieval.TrimToTopDocs]
	}

	// 9. PromptBuilder.assemble; LLMClient.generate
	prompt := o.promptBuild.Assemble(req, req.Profile, targets, reranked)

	stage = o.timed(&meta, "llm_generate")
	genCtx, genCancel := context.WithTimeout(ctx, llmTimeout)
	genResult, err := o.llm.Generate(genCtx, prompt, outbound.GenerationParams{Temperature: o.llmParams.Temperature, MaxTokens: o.llmParams.MaxTokens})
	genCancel()
	stage()
	if err != nil {
		if ctx.Err() != nil {
			outcome = "cancelled"
			return nil, apperrors.NewCancelledError("llm_generate")
		}
		outcome = "llm_failed"
		return nil, err
	}
	if o.costs != nil {
		o.costs.Track(req.Profile.UserID, "primary", genResult.PromptTokens, genResult.CompletionTokens)
	}

	// 10. Validator.parseAndValidate with up to one repair round; fall back on hard failure.
	stage = o.timed(&meta, "validate")
	plan, violations, perr := o.validator.ParseAndValidate(ctx, genResult.Text, req, req.Profile, targets)
	stage()

	if perr != nil {
		// ParseError is always recovered internally via fallback.
		plan = o.assembleFallback(req, targets, reranked)
		meta.RepairRoundsUsed = 0
	} else if hasHard(violations) {
		repaired, repairErr := o.attemptRepair(ctx, plan, violations, req, req.Profile, targets, prompt)
		meta.RepairRoundsUsed = 1
		if repairErr != nil || hasHard(validateAll(repaired, req, req.Profile, targets)) {
			plan = o.assembleFallback(req, targets, reranked)
		} else {
			plan = repaired
		}
	}

	if plan == nil || len(plan.Days) == 0 {
		outcome = "generation_failed"
		return nil, apperrors.NewGenerationFailedError("validation and fallback both failed to produce a plan")
	}

	plan.Metadata = meta

	// 11. QuotaGate.increment on success.
	stage = o.timed(&meta, "quota_increment")
	incErr := o.quota.Increment(ctx, req.Profile.UserID)
	stage()
	if incErr != nil {
		o.logger.Warn("quota increment failed after successful generation", zap.Error(incErr))
	}

	return plan, nil
}

func (o *Orchestrator) timed(meta *domain.GenerationMetadata, stage string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		meta.StageDurationsMS[stage] = d.Milliseconds()
		if o.metrics != nil {
			o.metrics.RecordStage(stage, d)
		}
	}
}

func buildBaseQuery(req domain.PlanRequest) string {
	if req.IntentQuery != "" {
		return req.IntentQuery
	}
	q := string(req.Profile.DietType)
	if req.MealTypeFocus != "" {
		q += " " + string(req.MealTypeFocus)
	}
	for r := range req.Profile.Regions {
		q += " " + r
		break
	}
	return q
}

// retrieveVariants runs Embedder.embedOne -> VectorIndex.similaritySearch for
// each query variant concurrently, bounded to o.retrieval.MaxConcurrency
// in-flight at once, per SPEC_FULL.md §5.
func (o *Orchestrator) retrieveVariants(ctx context.Context, variants []string) ([]domain.ScoredDoc, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.retrieval.MaxConcurrency)

	resultsCh := make(chan []domain.ScoredDoc, len(variants))

	for _, variant := range variants {
		variant := variant
		g.Go(func() error {
			embedCtx, cancel := context.WithTimeout(gctx, embedTimeout)
			defer cancel()
			vec, err := o.embedder.EmbedOne(embedCtx, variant)
			if err != nil {
				return err
			}

			searchCtx, cancel2 := context.WithTimeout(gctx, searchTimeout)
			defer cancel2()
			matches, err := o.index.SimilaritySearch(searchCtx, vec, o.retrieval.BaseTopK)
			if err != nil {
				return err
			}

			docs := make([]domain.ScoredDoc, 0, len(matches))
			for _, m := range matches {
				docs = append(docs, domain.ScoredDoc{Document: m.Document, SemanticScore: m.Score})
			}
			resultsCh <- docs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(resultsCh)

	var all []domain.ScoredDoc
	for docs := range resultsCh {
		all = append(all, docs...)
	}
	return all, nil
}

func (o *Orchestrator) filterCandidates(docs []domain.ScoredDoc, spec FilterSpec) []domain.ScoredDoc {
	plain := make([]domain.Document, len(docs))
	for i, sd := range docs {
		plain[i] = sd.Document
	}
	filtered := o.filter.Apply(plain, spec)

	keep := make(map[string]struct{}, len(filtered))
	for _, d := range filtered {
		keep[d.ID] = struct{}{}
	}

	out := make([]domain.ScoredDoc, 0, len(filtered))
	for _, sd := range docs {
		if _, ok := keep[sd.Document.ID]; ok {
			out = append(out, sd)
		}
	}
	return out
}

// applyMinScoreFloor drops documents scoring below o.retrieval.MinScore, run
// after Deduplicator so the All-States subordination rule sees every
// candidate's true score before a weak one is discarded.
func (o *Orchestrator) applyMinScoreFloor(docs []domain.ScoredDoc) []domain.ScoredDoc {
	out := make([]domain.ScoredDoc, 0, len(docs))
	for _, sd := range docs {
		if sd.SemanticScore < o.retrieval.MinScore {
			continue
		}
		out = append(out, sd)
	}
	return out
}

func buildRerankContext(req domain.PlanRequest, targets domain.MacroTargets) ReRankContext {
	return ReRankContext{
		IsKeto:        req.IsKeto,
		KetoMaxCarbsG: 20,
		TargetProtein: targets.PerMealProteinG,
		TargetCarbs:   targets.PerMealCarbsG,
		UserBudget:    req.BudgetPerDay,
		MaxPrepTime:   60,
		ProteinUpper:  40,
	}
}

func hasHard(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityHard {
			return true
		}
	}
	return false
}

func validateAll(plan *domain.MealPlan, req domain.PlanRequest, profile domain.UserProfile, targets domain.MacroTargets) []Violation {
	if plan == nil {
		return []Violation{{Severity: SeverityHard, Reason: "nil plan"}}
	}
	v := validateStructure(plan, req)
	v = append(v, validateMacros(plan, req, targets)...)
	v = append(v, validateDietRules(plan, req, profile)...)
	return v
}

// attemptRepair sends back the single offending meal and asks for a
// revision, accepting up to one round, per SPEC_FULL.md §4.9's soft-
// violation repair loop.
func (o *Orchestrator) attemptRepair(ctx context.Context, plan *domain.MealPlan, violations []Violation, req domain.PlanRequest, profile domain.UserProfile, targets domain.MacroTargets, originalPrompt string) (*domain.MealPlan, error) {
	if plan == nil || len(violations) == 0 {
		return plan, nil
	}

	offending := violations[0]
	if offending.DayIndex >= len(plan.Days) || offending.MealIdx >= len(plan.Days[offending.DayIndex].Meals) {
		return plan, nil
	}
	meal := plan.Days[offending.DayIndex].Meals[offending.MealIdx]

	repairPrompt := "Revise only this single meal to fix: " + offending.Reason +
		". Return ONLY the corrected meal as JSON matching the schema used before. Meal: " + meal.Name

	res, err := o.llm.Generate(ctx, repairPrompt, outbound.GenerationParams{Temperature: 0.2, MaxTokens: 800})
	if err != nil {
		return plan, err
	}

	var revised rawMeal
	repairedJSON := res.Text
	if parsed, ok := extractBalancedJSON(repairedJSON); ok {
		repairedJSON = parsed
	}
	if uerr := jsonUnmarshalMeal(repairedJSON, &revised); uerr != nil {
		return plan, uerr
	}

	updated := *plan
	updated.Days = append([]domain.Day{}, plan.Days...)
	day := updated.Days[offending.DayIndex]
	day.Meals = append([]domain.Meal{}, day.Meals...)
	day.Meals[offending.MealIdx] = rawMealToDomain(revised)
	updated.Days[offending.DayIndex] = day

	return &updated, nil
}

// assembleFallback builds a deterministic plan from the top re-ranked
// candidates, filling meal slots by mealType, when validation cannot be
// repaired in one round.
func (o *Orchestrator) assembleFallback(req domain.PlanRequest, targets domain.MacroTargets, docs []domain.ScoredDoc) *domain.MealPlan {
	byType := make(map[domain.MealType][]domain.ScoredDoc)
	for _, sd := range docs {
		mt := sd.Document.Metadata.MealType
		byType[mt] = append(byType[mt], sd)
	}

	slots := mealTypeSlots(req.MealsPerDay)
	plan := &domain.MealPlan{Fallback: true, Days: make([]domain.Day, req.DurationDays)}

	for di := 0; di < req.DurationDays; di++ {
		day := domain.Day{Meals: make([]domain.Meal, 0, req.MealsPerDay)}
		for _, slot := range slots {
			pool := byType[slot]
			if len(pool) == 0 {
				continue
			}
			idx := di % len(pool)
			sd := pool[idx]
			day.Meals = append(day.Meals, templateMeal(sd, slot, targets))
		}
		plan.Days[di] = day
	}

	return plan
}

func mealTypeSlots(mealsPerDay int) []domain.MealType {
	all := []domain.MealType{domain.MealBreakfast, domain.MealLunch, domain.MealDinner, domain.MealSnack}
	if mealsPerDay >= len(all) {
		return all
	}
	return all[:mealsPerDay]
}

func templateMeal(sd domain.ScoredDoc, mealType domain.MealType, targets domain.MacroTargets) domain.Meal {
	m := sd.Document.Metadata
	return domain.Meal{
		MealType: mealType,
		Name:     m.MealName,
		Macros: domain.MealMacros{
			ProteinG: m.Protein,
			CarbsG:   m.Carbs,
			FatG:     m.Fats,
			FiberG:   m.Fiber,
			HasFiber: m.HasFiber,
		},
		Calories:    m.Calories,
		GI:          m.GI,
		PrepTimeMin: m.PrepTimeMins,
	}
}
