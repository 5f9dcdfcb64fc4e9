package rmge

import (
	"context"
	"strconv"
	"strings"
	"time"

	rmgecache "github.com/alchemorsel/v3/internal/infrastructure/rmge/cache"
	"github.com/alchemorsel/v3/internal/ports/outbound"
	"go.uber.org/zap"
)

const (
	expanderCacheSize = 200
	expanderCacheTTL  = 1 * time.Hour
	defaultMaxVariations = 3
)

var indianDishTokens = []string{"paneer", "dal", "curry", "biryani", "dosa", "idli", "roti", "khichdi"}

var abbreviations = map[string]string{
	"veg":   "vegetarian",
	"gi":    "glycemic index",
	"carbs": "carbohydrates",
	"mins":  "minutes",
}

var regionalSynonyms = [][]string{
	{"dal", "daal", "lentil"},
	{"roti", "chapati", "flatbread"},
	{"paneer", "cottage cheese"},
	{"biryani", "rice pilaf"},
}

// QueryExpander generates up to maxVariations distinct query variants
// including the original, per SPEC_FULL.md §4.3.
type QueryExpander struct {
	llm   outbound.LLMGenerationService
	retry RetryConfig
	cache *rmgecache.TTLCache
	log   *zap.Logger
}

// NewQueryExpander wires an optional LLM (may be nil to force rule-based
// expansion) with its expansion cache.
func NewQueryExpander(llm outbound.LLMGenerationService, retry RetryConfig, log *zap.Logger) *QueryExpander {
	return &QueryExpander{
		llm:   llm,
		retry: retry,
		cache: rmgecache.New(expanderCacheSize, expanderCacheTTL),
		log:   log,
	}
}

// Expand returns up to maxVariations distinct variants of query, the
// original always first.
func (e *QueryExpander) Expand(ctx context.Context, query string, maxVariations int, useLLM bool) []string {
	if maxVariations <= 0 {
		maxVariations = defaultMaxVariations
	}
	key := cacheKeyFor(query, maxVariations, useLLM)
	if v, ok := e.cache.Get(key); ok {
		return v.([]string)
	}

	variants := []string{query}

	if useLLM && e.llm != nil {
		if llmVariants, err := e.expandViaLLM(ctx, query); err == nil {
			variants = appendDistinct(variants, llmVariants, maxVariations)
		} else if e.log != nil {
			e.log.Warn("query expansion LLM call failed, falling back to rule-based", zap.Error(err))
		}
	}

	if len(variants) < maxVariations {
		variants = appendDistinct(variants, ruleBasedVariants(query), maxVariations)
	}

	if len(variants) == 0 {
		variants = []string{query}
	}

	e.cache.SetDefault(key, variants)
	return variants
}

func (e *QueryExpander) expandViaLLM(ctx context.Context, query string) ([]string, error) {
	prompt := "List semantically related search query variations for: " + query + "\nOne variation per line."
	var result string
	err := Retry(ctx, e.retry, classifyTransient, func(ctx context.Context) error {
		res, err := e.llm.Generate(ctx, prompt, outbound.GenerationParams{Temperature: 0.3, MaxTokens: 150})
		if err != nil {
			return llmErr("query expansion", err)
		}
		result = res.Text
		return nil
	})
	if err != nil {
		return nil, err
	}

	lines := strings.Split(result, "\n")
	variants := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			variants = append(variants, l)
		}
	}
	return variants, nil
}

func ruleBasedVariants(query string) []string {
	q := strings.ToLower(query)
	out := []string{}

	for _, token := range indianDishTokens {
		if strings.Contains(q, token) {
			out = append(out, "indian "+query)
			break
		}
	}

	expanded := q
	for abbr, full := range abbreviations {
		expanded = replaceWord(expanded, abbr, full)
	}
	if expanded != q {
		out = append(out, expanded)
	}

	out = append(out, query+" recipe", query+" dish")

	for _, group := range regionalSynonyms {
		for _, term := range group {
			if strings.Contains(q, term) {
				for _, alt := range group {
					if alt != term {
						out = append(out, strings.Replace(q, term, alt, 1))
					}
				}
				break
			}
		}
	}

	if strings.Contains(q, "high protein") {
		out = append(out, strings.Replace(q, "high protein", "high-protein", 1))
	}
	if strings.Contains(q, "low carb") {
		out = append(out, strings.Replace(q, "low carb", "keto", 1))
	}

	return out
}

func replaceWord(s, word, repl string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == word {
			words[i] = repl
		}
	}
	return strings.Join(words, " ")
}

func appendDistinct(existing, candidates []string, max int) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[strings.ToLower(e)] = struct{}{}
	}
	out := existing
	for _, c := range candidates {
		if len(out) >= max {
			break
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func cacheKeyFor(query string, maxVariations int, useLLM bool) string {
	return strings.ToLower(strings.TrimSpace(query)) + "|" + strconv.Itoa(maxVariations) + "|" + strconv.FormatBool(useLLM)
}
