// Package vectorindex adapts a remote vector index (upsert/query/stats/
// delete) behind outbound.VectorIndexService, normalizing Document metadata
// at the storage boundary per SPEC_FULL.md §4.2.
package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/alchemorsel/v3/internal/ports/outbound"
	apperrors "github.com/alchemorsel/v3/pkg/errors"
	"go.uber.org/zap"
)

// Client is an HTTP adapter to a namespaced remote vector index.
type Client struct {
	apiKey    string
	baseURL   string
	namespace string
	http      *http.Client
	logger    *zap.Logger
}

// NewClient constructs a vector index adapter bound to one namespace.
func NewClient(apiKey, baseURL, namespace string, logger *zap.Logger) *Client {
	return &Client{
		apiKey:    apiKey,
		baseURL:   baseURL,
		namespace: namespace,
		http:      &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

type statusCodeError struct {
	status int
	body   string
}

func (e *statusCodeError) Error() string   { return fmt.Sprintf("vector index returned %d: %s", e.status, e.body) }
func (e *statusCodeError) StatusCode() int { return e.status }

type upsertVector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata"`
}

type upsertRequest struct {
	Namespace string         `json:"namespace"`
	Vectors   []upsertVector `json:"vectors"`
}

// Upsert normalizes each Document's metadata (sequences -> comma-joined,
// objects -> JSON) and sends one batch request.
func (c *Client) Upsert(ctx context.Context, docs []domain.Document) error {
	vectors := make([]upsertVector, len(docs))
	for i, d := range docs {
		vectors[i] = upsertVector{
			ID:       d.ID,
			Values:   d.Embedding,
			Metadata: serializeMetadata(d),
		}
	}

	payload, err := json.Marshal(upsertRequest{Namespace: c.namespace, Vectors: vectors})
	if err != nil {
		return apperrors.NewValidationError("could not marshal upsert request")
	}

	return c.doRequest(ctx, http.MethodPost, "/vectors/upsert", payload, nil)
}

type queryRequest struct {
	Namespace       string    `json:"namespace"`
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryMatch struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

type queryResponse struct {
	Matches []queryMatch `json:"matches"`
}

// SimilaritySearch returns the top-k matches with parsed metadata.
func (c *Client) SimilaritySearch(ctx context.Context, queryVector []float32, k int) ([]outbound.VectorIndexMatch, error) {
	payload, err := json.Marshal(queryRequest{Namespace: c.namespace, Vector: queryVector, TopK: k, IncludeMetadata: true})
	if err != nil {
		return nil, apperrors.NewValidationError("could not marshal query request")
	}

	var resp queryResponse
	if err := c.doRequest(ctx, http.MethodPost, "/vectors/query", payload, &resp); err != nil {
		return nil, err
	}

	out := make([]outbound.VectorIndexMatch, len(resp.Matches))
	for i, m := range resp.Matches {
		out[i] = outbound.VectorIndexMatch{
			Document: domain.Document{ID: m.ID, Content: m.Metadata["content"], Metadata: deserializeMetadata(m.Metadata)},
			Score:    m.Score,
		}
	}
	return out, nil
}

type statsResponse struct {
	Namespaces map[string]struct {
		VectorCount int `json:"vectorCount"`
	} `json:"namespaces"`
}

// Stats reports the document count in this client's namespace.
func (c *Client) Stats(ctx context.Context) (int, error) {
	var resp statsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/describe_index_stats", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Namespaces[c.namespace].VectorCount, nil
}

// DeleteAll clears namespace entirely.
func (c *Client) DeleteAll(ctx context.Context, namespace string) error {
	payload, err := json.Marshal(map[string]interface{}{"namespace": namespace, "deleteAll": true})
	if err != nil {
		return apperrors.NewValidationError("could not marshal delete request")
	}
	return c.doRequest(ctx, http.MethodPost, "/vectors/delete", payload, nil)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.NewIndexError("build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return apperrors.NewIndexError("call endpoint", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewIndexError("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusCodeError{status: resp.StatusCode, body: string(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return apperrors.NewIndexError("decode response", err)
		}
	}
	return nil
}

// serializeMetadata flattens a Document's typed Metadata into the
// scalar-only string map the index stores, joining sequence values with
// ", " as required at the storage boundary.
func serializeMetadata(d domain.Document) map[string]string {
	m := d.Metadata
	out := map[string]string{
		"content":        d.Content,
		"mealName":       m.MealName,
		"state":          m.State,
		"mealType":       string(m.MealType),
		"dietType":       string(m.DietType),
		"gi":             string(m.GI),
		"protein":        strconv.FormatFloat(m.Protein, 'f', -1, 64),
		"carbs":          strconv.FormatFloat(m.Carbs, 'f', -1, 64),
		"fats":           strconv.FormatFloat(m.Fats, 'f', -1, 64),
		"calories":       strconv.FormatFloat(m.Calories, 'f', -1, 64),
		"prepTime":       m.PrepTimeRaw,
		"budgetFriendly": strconv.FormatBool(m.BudgetFriendly),
		"budgetMin":      strconv.FormatFloat(m.BudgetMin, 'f', -1, 64),
		"budgetMax":      strconv.FormatFloat(m.BudgetMax, 'f', -1, 64),
		"category":       m.Category,
	}
	if m.HasFiber {
		out["fiber"] = strconv.FormatFloat(m.Fiber, 'f', -1, 64)
	}
	for k, v := range m.Extra {
		out[k] = v
	}
	return out
}

// deserializeMetadata rebuilds the typed Metadata view from the index's
// scalar string map, re-parsing prepTime into minutes.
func deserializeMetadata(raw map[string]string) domain.Metadata {
	m := domain.Metadata{
		MealName:    raw["mealName"],
		State:       raw["state"],
		MealType:    domain.MealType(raw["mealType"]),
		DietType:    domain.DietType(raw["dietType"]),
		GI:          domain.GILevel(raw["gi"]),
		PrepTimeRaw: raw["prepTime"],
		Category:    raw["category"],
		Extra:       make(map[string]string),
	}
	m.Protein = parseFloatOr(raw["protein"], 0)
	m.Carbs = parseFloatOr(raw["carbs"], 0)
	m.Fats = parseFloatOr(raw["fats"], 0)
	m.Calories = parseFloatOr(raw["calories"], 0)
	m.BudgetFriendly = raw["budgetFriendly"] == "true"
	m.BudgetMin = parseFloatOr(raw["budgetMin"], 0)
	m.BudgetMax = parseFloatOr(raw["budgetMax"], 0)
	if v, ok := raw["fiber"]; ok {
		m.Fiber = parseFloatOr(v, 0)
		m.HasFiber = true
	}

	if mins, ok := ParsePrepTime(m.PrepTimeRaw); ok {
		m.PrepTimeMins = mins
		m.PrepTimeParsed = true
	}

	for k, v := range raw {
		switch k {
		case "content", "mealName", "state", "mealType", "dietType", "gi", "protein", "carbs",
			"fats", "fiber", "calories", "prepTime", "budgetFriendly", "budgetMin", "budgetMax", "category":
			continue
		default:
			m.Extra[k] = v
		}
	}

	return m
}

func parseFloatOr(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

// ParsePrepTime parses the natural forms described in spec.md §3: "30 mins",
// "1 hour", "1.5 hrs". Returns ok=false for unparseable input, so callers
// (MetadataFilter) let the document pass rather than excluding it.
func ParsePrepTime(raw string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}

	isHour := strings.Contains(s, "hour") || strings.Contains(s, "hr")
	s = strings.NewReplacer("hours", "", "hour", "", "hrs", "", "hr", "", "mins", "", "minutes", "", "min", "").Replace(s)
	s = strings.TrimSpace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if isHour {
		return int(v * 60), true
	}
	return int(v), true
}
