// Package embedder provides an HTTP adapter to an embedding service,
// implementing outbound.EmbeddingService.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/alchemorsel/v3/pkg/errors"
	"go.uber.org/zap"
)

// Client calls a remote embedding endpoint that accepts a batch of texts
// and returns one vector per text, in order.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	http       *http.Client
	logger     *zap.Logger
}

// NewClient constructs an embedding client bound to baseURL/model.
func NewClient(apiKey, baseURL, model string, dimensions int, logger *zap.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		dimensions: dimensions,
		http:       &http.Client{Timeout: 20 * time.Second},
		logger:     logger,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type statusCodeError struct {
	status int
	body   string
}

func (e *statusCodeError) Error() string   { return fmt.Sprintf("embedding endpoint returned %d: %s", e.status, e.body) }
func (e *statusCodeError) StatusCode() int { return e.status }

// Embed returns one vector per input text, in order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, apperrors.NewValidationError("embed: no input texts")
	}

	payload, err := json.Marshal(embedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, apperrors.NewValidationError("could not marshal embedding request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewEmbeddingError("build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewEmbeddingError("call endpoint", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewEmbeddingError("read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &statusCodeError{status: resp.StatusCode, body: string(body)}
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.NewEmbeddingError("decode response", err)
	}

	vectors := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Dimensions returns the fixed vector dimension configured at init.
func (c *Client) Dimensions() int {
	return c.dimensions
}
