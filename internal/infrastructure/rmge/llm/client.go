// Package llm provides an OpenAI-compatible chat-completion adapter for the
// RMGE LLMClient, adapted from internal/infrastructure/ai/openai.Client's
// HTTP call shape.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alchemorsel/v3/internal/ports/outbound"
	apperrors "github.com/alchemorsel/v3/pkg/errors"
	"go.uber.org/zap"
)

// Client is an outbound.LLMGenerationService backed by an OpenAI-compatible
// chat-completion endpoint (OpenAI itself, or a local Ollama/self-hosted
// gateway configured with the same wire format).
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient constructs a chat-completion client for baseURL/model.
func NewClient(apiKey, baseURL, model string, logger *zap.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// statusCodeError lets the shared Retry classifier read an HTTP status off
// a transport-layer failure.
type statusCodeError struct {
	status int
	body   string
}

func (e *statusCodeError) Error() string {
	return fmt.Sprintf("llm endpoint returned %d: %s", e.status, e.body)
}

func (e *statusCodeError) StatusCode() int { return e.status }

// Generate issues one chat-completion call and reports token usage.
func (c *Client) Generate(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperrors.NewValidationError("could not marshal LLM request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewLLMError("build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewLLMError("call endpoint", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewLLMError("read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &statusCodeError{status: resp.StatusCode, body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.NewLLMError("decode response", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, apperrors.NewLLMError("decode response", fmt.Errorf("no choices returned"))
	}

	return &outbound.GenerationResult{
		Text:             parsed.Choices[0].Message.Content,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}, nil
}
