// Package openai provides a reasoning service adapter using the OpenAI API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hardhat-labs/girder-cli/internal/adapters/driven/llm/prompt"
	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
)

// Ensure ReasoningService implements the interface.
var _ driven.ReasoningService = (*ReasoningService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenAI reasoning service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// ReasoningService answers the orchestrator's heuristic decisions using
// the OpenAI chat completions API. Structured answers are validated
// against their closed enums before they leave this adapter.
type ReasoningService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatRequest is the chat completions request format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// chatMessage is one chat turn.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the chat completions response format.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewReasoningService creates a new OpenAI reasoning service.
func NewReasoningService(cfg Config) (*ReasoningService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &ReasoningService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// generate runs one chat completion.
func (s *ReasoningService) generate(ctx context.Context, p string, maxTokens int, temperature float64) (string, error) {
	jsonBody, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "user", Content: p},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai: no completion returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// DecideStage proposes the next processing stage for a session summary.
func (s *ReasoningService) DecideStage(ctx context.Context, summary driven.StateSummary) (domain.Stage, error) {
	answer, err := s.generate(ctx, prompt.StageDecision(summary), 10, 0)
	if err != nil {
		return "", fmt.Errorf("decide stage: %w", err)
	}
	return prompt.ParseStage(answer)
}

// ExtractAttributes pulls structured query facets from free text.
func (s *ReasoningService) ExtractAttributes(ctx context.Context, query string) (domain.QueryAttributes, error) {
	answer, err := s.generate(ctx, prompt.AttributeExtraction(query), 200, 0)
	if err != nil {
		return domain.QueryAttributes{}, fmt.Errorf("extract attributes: %w", err)
	}
	return prompt.ParseAttributes(answer)
}

// ParseFeedback maps a free-text analyst reply onto a feedback action.
func (s *ReasoningService) ParseFeedback(ctx context.Context, input string) (domain.FeedbackAction, error) {
	answer, err := s.generate(ctx, prompt.FeedbackIntent(input), 10, 0)
	if err != nil {
		return "", fmt.Errorf("parse feedback: %w", err)
	}
	return prompt.ParseAction(answer)
}

// Summarise produces a short relevance note for one document.
func (s *ReasoningService) Summarise(ctx context.Context, query, content string) (string, error) {
	answer, err := s.generate(ctx, prompt.RelevanceCommentary(query, content), 60, 0.3)
	if err != nil {
		return "", fmt.Errorf("summarise: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// Compose drafts the findings text from the accepted document set.
func (s *ReasoningService) Compose(ctx context.Context, query string, docs []domain.Document) (string, error) {
	answer, err := s.generate(ctx, prompt.Composition(query, docs), 1500, 0.3)
	if err != nil {
		return "", fmt.Errorf("compose: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// ModelName returns the name of the model being used.
func (s *ReasoningService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable via the /models endpoint.
func (s *ReasoningService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *ReasoningService) Close() error {
	return nil
}
