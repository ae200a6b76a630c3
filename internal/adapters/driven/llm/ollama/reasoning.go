// Package ollama provides a reasoning service adapter using Ollama.
package ollama

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
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Ollama reasoning service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// ReasoningService answers the orchestrator's heuristic decisions using a
// local Ollama server. Structured answers are validated against their
// closed enums before they leave this adapter.
type ReasoningService struct {
	client  *http.Client
	baseURL string
	model   string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewReasoningService creates a new Ollama reasoning service.
func NewReasoningService(cfg Config) *ReasoningService {
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
		model:   cfg.Model,
	}
}

// generate runs one non-streaming completion.
func (s *ReasoningService) generate(ctx context.Context, p string, maxTokens int, temperature float64) (string, error) {
	jsonBody, err := json.Marshal(generateRequest{
		Model:  s.model,
		Prompt: p,
		Stream: false,
		Options: &options{
			NumPredict:  maxTokens,
			Temperature: temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return genResp.Response, nil
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

// Ping validates the server is reachable via the /api/tags endpoint.
func (s *ReasoningService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *ReasoningService) Close() error {
	return nil
}
