package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/felixgeelhaar/atheneum/internal/article"
	"github.com/felixgeelhaar/atheneum/internal/settings"
)

// AnthropicService generates articles over the raw messages API. It does
// not serve media.
type AnthropicService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewAnthropicService(apiKey, model string) (*AnthropicService, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}

	if model == "" {
		model = "claude-3-opus-20240229"
	}

	return &AnthropicService{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.anthropic.com/v1/messages",
		client:  &http.Client{},
	}, nil
}

func (s *AnthropicService) Name() string {
	return "anthropic"
}

// SetBaseURL allows overriding the API endpoint (useful for tests)
func (s *AnthropicService) SetBaseURL(url string) {
	s.baseURL = url
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *AnthropicService) GenerateArticle(ctx context.Context, topic string, st settings.AppSettings, locale string) (*article.Document, error) {
	reqBody := anthropicRequest{
		Model: s.model,
		Messages: []anthropicMessage{
			{Role: "user", Content: buildArticlePrompt(topic, st, locale)},
		},
		MaxTokens: 8192,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: err}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: err}
	}
	if apiResp.Error != nil {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: fmt.Errorf("%s: %s", apiResp.Error.Type, apiResp.Error.Message)}
	}

	var text string
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	doc, err := parseArticle(text)
	if err != nil {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: err}
	}
	return doc, nil
}
