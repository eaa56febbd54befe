package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/atheneum/internal/article"
	"github.com/felixgeelhaar/atheneum/internal/settings"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiService struct {
	client *genai.Client
	model  string
}

func NewGeminiService(apiKey, model string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if model == "" {
		model = "gemini-1.5-pro-latest"
	}

	return &GeminiService{
		client: client,
		model:  model,
	}, nil
}

func (s *GeminiService) Name() string {
	return "gemini"
}

func (s *GeminiService) GenerateArticle(ctx context.Context, topic string, st settings.AppSettings, locale string) (*article.Document, error) {
	geminiModel := s.client.GenerativeModel(s.model)
	geminiModel.ResponseMIMEType = "application/json"

	resp, err := geminiModel.GenerateContent(ctx, genai.Text(buildArticlePrompt(topic, st, locale)))
	if err != nil {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: err}
	}
	if len(resp.Candidates) == 0 {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: fmt.Errorf("no candidates returned")}
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}

	doc, err := parseArticle(text)
	if err != nil {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: err}
	}
	return doc, nil
}
