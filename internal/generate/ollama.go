package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"

	"github.com/felixgeelhaar/atheneum/internal/article"
	"github.com/felixgeelhaar/atheneum/internal/settings"
	"github.com/ollama/ollama/api"
)

// OllamaService generates articles against a local Ollama daemon. It does
// not serve media.
type OllamaService struct {
	client *api.Client
	model  string
}

func NewOllamaService(model string) (*OllamaService, error) {
	if model == "" {
		model = "llama3.2"
	}

	baseURL := "http://localhost:11434"
	if envURL := os.Getenv("OLLAMA_HOST"); envURL != "" {
		baseURL = envURL
	}
	uri, _ := url.Parse(baseURL)
	client := api.NewClient(uri, http.DefaultClient)

	return &OllamaService{
		client: client,
		model:  model,
	}, nil
}

func (s *OllamaService) Name() string {
	return "ollama"
}

func (s *OllamaService) GenerateArticle(ctx context.Context, topic string, st settings.AppSettings, locale string) (*article.Document, error) {
	req := &api.ChatRequest{
		Model: s.model,
		Messages: []api.Message{
			{Role: "user", Content: buildArticlePrompt(topic, st, locale)},
		},
		Stream: new(bool), // false
		Format: json.RawMessage(`"json"`),
	}

	var respContent string
	err := s.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		respContent += resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: err}
	}

	doc, err := parseArticle(respContent)
	if err != nil {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: err}
	}
	return doc, nil
}
