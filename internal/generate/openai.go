package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/atheneum/internal/article"
	"github.com/felixgeelhaar/atheneum/internal/settings"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIService serves both article text (chat completions) and section
// images (DALL-E).
type OpenAIService struct {
	client     *openai.Client
	chatModel  string
	imageModel string
}

func NewOpenAIService(apiKey, baseURL, model string) (*OpenAIService, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	client := openai.NewClientWithConfig(config)
	if model == "" {
		model = openai.GPT4TurboPreview
	}

	return &OpenAIService{
		client:     client,
		chatModel:  model,
		imageModel: openai.CreateImageModelDallE3,
	}, nil
}

func (s *OpenAIService) Name() string {
	return "openai"
}

func (s *OpenAIService) GenerateArticle(ctx context.Context, topic string, st settings.AppSettings, locale string) (*article.Document, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: buildArticlePrompt(topic, st, locale)},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: fmt.Errorf("no choices returned")}
	}

	doc, err := parseArticle(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, &GenerationError{Provider: s.Name(), Op: "article", Err: err}
	}
	return doc, nil
}

func (s *OpenAIService) GenerateImage(ctx context.Context, prompt string, st settings.AppSettings, locale string) (string, error) {
	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         imagePrompt(prompt, st),
		Model:          s.imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", &GenerationError{Provider: s.Name(), Op: "image", Err: err}
	}
	if len(resp.Data) == 0 {
		return "", &GenerationError{Provider: s.Name(), Op: "image", Err: fmt.Errorf("no image returned")}
	}
	return resp.Data[0].URL, nil
}

// EditImage regenerates with the instruction folded into the original
// prompt. The masked-edit endpoint needs a mask upload, which this flow
// does not have; a guided regeneration matches what the UI promises.
func (s *OpenAIService) EditImage(ctx context.Context, imageRef, instruction string, st settings.AppSettings, locale string) (string, error) {
	combined := fmt.Sprintf("%s. Revision of an earlier illustration (%s).", instruction, imageRef)
	url, err := s.GenerateImage(ctx, combined, st, locale)
	if err != nil {
		var genErr *GenerationError
		if errors.As(err, &genErr) {
			return "", &GenerationError{Provider: s.Name(), Op: "image-edit", Err: genErr.Err}
		}
		return "", err
	}
	return url, nil
}

func (s *OpenAIService) GenerateVideo(ctx context.Context, prompt string, st settings.AppSettings, locale string, progress ProgressFunc) (string, error) {
	if progress != nil {
		progress("Video generation requested")
	}
	return "", &GenerationError{Provider: s.Name(), Op: "video", Err: errors.New("video generation is not supported by this provider")}
}
