// Package generate defines the external generation collaborators: article
// synthesis and media (image/video) synthesis. Implementations wrap one
// concrete provider; the rest of the application only sees the interfaces.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/atheneum/internal/article"
	"github.com/felixgeelhaar/atheneum/internal/settings"
)

// ProgressFunc receives human-readable status text during long-running
// generations (video).
type ProgressFunc func(status string)

// GenerationError wraps a provider failure with enough context to name the
// provider and operation in a notification.
type GenerationError struct {
	Provider string
	Op       string // "article", "image", "image-edit", "video"
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s %s generation failed: %v", e.Provider, e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ArticleService generates a full article document for a topic.
type ArticleService interface {
	GenerateArticle(ctx context.Context, topic string, st settings.AppSettings, locale string) (*article.Document, error)
	Name() string
}

// MediaService generates media references for section prompts.
type MediaService interface {
	// GenerateImage returns a media reference (URL) for the prompt.
	GenerateImage(ctx context.Context, prompt string, st settings.AppSettings, locale string) (string, error)
	// EditImage applies an instruction to an existing image reference.
	EditImage(ctx context.Context, imageRef, instruction string, st settings.AppSettings, locale string) (string, error)
	// GenerateVideo produces a video reference, reporting progress along
	// the way.
	GenerateVideo(ctx context.Context, prompt string, st settings.AppSettings, locale string, progress ProgressFunc) (string, error)
	Name() string
}

// sectionCount maps the articleLength setting to a target section count.
func sectionCount(st settings.AppSettings) int {
	switch st.ArticleLength {
	case "short":
		return 3
	case "long":
		return 7
	default:
		return 5
	}
}

// buildArticlePrompt asks the model for strict JSON matching the article
// document shape.
func buildArticlePrompt(topic string, st settings.AppSettings, locale string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write an encyclopedia article about %q in language %q.\n", topic, locale)
	fmt.Fprintf(&sb, "Use about %d sections.\n", sectionCount(st))
	sb.WriteString("Respond with JSON only, using exactly this shape:\n")
	sb.WriteString(`{"title": string, "introduction": string, "sections": [{"heading": string, "content": string, "imagePrompt": string}], "conclusion": string, "timeline": [{"date": string, "event": string}]}`)
	sb.WriteString("\nEvery section's imagePrompt describes a single illustrative image for that section.")
	if st.ImageStyle != "" {
		fmt.Fprintf(&sb, " Image prompts should suit a %s rendering style.", st.ImageStyle)
	}
	return sb.String()
}

// imagePrompt folds the configured style into a section's prompt.
func imagePrompt(prompt string, st settings.AppSettings) string {
	if st.ImageStyle == "" {
		return prompt
	}
	return fmt.Sprintf("%s, %s style", prompt, st.ImageStyle)
}

// parseArticle decodes a model response into a document, tolerating code
// fences around the JSON.
func parseArticle(raw string) (*article.Document, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	var doc article.Document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("malformed article JSON: %w", err)
	}
	if doc.Title == "" {
		return nil, fmt.Errorf("article response has no title")
	}
	return &doc, nil
}
