package generate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/atheneum/internal/article"
	"github.com/felixgeelhaar/atheneum/internal/settings"
)

// StubService is a deterministic provider for tests and offline demos. It
// serves both articles and media, records media calls in arrival order,
// and can be told to fail specific prompts.
type StubService struct {
	// Delay is applied to every media call before responding.
	Delay time.Duration
	// FailPrompts maps a prompt to the error its generation should fail
	// with.
	FailPrompts map[string]error

	mu         sync.Mutex
	imageCalls []string
	videoCalls []string
	counter    int
}

func NewStubService() *StubService {
	return &StubService{}
}

func (s *StubService) Name() string {
	return "stub"
}

// ImageCalls returns the prompts passed to GenerateImage, in call order.
func (s *StubService) ImageCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.imageCalls))
	copy(out, s.imageCalls)
	return out
}

func (s *StubService) GenerateArticle(ctx context.Context, topic string, st settings.AppSettings, locale string) (*article.Document, error) {
	n := sectionCount(st)
	sections := make([]article.Section, n)
	for i := range sections {
		sections[i] = article.Section{
			Heading:     fmt.Sprintf("%s: part %d", topic, i+1),
			Content:     fmt.Sprintf("Generated content about %s (%s).", topic, locale),
			ImagePrompt: fmt.Sprintf("illustration of %s, part %d", topic, i+1),
		}
	}
	return &article.Document{
		Title:        topic,
		Introduction: fmt.Sprintf("An overview of %s.", topic),
		Sections:     sections,
		Conclusion:   fmt.Sprintf("In summary, %s.", topic),
		Timeline: []article.TimelineEvent{
			{Date: "1900", Event: fmt.Sprintf("First study of %s", topic)},
		},
	}, nil
}

func (s *StubService) GenerateImage(ctx context.Context, prompt string, st settings.AppSettings, locale string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageCalls = append(s.imageCalls, prompt)
	if err, ok := s.FailPrompts[prompt]; ok {
		return "", &GenerationError{Provider: s.Name(), Op: "image", Err: err}
	}
	s.counter++
	return fmt.Sprintf("stub://image/%d", s.counter), nil
}

func (s *StubService) EditImage(ctx context.Context, imageRef, instruction string, st settings.AppSettings, locale string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return fmt.Sprintf("stub://edited/%d", s.counter), nil
}

func (s *StubService) GenerateVideo(ctx context.Context, prompt string, st settings.AppSettings, locale string, progress ProgressFunc) (string, error) {
	for _, status := range []string{"Warming up", "Rendering frames", "Encoding"} {
		if progress != nil {
			progress(status)
		}
		if err := s.wait(ctx); err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.videoCalls = append(s.videoCalls, prompt)
	if err, ok := s.FailPrompts[prompt]; ok {
		return "", &GenerationError{Provider: s.Name(), Op: "video", Err: err}
	}
	s.counter++
	return fmt.Sprintf("stub://video/%d", s.counter), nil
}

func (s *StubService) wait(ctx context.Context) error {
	if s.Delay == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.Delay):
		return nil
	}
}
