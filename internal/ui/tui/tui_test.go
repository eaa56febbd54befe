package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/atheneum/internal/article"
)

func testDoc() *article.Document {
	return &article.Document{
		Title:        "Tides",
		Introduction: "Why the sea moves.",
		Sections: []article.Section{
			{Heading: "Gravity", Content: "The moon pulls.", ImagePrompt: "moon over sea"},
			{Heading: "Springs", Content: "Twice a month.", ImagePrompt: "spring tide", ImageURL: "blob:1"},
		},
		Conclusion: "The sea keeps moving.",
		Timeline:   []article.TimelineEvent{{Date: "1687", Event: "Newton explains tides"}},
	}
}

func TestRenderArticle(t *testing.T) {
	out := RenderArticle(testDoc())
	for _, want := range []string{"Why the sea moves.", "Gravity", "[image pending]", "[image] blob:1", "Timeline", "1687"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered article missing %q", want)
		}
	}

	if out := RenderArticle(nil); !strings.Contains(out, "No article loaded") {
		t.Errorf("unexpected empty render: %q", out)
	}
}

func TestModel_SectionMediaMsg(t *testing.T) {
	m := NewModel()
	var model tea.Model = m
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	model, _ = model.Update(ArticleMsg(testDoc()))
	model, _ = model.Update(SectionMediaMsg{Section: 0, URL: "blob:new"})

	got := model.(Model)
	if got.Article.Sections[0].ImageURL != "blob:new" {
		t.Errorf("section media not applied: %+v", got.Article.Sections[0])
	}

	done, total := got.mediaProgress()
	if done != 2 || total != 2 {
		t.Errorf("expected 2/2 media progress, got %d/%d", done, total)
	}
}
