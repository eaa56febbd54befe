package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/atheneum/internal/article"
)

type TUI struct {
	program *tea.Program
}

func NewTUI(p *tea.Program) *TUI {
	return &TUI{program: p}
}

func (t *TUI) UpdateStatus(status string) {
	t.program.Send(StatusMsg(status))
}

func (t *TUI) SectionMedia(section int, url string) {
	t.program.Send(SectionMediaMsg{Section: section, URL: url})
}

func (t *TUI) Log(msg string) {
	t.program.Send(LogMsg(msg))
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#AFAFFF"))

	mediaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5F87AF")).
			Italic(true)
)

type Model struct {
	Status   string
	Article  *article.Document
	Log      []string
	Progress progress.Model
	Viewport viewport.Model
	Quitting bool
	Ready    bool
	Width    int
	Height   int
}

type LogMsg string
type StatusMsg string

// SectionMediaMsg reports a freshly generated media reference for one
// section of the active article.
type SectionMediaMsg struct {
	Section int
	URL     string
}

// ArticleMsg replaces the active article.
type ArticleMsg *article.Document

func NewModel() Model {
	p := progress.New(progress.WithDefaultGradient())
	return Model{
		Status:   "Initializing...",
		Progress: p,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			m.Quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		if !m.Ready {
			m.Viewport = viewport.New(msg.Width, msg.Height-8)
			m.Ready = true
		} else {
			m.Viewport.Width = msg.Width
			m.Viewport.Height = msg.Height - 8
		}
		m.refreshContent()

	case ArticleMsg:
		m.Article = msg
		m.refreshContent()

	case SectionMediaMsg:
		if m.Article != nil && m.Article.SetSectionImage(msg.Section, msg.URL) {
			m.refreshContent()
		}

	case LogMsg:
		m.Log = append(m.Log, string(msg))

	case StatusMsg:
		m.Status = string(msg)
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) refreshContent() {
	if !m.Ready {
		return
	}
	m.Viewport.SetContent(RenderArticle(m.Article))
}

// mediaProgress reports how many sections that want media already have it.
func (m Model) mediaProgress() (done, total int) {
	if m.Article == nil {
		return 0, 0
	}
	for _, sec := range m.Article.Sections {
		if sec.ImagePrompt == "" {
			continue
		}
		total++
		if !sec.NeedsMedia() {
			done++
		}
	}
	return done, total
}

func (m Model) View() string {
	if !m.Ready {
		return "\n  Initializing..."
	}

	title := "Atheneum"
	if m.Article != nil {
		title = m.Article.Title
	}
	header := titleStyle.Render(" " + title + " ")
	status := infoStyle.Render(fmt.Sprintf(" %s ", m.Status))

	view := fmt.Sprintf("%s%s\n\n%s", header, status, m.Viewport.View())

	if done, total := m.mediaProgress(); total > 0 {
		view += fmt.Sprintf("\n\n%s %d/%d images", m.Progress.ViewAs(float64(done)/float64(total)), done, total)
	}
	if n := len(m.Log); n > 0 {
		view += "\n" + m.Log[n-1]
	}
	if m.Quitting {
		return view + "\n  Quitting...\n"
	}

	return view
}

// RenderArticle lays out an article document as plain styled text.
func RenderArticle(doc *article.Document) string {
	if doc == nil {
		return "No article loaded. Search a topic to begin."
	}

	var sb strings.Builder
	if doc.Introduction != "" {
		sb.WriteString(doc.Introduction)
		sb.WriteString("\n\n")
	}
	for _, sec := range doc.Sections {
		sb.WriteString(headingStyle.Render(sec.Heading))
		sb.WriteString("\n")
		sb.WriteString(sec.Content)
		sb.WriteString("\n")
		switch {
		case sec.VideoURL != "":
			sb.WriteString(mediaStyle.Render("[video] " + sec.VideoURL))
			sb.WriteString("\n")
		case sec.ImageURL != "":
			sb.WriteString(mediaStyle.Render("[image] " + sec.ImageURL))
			sb.WriteString("\n")
		case sec.ImagePrompt != "":
			sb.WriteString(mediaStyle.Render("[image pending]"))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	if doc.Conclusion != "" {
		sb.WriteString(doc.Conclusion)
		sb.WriteString("\n")
	}
	if len(doc.Timeline) > 0 {
		sb.WriteString("\n")
		sb.WriteString(headingStyle.Render("Timeline"))
		sb.WriteString("\n")
		for _, ev := range doc.Timeline {
			fmt.Fprintf(&sb, "%s  %s\n", ev.Date, ev.Event)
		}
	}
	return sb.String()
}
