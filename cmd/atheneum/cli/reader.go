package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/atheneum/internal/article"
	"github.com/felixgeelhaar/atheneum/internal/generate"
	"github.com/felixgeelhaar/atheneum/internal/genqueue"
	"github.com/felixgeelhaar/atheneum/internal/settings"
	"github.com/felixgeelhaar/atheneum/internal/store"
	"github.com/felixgeelhaar/atheneum/internal/ui"
	"github.com/felixgeelhaar/atheneum/internal/ui/tui"
)

// Reader drives one read session: generate the article, record the visit,
// drain the media queue, and optionally capture a snapshot.
type Reader struct {
	App     *app
	Article generate.ArticleService
	Media   generate.MediaService
	Topic   string
	UI      ui.UI
	Program *tea.Program

	SnapshotName string
	VideoSection int // 1-based, 0 means none
}

func NewReader(a *app, art generate.ArticleService, media generate.MediaService, topic string) *Reader {
	return &Reader{
		App:     a,
		Article: art,
		Media:   media,
		Topic:   topic,
		UI:      ui.SilentUI{},
	}
}

func (r *Reader) Run(ctx context.Context) error {
	ctx, span := r.App.obs.StartTopicSpan(ctx, "read", r.Topic)
	defer span.End()

	r.UI.UpdateStatus("Generating article...")
	r.App.obs.Log().Info().Str("topic", r.Topic).Str("provider", r.Article.Name()).Msg("generating article")

	st := r.App.settings.Current()
	doc, err := r.Article.GenerateArticle(ctx, r.Topic, st, st.Language)
	if err != nil {
		r.UI.UpdateStatus("Generation failed")
		r.App.obs.Log().Error().Err(err).Msg("article generation failed")
		r.App.notifier.Error(fmt.Sprintf("Could not generate an article about %q", r.Topic))
		return err
	}

	r.App.mgr.RecordSearch(r.Topic)
	if r.Program != nil {
		r.Program.Send(tui.ArticleMsg(doc))
	}

	if r.Media != nil {
		r.UI.UpdateStatus("Generating images...")
		queue := genqueue.New(r.Media, r.App.mgr, r.App.settings, r.App.notifier, r.App.obs)
		queue.OnApplied = func(section int, url string) {
			r.UI.SectionMedia(section, url)
		}
		queue.SetArticle(doc)
		// Idempotent when auto-load already populated the queue.
		queue.RequestAllMissing()
		queue.Wait()
	}

	if r.VideoSection > 0 && r.Media != nil {
		r.generateVideo(ctx, doc, r.VideoSection-1, st)
	}

	if r.SnapshotName != "" {
		r.App.mgr.SaveSnapshot(store.Snapshot{
			Name:    r.SnapshotName,
			Topic:   r.Topic,
			Article: *doc,
		})
	}

	if r.Program == nil {
		fmt.Println(tui.RenderArticle(doc))
	}
	r.UI.UpdateStatus("Done")
	return nil
}

func (r *Reader) generateVideo(ctx context.Context, doc *article.Document, idx int, st settings.AppSettings) {
	if idx < 0 || idx >= len(doc.Sections) {
		r.App.notifier.Error(fmt.Sprintf("No section %d to generate a video for", idx+1))
		return
	}

	r.UI.UpdateStatus("Generating video...")
	url, err := r.Media.GenerateVideo(ctx, doc.Sections[idx].ImagePrompt, st, st.Language, func(status string) {
		r.UI.UpdateStatus(status)
	})
	if err != nil {
		r.App.obs.Log().Error().Err(err).Int("section", idx).Msg("video generation failed")
		r.App.notifier.Error(fmt.Sprintf("Video generation failed for section %d", idx+1))
		return
	}
	doc.SetSectionVideo(idx, url)
	r.UI.SectionMedia(idx, url)
}
