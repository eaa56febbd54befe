package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/atheneum/internal/backup"
	"github.com/felixgeelhaar/atheneum/internal/generate"
	"github.com/felixgeelhaar/atheneum/internal/genqueue"
	"github.com/felixgeelhaar/atheneum/internal/knowledge"
	"github.com/felixgeelhaar/atheneum/internal/notify"
	"github.com/felixgeelhaar/atheneum/internal/observe"
	"github.com/felixgeelhaar/atheneum/internal/settings"
	"github.com/felixgeelhaar/atheneum/internal/store"
)

type world struct {
	store    store.Storage
	mgr      *knowledge.Manager
	settings *settings.Service
	backup   *backup.Service
	notifier *notify.Notifier
	obs      *observe.Observer
	stub     *generate.StubService
	queue    *genqueue.Queue
}

func newWorld(t *testing.T, dir string) *world {
	t.Helper()
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	st, err := store.NewSQLiteStore(filepath.Join(dir, "atheneum.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	nf := notify.New()
	obs := observe.New(os.Stdout, false)
	mgr, err := knowledge.NewManager(st, nf, obs)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	set, err := settings.NewService(st)
	if err != nil {
		t.Fatalf("settings.NewService failed: %v", err)
	}

	stub := generate.NewStubService()
	return &world{
		store:    st,
		mgr:      mgr,
		settings: set,
		backup:   backup.NewService(mgr, set, nf, obs),
		notifier: nf,
		obs:      obs,
		stub:     stub,
		queue:    genqueue.New(stub, mgr, set, nf, obs),
	}
}

// TestFullLifecycle walks the whole system: read a topic, let the queue
// drain its images, accumulate bookmarks/paths/snapshots, export a backup,
// wipe everything, and restore it.
func TestFullLifecycle(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "e2e-test-*")
	defer os.RemoveAll(tmpDir)

	w := newWorld(t, filepath.Join(tmpDir, "a"))

	ctx := context.Background()
	st := w.settings.Current()

	// Read an article; auto-load drains the queue.
	doc, err := w.stub.GenerateArticle(ctx, "Port of Rotterdam", st, st.Language)
	if err != nil {
		t.Fatalf("GenerateArticle failed: %v", err)
	}
	w.mgr.RecordSearch("Port of Rotterdam")
	w.queue.SetArticle(doc)
	w.queue.RequestAllMissing()
	w.queue.Wait()

	if missing := doc.MissingMedia(); len(missing) != 0 {
		t.Fatalf("queue did not drain, still missing %v", missing)
	}
	if imgs := w.mgr.Images(); len(imgs) != len(doc.Sections) {
		t.Fatalf("expected %d library images, got %d", len(doc.Sections), len(imgs))
	}

	// Accumulate artifacts.
	w.mgr.ToggleBookmark("Port of Rotterdam")
	w.mgr.CreateLearningPath("Maritime history")
	w.mgr.AddArticleToPath("Maritime history", "Port of Rotterdam")
	w.mgr.AddArticleToPath("Maritime history", "Hanseatic League")
	w.mgr.ToggleArticleCompletion("Maritime history", "Port of Rotterdam")
	w.mgr.SaveSnapshot(store.Snapshot{
		Name:    "rotterdam session",
		Topic:   "Port of Rotterdam",
		Article: *doc,
	})
	w.mgr.Flush()

	// Export, then destroy all local state.
	backupPath := filepath.Join(tmpDir, "backup.json")
	if _, err := w.backup.ExportToFile(backupPath); err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	for _, c := range []knowledge.Collection{
		knowledge.CollectionHistory,
		knowledge.CollectionBookmarks,
		knowledge.CollectionPaths,
		knowledge.CollectionSnapshots,
		knowledge.CollectionImages,
	} {
		if err := w.mgr.ClearCollection(c); err != nil {
			t.Fatalf("ClearCollection(%s) failed: %v", c, err)
		}
	}
	w.mgr.Flush()
	if len(w.mgr.History()) != 0 || len(w.mgr.Images()) != 0 {
		t.Fatal("clear did not empty the collections")
	}

	// Restore and verify everything came back.
	if err := w.backup.ImportFromFile(backupPath); err != nil {
		t.Fatalf("ImportFromFile failed: %v", err)
	}

	if h := w.mgr.History(); len(h) != 1 || h[0].Topic != "Port of Rotterdam" {
		t.Errorf("history not restored: %+v", h)
	}
	if !w.mgr.IsBookmarked("Port of Rotterdam") {
		t.Error("bookmark not restored")
	}
	path, ok := w.mgr.Path("Maritime history")
	if !ok || len(path.Articles) != 2 {
		t.Fatalf("learning path not restored: %+v", path)
	}
	if !path.Articles[0].Completed || path.Articles[1].Completed {
		t.Errorf("completion flags not restored: %+v", path.Articles)
	}
	snap, ok := w.mgr.Snapshot("rotterdam session")
	if !ok {
		t.Fatal("snapshot not restored")
	}
	if len(snap.Article.Sections) != len(doc.Sections) {
		t.Errorf("snapshot article truncated: %d sections", len(snap.Article.Sections))
	}
	for i, sec := range snap.Article.Sections {
		if sec.ImageURL == "" {
			t.Errorf("restored snapshot section %d lost its image", i)
		}
	}
	if imgs := w.mgr.Images(); len(imgs) != len(doc.Sections) {
		t.Errorf("image library not restored: %d images", len(imgs))
	}

	// The restored store survives a fresh manager over the same database.
	m2, err := knowledge.NewManager(w.store, notify.New(), w.obs)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(m2.History()) != 1 || len(m2.Images()) != len(doc.Sections) {
		t.Error("restored state not durable across managers")
	}
}

// TestRestoreIntoFreshInstall imports a backup from one installation into
// a brand new one, the cross-device migration flow.
func TestRestoreIntoFreshInstall(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "e2e-migrate-*")
	defer os.RemoveAll(tmpDir)
	os.MkdirAll(filepath.Join(tmpDir, "old"), 0700)
	os.MkdirAll(filepath.Join(tmpDir, "new"), 0700)

	old := newWorld(t, filepath.Join(tmpDir, "old"))
	old.mgr.RecordSearch("Dark matter")
	old.mgr.ToggleBookmark("Dark matter")
	if err := old.settings.Update(func(s *settings.AppSettings) {
		s.Language = "nl"
		s.ImageStyle = "watercolor"
	}); err != nil {
		t.Fatalf("settings update failed: %v", err)
	}
	old.mgr.Flush()

	backupPath := filepath.Join(tmpDir, "move.yaml")
	if _, err := old.backup.ExportToFile(backupPath); err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	fresh := newWorld(t, filepath.Join(tmpDir, "new"))
	if err := fresh.backup.ImportFromFile(backupPath); err != nil {
		t.Fatalf("ImportFromFile failed: %v", err)
	}

	if got := fresh.settings.Current(); got.Language != "nl" || got.ImageStyle != "watercolor" {
		t.Errorf("settings not migrated: %+v", got)
	}
	if !fresh.mgr.IsBookmarked("Dark matter") {
		t.Error("bookmark not migrated")
	}
	if h := fresh.mgr.History(); len(h) != 1 || h[0].Topic != "Dark matter" {
		t.Errorf("history not migrated: %+v", h)
	}
}
