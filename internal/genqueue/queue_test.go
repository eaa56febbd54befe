package genqueue

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/atheneum/internal/article"
	"github.com/felixgeelhaar/atheneum/internal/generate"
	"github.com/felixgeelhaar/atheneum/internal/knowledge"
	"github.com/felixgeelhaar/atheneum/internal/notify"
	"github.com/felixgeelhaar/atheneum/internal/observe"
	"github.com/felixgeelhaar/atheneum/internal/settings"
	"github.com/felixgeelhaar/atheneum/internal/store"
)

type fixture struct {
	queue    *Queue
	stub     *generate.StubService
	mgr      *knowledge.Manager
	settings *settings.Service
	notifier *notify.Notifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tmpDir, _ := os.MkdirTemp("", "genqueue-test-*")
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	st, err := store.NewSQLiteStore(filepath.Join(tmpDir, "atheneum.db"))
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
		t.Fatalf("NewService failed: %v", err)
	}

	stub := generate.NewStubService()
	return &fixture{
		queue:    New(stub, mgr, set, nf, obs),
		stub:     stub,
		mgr:      mgr,
		settings: set,
		notifier: nf,
	}
}

func testDoc(sections int) *article.Document {
	doc := &article.Document{Title: "Volcanoes"}
	for i := 0; i < sections; i++ {
		doc.Sections = append(doc.Sections, article.Section{
			Heading:     "h",
			ImagePrompt: "prompt-" + string(rune('a'+i)),
		})
	}
	return doc
}

// disableAutoLoad keeps SetArticle from draining on its own so tests can
// drive the queue explicitly.
func disableAutoLoad(t *testing.T, f *fixture) {
	t.Helper()
	if err := f.settings.Update(func(s *settings.AppSettings) { s.AutoLoadImages = false }); err != nil {
		t.Fatalf("settings update failed: %v", err)
	}
}

func TestRequestImage_Dedup(t *testing.T) {
	f := newFixture(t)
	disableAutoLoad(t, f)
	f.stub.Delay = 50 * time.Millisecond

	doc := testDoc(2)
	f.queue.SetArticle(doc)
	f.queue.RequestImage(1)
	f.queue.RequestImage(1) // in flight or queued, must not double
	f.queue.RequestImage(1)
	f.queue.Wait()

	if calls := f.stub.ImageCalls(); len(calls) != 1 {
		t.Errorf("expected exactly one generation call, got %v", calls)
	}
	if doc.Sections[1].ImageURL == "" {
		t.Error("section 1 not patched")
	}
}

func TestRequestImage_InvalidIndex(t *testing.T) {
	f := newFixture(t)
	disableAutoLoad(t, f)

	f.queue.SetArticle(testDoc(2))
	f.queue.RequestImage(-1)
	f.queue.RequestImage(5)
	f.queue.Wait()

	if calls := f.stub.ImageCalls(); len(calls) != 0 {
		t.Errorf("expected no calls for invalid indices, got %v", calls)
	}
}

func TestRequestImage_AlreadyServedSection(t *testing.T) {
	f := newFixture(t)
	disableAutoLoad(t, f)

	doc := testDoc(2)
	doc.Sections[0].ImageURL = "blob:existing"
	f.queue.SetArticle(doc)
	f.queue.RequestImage(0)
	f.queue.Wait()

	if calls := f.stub.ImageCalls(); len(calls) != 0 {
		t.Errorf("section with media should not be regenerated, got %v", calls)
	}
}

func TestRequestAllMissing_Idempotent(t *testing.T) {
	f := newFixture(t)
	disableAutoLoad(t, f)
	f.stub.Delay = 20 * time.Millisecond

	doc := testDoc(3)
	doc.Sections[1].VideoURL = "blob:video" // served by video, not missing
	f.queue.SetArticle(doc)

	f.queue.RequestAllMissing()
	f.queue.RequestAllMissing() // repeat must not add duplicates
	f.queue.Wait()

	calls := f.stub.ImageCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls for the 2 missing sections, got %v", calls)
	}
	if doc.Sections[0].ImageURL == "" || doc.Sections[2].ImageURL == "" {
		t.Error("missing sections not patched")
	}
	if doc.Sections[1].ImageURL != "" {
		t.Error("section with video media should not have been generated")
	}
}

func TestQueue_FIFOOrder(t *testing.T) {
	f := newFixture(t)
	disableAutoLoad(t, f)
	f.stub.Delay = 30 * time.Millisecond

	doc := testDoc(3)
	f.queue.SetArticle(doc)
	f.queue.RequestImage(2)
	f.queue.RequestImage(0)
	f.queue.RequestImage(1)
	f.queue.Wait()

	calls := f.stub.ImageCalls()
	want := []string{doc.Sections[2].ImagePrompt, doc.Sections[0].ImagePrompt, doc.Sections[1].ImagePrompt}
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, calls)
		}
	}
}

func TestQueue_FailureIsolation(t *testing.T) {
	f := newFixture(t)
	disableAutoLoad(t, f)

	doc := testDoc(3)
	f.stub.FailPrompts = map[string]error{doc.Sections[1].ImagePrompt: errors.New("quota")}

	f.queue.SetArticle(doc)
	f.queue.RequestAllMissing()
	f.queue.Wait()

	if doc.Sections[0].ImageURL == "" || doc.Sections[2].ImageURL == "" {
		t.Error("failure of one item blocked its neighbors")
	}
	if doc.Sections[1].ImageURL != "" {
		t.Error("failed section should stay unpatched")
	}

	// Failed item is dropped, not retried: a fresh request is needed.
	if calls := f.stub.ImageCalls(); len(calls) != 3 {
		t.Errorf("expected exactly one attempt per item, got %v", calls)
	}

	var sawError bool
	for _, n := range f.notifier.Active() {
		if n.Kind == notify.KindError {
			sawError = true
		}
	}
	if !sawError {
		t.Error("expected an error notification naming the failed section")
	}
}

func TestQueue_SuccessFeedsImageLibrary(t *testing.T) {
	f := newFixture(t)
	disableAutoLoad(t, f)

	doc := testDoc(1)
	f.queue.SetArticle(doc)
	f.queue.RequestImage(0)
	f.queue.Wait()

	imgs := f.mgr.Images()
	if len(imgs) != 1 {
		t.Fatalf("expected 1 library entry, got %d", len(imgs))
	}
	if imgs[0].Topic != "Volcanoes" || imgs[0].Prompt != doc.Sections[0].ImagePrompt {
		t.Errorf("library entry not tagged with owning article: %+v", imgs[0])
	}
	if imgs[0].ImageURL != doc.Sections[0].ImageURL {
		t.Errorf("library URL does not match patched section: %+v", imgs[0])
	}
}

func TestQueue_ClearOnArticleChange(t *testing.T) {
	f := newFixture(t)
	disableAutoLoad(t, f)
	f.stub.Delay = 60 * time.Millisecond

	oldDoc := testDoc(3)
	f.queue.SetArticle(oldDoc)
	f.queue.RequestAllMissing()

	// Switch articles while the head is in flight. Queued items are
	// discarded; the in-flight result completes but is dropped.
	newDoc := &article.Document{Title: "Comets", Sections: []article.Section{{Heading: "h", ImagePrompt: "comet"}}}
	f.queue.SetArticle(newDoc)
	f.queue.RequestImage(0)
	f.queue.Wait()

	for i, sec := range oldDoc.Sections {
		if sec.ImageURL != "" {
			t.Errorf("old article section %d patched after article change", i)
		}
	}
	if newDoc.Sections[0].ImageURL == "" {
		t.Error("new article request did not complete")
	}

	// Only the new article's success lands in the library.
	imgs := f.mgr.Images()
	if len(imgs) != 1 || imgs[0].Topic != "Comets" {
		t.Errorf("stale result leaked into the library: %+v", imgs)
	}
}

func TestQueue_AutoDrainOnArticleLoad(t *testing.T) {
	f := newFixture(t)
	// AutoLoadImages defaults to true.

	doc := testDoc(2)
	f.queue.SetArticle(doc)
	f.queue.Wait()

	if calls := f.stub.ImageCalls(); len(calls) != 2 {
		t.Errorf("expected auto-drain of both sections, got %v", calls)
	}
}

func TestQueue_OnApplied(t *testing.T) {
	f := newFixture(t)
	disableAutoLoad(t, f)

	var got []int
	done := make(chan struct{})
	f.queue.OnApplied = func(section int, url string) {
		got = append(got, section)
		if len(got) == 2 {
			close(done)
		}
	}

	f.queue.SetArticle(testDoc(2))
	f.queue.RequestAllMissing()
	f.queue.Wait()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnApplied not called for both sections")
	}
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("unexpected callback order: %v", got)
	}
}
