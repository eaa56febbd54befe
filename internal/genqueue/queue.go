// Package genqueue drains "section needs an image" requests against the
// media generation service, strictly FIFO and one at a time. There is one
// global queue scoped to the active article; switching articles clears it.
package genqueue

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/atheneum/internal/article"
	"github.com/felixgeelhaar/atheneum/internal/generate"
	"github.com/felixgeelhaar/atheneum/internal/knowledge"
	"github.com/felixgeelhaar/atheneum/internal/notify"
	"github.com/felixgeelhaar/atheneum/internal/observe"
	"github.com/felixgeelhaar/atheneum/internal/settings"
	"github.com/felixgeelhaar/atheneum/internal/store"
)

// Queue holds section indices waiting for image generation. Concurrency is
// exactly one: a single in-flight marker, not a semaphore.
type Queue struct {
	// OnApplied, when set, is called after a generated image has been
	// patched into the active article. Useful for UI refresh.
	OnApplied func(section int, url string)

	media    generate.MediaService
	mgr      *knowledge.Manager
	settings *settings.Service
	notifier *notify.Notifier
	obs      *observe.Observer

	mu       sync.Mutex
	doc      *article.Document
	epoch    int // bumped on article change; stale results are dropped
	pending  []int
	inFlight int
	busy     bool
	wg       sync.WaitGroup
}

func New(media generate.MediaService, mgr *knowledge.Manager, set *settings.Service, nf *notify.Notifier, obs *observe.Observer) *Queue {
	return &Queue{
		media:    media,
		mgr:      mgr,
		settings: set,
		notifier: nf,
		obs:      obs,
		inFlight: -1,
	}
}

// SetArticle makes doc the active article. Queued work for the previous
// article is discarded; an in-flight generation runs to completion but its
// result is dropped. When auto-load is enabled, all sections missing media
// are enqueued immediately.
func (q *Queue) SetArticle(doc *article.Document) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.doc = doc
	q.epoch++
	q.pending = q.pending[:0]
	// An in-flight generation belongs to the previous article now; stop
	// reporting it and let its stale result be dropped on completion. The
	// busy flag still serializes against it.
	q.inFlight = -1

	if doc != nil && q.settings.Current().AutoLoadImages {
		for _, idx := range doc.MissingMedia() {
			q.enqueueLocked(idx)
		}
		q.startLocked()
	}
}

// RequestImage enqueues one section. Duplicate, in-flight, already-served
// and out-of-range indices are no-ops.
func (q *Queue) RequestImage(idx int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueueLocked(idx)
	q.startLocked()
}

// RequestAllMissing enqueues exactly the sections with a prompt and no
// media that are not already queued or in flight. Repeated calls are
// idempotent.
func (q *Queue) RequestAllMissing() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.doc == nil {
		return
	}
	for _, idx := range q.doc.MissingMedia() {
		q.enqueueLocked(idx)
	}
	q.startLocked()
}

// Pending returns the queued section indices in drain order, excluding the
// in-flight one.
func (q *Queue) Pending() []int {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]int, len(q.pending))
	copy(out, q.pending)
	return out
}

// InFlight returns the section index currently generating, or -1.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight
}

// Wait blocks until the queue has fully drained.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) enqueueLocked(idx int) {
	if q.doc == nil || idx < 0 || idx >= len(q.doc.Sections) {
		return
	}
	if !q.doc.Sections[idx].NeedsMedia() {
		return
	}
	if q.inFlight == idx {
		return
	}
	for _, p := range q.pending {
		if p == idx {
			return
		}
	}
	q.pending = append(q.pending, idx)
}

// startLocked pops the head and launches its generation unless something
// is already in flight.
func (q *Queue) startLocked() {
	if q.busy || len(q.pending) == 0 || q.doc == nil {
		return
	}

	idx := q.pending[0]
	q.pending = q.pending[1:]
	q.busy = true
	q.inFlight = idx

	prompt := q.doc.Sections[idx].ImagePrompt
	epoch := q.epoch
	st := q.settings.Current()

	q.wg.Add(1)
	go q.process(epoch, idx, prompt, st)
}

func (q *Queue) process(epoch, idx int, prompt string, st settings.AppSettings) {
	defer q.wg.Done()
	url, err := q.media.GenerateImage(context.Background(), prompt, st, st.Language)
	q.complete(epoch, idx, prompt, url, err)
}

// complete applies one outcome. The head is always cleared regardless of
// outcome, and the next item starts immediately. A result from a previous
// article epoch is dropped without any notification.
func (q *Queue) complete(epoch, idx int, prompt, url string, genErr error) {
	q.mu.Lock()
	q.inFlight = -1
	q.busy = false

	stale := epoch != q.epoch
	applied := false
	var topic string
	if !stale && genErr == nil && q.doc != nil {
		applied = q.doc.SetSectionImage(idx, url)
		topic = q.doc.Title
	}
	q.startLocked()
	onApplied := q.OnApplied
	q.mu.Unlock()

	switch {
	case stale:
		q.obs.Log().Debug().Int("section", idx).Msg("dropped image result for a previous article")
	case genErr != nil:
		q.obs.Log().Error().Err(genErr).Int("section", idx).Msg("image generation failed")
		q.notifier.Error(fmt.Sprintf("Image generation failed for section %d", idx+1))
	case applied:
		if _, err := q.mgr.AddImageToLibrary(store.Image{ImageURL: url, Prompt: prompt, Topic: topic}); err != nil {
			q.obs.Log().Error().Err(err).Msg("failed to add generated image to library")
		}
		if onApplied != nil {
			onApplied(idx, url)
		}
	}
}
