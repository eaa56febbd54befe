// Package knowledge implements the knowledge store manager: the sole
// writer over the five user-owned collections (history, bookmarks,
// learning paths, snapshots, image library).
//
// Write policy: list-backed collections mutate the in-memory view
// synchronously and persist in the background, one ordered worker per
// collection, with failures surfaced as error notifications;
// image-library operations require the durable write to succeed before
// the in-memory view changes.
package knowledge

import (
	"fmt"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/felixgeelhaar/atheneum/internal/notify"
	"github.com/felixgeelhaar/atheneum/internal/observe"
	"github.com/felixgeelhaar/atheneum/internal/store"
)

// HistoryCap is the maximum number of history entries kept; older entries
// beyond the cap are dropped.
const HistoryCap = 100

// Collection names one of the user-owned collections for bulk operations.
type Collection string

const (
	CollectionHistory   Collection = "history"
	CollectionBookmarks Collection = "bookmarks"
	CollectionPaths     Collection = "paths"
	CollectionSnapshots Collection = "snapshots"
	CollectionImages    Collection = "images"
)

// Manager guards the in-memory view of all collections and keeps the
// durable store trailing it.
type Manager struct {
	mu       sync.Mutex
	store    store.Storage
	notifier *notify.Notifier
	obs      *observe.Observer

	history   []store.HistoryEntry
	bookmarks []string
	paths     []store.LearningPath
	snapshots []store.Snapshot
	images    []store.Image

	persisters map[string]*persister
	persists   sync.WaitGroup
	now        func() time.Time
}

// persister serializes the background saves of one collection. Saves
// coalesce: a snapshot scheduled while an older one is still writing
// replaces any queued snapshot, so the worker always writes the latest
// view and the durable copy can never regress to an older one.
type persister struct {
	mu      sync.Mutex
	running bool
	next    func() error
}

// NewManager loads every collection from the store.
func NewManager(st store.Storage, nf *notify.Notifier, obs *observe.Observer) (*Manager, error) {
	m := &Manager{
		store:    st,
		notifier: nf,
		obs:      obs,
		now:      time.Now,
		persisters: map[string]*persister{
			"history":        {},
			"bookmarks":      {},
			"learning paths": {},
			"snapshots":      {},
		},
	}

	var err error
	if m.history, err = st.LoadHistory(); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if m.bookmarks, err = st.LoadBookmarks(); err != nil {
		return nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}
	if m.paths, err = st.LoadPaths(); err != nil {
		return nil, fmt.Errorf("failed to load learning paths: %w", err)
	}
	if m.snapshots, err = st.LoadSnapshots(); err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	if m.images, err = st.ListImages(); err != nil {
		return nil, fmt.Errorf("failed to load image library: %w", err)
	}
	return m, nil
}

// Flush blocks until every background persist has finished. Tests and
// process shutdown use it; normal operation never waits.
func (m *Manager) Flush() {
	m.persists.Wait()
}

// persistAsync schedules fn on the collection's persister worker; a
// failure becomes an error notification rather than rolling back the
// in-memory view. One worker per collection keeps saves ordered.
func (m *Manager) persistAsync(what string, fn func() error) {
	p := m.persisters[what]
	p.mu.Lock()
	p.next = fn
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	m.persists.Add(1)
	go func() {
		defer m.persists.Done()
		for {
			p.mu.Lock()
			save := p.next
			p.next = nil
			if save == nil {
				p.running = false
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
			if err := save(); err != nil {
				m.obs.Log().Error().Str("collection", what).Err(err).Msg("persist failed")
				m.notifier.Error(fmt.Sprintf("Failed to save %s", what))
			}
		}
	}()
}

func (m *Manager) timestamp() int64 {
	return m.now().UnixMilli()
}

// History

// RecordSearch inserts topic at the head of the history. Re-searching an
// existing topic neither duplicates nor reorders it; the list is capped at
// HistoryCap with the oldest entries dropped.
func (m *Manager) RecordSearch(topic string) {
	if topic == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.history {
		if e.Topic == topic {
			return
		}
	}
	entries := make([]store.HistoryEntry, 0, len(m.history)+1)
	entries = append(entries, store.HistoryEntry{Topic: topic, Timestamp: m.timestamp()})
	entries = append(entries, m.history...)
	if len(entries) > HistoryCap {
		entries = entries[:HistoryCap]
	}
	m.history = entries

	snapshot := cloneSlice(m.history)
	m.persistAsync("history", func() error { return m.store.SaveHistory(snapshot) })
}

// History returns a copy of the history list, most recent first.
func (m *Manager) History() []store.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSlice(m.history)
}

// ClearHistoryMatching removes entries whose topic matches the glob
// pattern and returns how many were removed. "*" clears everything.
func (m *Manager) ClearHistoryMatching(pattern string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.history[:0]
	removed := 0
	for _, e := range m.history {
		if ok, _ := doublestar.Match(pattern, e.Topic); ok {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0
	}
	m.history = kept
	snapshot := cloneSlice(m.history)
	m.persistAsync("history", func() error { return m.store.SaveHistory(snapshot) })
	return removed
}

// Bookmarks

// ToggleBookmark adds the topic if absent (at the head) or removes it if
// present, and reports whether it is now bookmarked.
func (m *Manager) ToggleBookmark(topic string) bool {
	if topic == "" {
		return false
	}
	m.mu.Lock()

	added := true
	for i, t := range m.bookmarks {
		if t == topic {
			m.bookmarks = append(m.bookmarks[:i], m.bookmarks[i+1:]...)
			added = false
			break
		}
	}
	if added {
		m.bookmarks = append([]string{topic}, m.bookmarks...)
	}
	snapshot := cloneSlice(m.bookmarks)
	m.persistAsync("bookmarks", func() error { return m.store.SaveBookmarks(snapshot) })
	m.mu.Unlock()

	if added {
		m.notifier.Success(fmt.Sprintf("Bookmarked %q", topic))
	} else {
		m.notifier.Info(fmt.Sprintf("Removed bookmark %q", topic))
	}
	return added
}

// IsBookmarked reports whether the topic is currently bookmarked.
func (m *Manager) IsBookmarked(topic string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.bookmarks {
		if t == topic {
			return true
		}
	}
	return false
}

// Bookmarks returns a copy of the bookmark list, most recent first.
func (m *Manager) Bookmarks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSlice(m.bookmarks)
}

// Learning paths

// CreateLearningPath creates an empty path. Creating a path whose name
// already exists is a no-op.
func (m *Manager) CreateLearningPath(name string) {
	if name == "" {
		return
	}
	m.mu.Lock()
	if m.findPath(name) >= 0 {
		m.mu.Unlock()
		m.notifier.Info(fmt.Sprintf("Learning path %q already exists", name))
		return
	}
	m.paths = append(m.paths, store.LearningPath{Name: name})
	m.persistPathsLocked()
	m.mu.Unlock()
	m.notifier.Success(fmt.Sprintf("Created learning path %q", name))
}

// AddArticleToPath appends {title, completed: false} to the path. Adding a
// title that is already a member is a no-op.
func (m *Manager) AddArticleToPath(pathName, articleTitle string) {
	if articleTitle == "" {
		return
	}
	m.mu.Lock()
	i := m.findPath(pathName)
	if i < 0 {
		m.mu.Unlock()
		m.notifier.Error(fmt.Sprintf("No learning path named %q", pathName))
		return
	}
	for _, a := range m.paths[i].Articles {
		if a.Title == articleTitle {
			m.mu.Unlock()
			m.notifier.Info(fmt.Sprintf("%q is already in %q", articleTitle, pathName))
			return
		}
	}
	m.paths[i].Articles = append(m.paths[i].Articles, store.PathArticle{Title: articleTitle})
	m.persistPathsLocked()
	m.mu.Unlock()
	m.notifier.Success(fmt.Sprintf("Added %q to %q", articleTitle, pathName))
}

// ReorderArticlesInPath moves the article at fromIndex to toIndex within
// the path. Out-of-bounds indices make the call a no-op. Completion flags
// travel with their entries.
func (m *Manager) ReorderArticlesInPath(pathName string, fromIndex, toIndex int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.findPath(pathName)
	if i < 0 {
		return
	}
	if !Reorder(m.paths[i].Articles, fromIndex, toIndex) {
		return
	}
	m.persistPathsLocked()
}

// ToggleArticleCompletion flips the completed flag of the matching entry;
// no-op if the title is not a member.
func (m *Manager) ToggleArticleCompletion(pathName, articleTitle string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.findPath(pathName)
	if i < 0 {
		return
	}
	for j := range m.paths[i].Articles {
		if m.paths[i].Articles[j].Title == articleTitle {
			m.paths[i].Articles[j].Completed = !m.paths[i].Articles[j].Completed
			m.persistPathsLocked()
			return
		}
	}
}

// RemoveArticleFromPath removes the matching entry and notifies only when
// a removal actually occurred.
func (m *Manager) RemoveArticleFromPath(pathName, articleTitle string) {
	m.mu.Lock()
	i := m.findPath(pathName)
	if i < 0 {
		m.mu.Unlock()
		return
	}
	removed := false
	for j, a := range m.paths[i].Articles {
		if a.Title == articleTitle {
			m.paths[i].Articles = append(m.paths[i].Articles[:j], m.paths[i].Articles[j+1:]...)
			removed = true
			break
		}
	}
	if removed {
		m.persistPathsLocked()
	}
	m.mu.Unlock()
	if removed {
		m.notifier.Success(fmt.Sprintf("Removed %q from %q", articleTitle, pathName))
	}
}

// DeleteLearningPath removes the whole path. Confirmation is the caller's
// concern.
func (m *Manager) DeleteLearningPath(name string) {
	m.mu.Lock()
	i := m.findPath(name)
	if i < 0 {
		m.mu.Unlock()
		return
	}
	m.paths = append(m.paths[:i], m.paths[i+1:]...)
	m.persistPathsLocked()
	m.mu.Unlock()
	m.notifier.Success(fmt.Sprintf("Deleted learning path %q", name))
}

// Paths returns a deep copy of all learning paths.
func (m *Manager) Paths() []store.LearningPath {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clonePaths(m.paths)
}

// Path returns a deep copy of one path by name.
func (m *Manager) Path(name string) (store.LearningPath, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.findPath(name)
	if i < 0 {
		return store.LearningPath{}, false
	}
	p := m.paths[i]
	p.Articles = cloneSlice(p.Articles)
	return p, true
}

// findPath returns the index of the named path. Callers hold the lock.
func (m *Manager) findPath(name string) int {
	for i, p := range m.paths {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// persistPathsLocked schedules a background save of a deep copy of the
// current paths. Callers hold the lock.
func (m *Manager) persistPathsLocked() {
	snapshot := clonePaths(m.paths)
	m.persistAsync("learning paths", func() error { return m.store.SavePaths(snapshot) })
}

// Snapshots

// SaveSnapshot inserts the snapshot at the head. An empty name or a
// snapshot without an article is treated as a cancelled action: silent
// no-op, no notification. Saving under an existing name overwrites it.
func (m *Manager) SaveSnapshot(snap store.Snapshot) {
	if snap.Name == "" || snap.Article.Title == "" {
		return
	}
	snap.Timestamp = m.timestamp()
	snap.Article.Sections = cloneSlice(snap.Article.Sections)
	snap.RelatedTopics = cloneSlice(snap.RelatedTopics)
	snap.ChatHistory = cloneSlice(snap.ChatHistory)

	m.mu.Lock()
	for i, existing := range m.snapshots {
		if existing.Name == snap.Name {
			m.snapshots = append(m.snapshots[:i], m.snapshots[i+1:]...)
			break
		}
	}
	m.snapshots = append([]store.Snapshot{snap}, m.snapshots...)
	snapshot := cloneSlice(m.snapshots)
	m.persistAsync("snapshots", func() error { return m.store.SaveSnapshots(snapshot) })
	m.mu.Unlock()

	m.notifier.Success(fmt.Sprintf("Saved snapshot %q", snap.Name))
}

// DeleteSnapshot removes the named snapshot; no-op if absent.
func (m *Manager) DeleteSnapshot(name string) {
	m.mu.Lock()
	removed := false
	for i, snap := range m.snapshots {
		if snap.Name == name {
			m.snapshots = append(m.snapshots[:i], m.snapshots[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		snapshot := cloneSlice(m.snapshots)
		m.persistAsync("snapshots", func() error { return m.store.SaveSnapshots(snapshot) })
	}
	m.mu.Unlock()
	if removed {
		m.notifier.Success(fmt.Sprintf("Deleted snapshot %q", name))
	}
}

// Snapshots returns a copy of all snapshots, most recent first.
func (m *Manager) Snapshots() []store.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSlice(m.snapshots)
}

// Snapshot returns the named snapshot.
func (m *Manager) Snapshot(name string) (store.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, snap := range m.snapshots {
		if snap.Name == name {
			return snap, true
		}
	}
	return store.Snapshot{}, false
}

// Image library

// AddImageToLibrary stores the image durably, then updates the in-memory
// view. The store assigns the final id (timestamp-derived, bumped on
// collision). A persistence failure leaves the in-memory view untouched.
func (m *Manager) AddImageToLibrary(img store.Image) (store.Image, error) {
	if img.Timestamp == 0 {
		img.Timestamp = m.timestamp()
	}
	id, err := m.store.AddImage(img)
	if err != nil {
		m.obs.Log().Error().Str("topic", img.Topic).Err(err).Msg("failed to store image")
		m.notifier.Error("Failed to save image to library")
		return store.Image{}, err
	}
	img.ID = id

	m.mu.Lock()
	m.images = append([]store.Image{img}, m.images...)
	m.mu.Unlock()
	return img, nil
}

// DeleteImage removes one image, durable write first.
func (m *Manager) DeleteImage(id int64) error {
	if err := m.store.DeleteImage(id); err != nil {
		m.notifier.Error("Failed to delete image")
		return err
	}
	m.mu.Lock()
	for i, img := range m.images {
		if img.ID == id {
			m.images = append(m.images[:i], m.images[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	m.notifier.Success("Image deleted")
	return nil
}

// Images returns the cached library view, newest first.
func (m *Manager) Images() []store.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSlice(m.images)
}

// RefreshImages re-reads the library from the durable store, bypassing the
// cache, and makes the fresh view current. Export uses this.
func (m *Manager) RefreshImages() ([]store.Image, error) {
	imgs, err := m.store.ListImages()
	if err != nil {
		return nil, fmt.Errorf("failed to read image library: %w", err)
	}
	m.mu.Lock()
	m.images = imgs
	m.mu.Unlock()
	return cloneSlice(imgs), nil
}

// ImagesMatching returns the cached images whose topic matches the glob
// pattern.
func (m *Manager) ImagesMatching(pattern string) []store.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Image
	for _, img := range m.images {
		if ok, _ := doublestar.Match(pattern, img.Topic); ok {
			out = append(out, img)
		}
	}
	return out
}

// Bulk operations

// ClearCollection empties one collection and always notifies. Image
// clearing is durable-first; list collections clear the view immediately
// and persist in the background.
func (m *Manager) ClearCollection(c Collection) error {
	switch c {
	case CollectionImages:
		if err := m.store.ClearImages(); err != nil {
			m.notifier.Error("Failed to clear image library")
			return err
		}
		m.mu.Lock()
		m.images = nil
		m.mu.Unlock()
	case CollectionHistory:
		m.mu.Lock()
		m.history = nil
		m.persistAsync("history", func() error { return m.store.SaveHistory(nil) })
		m.mu.Unlock()
	case CollectionBookmarks:
		m.mu.Lock()
		m.bookmarks = nil
		m.persistAsync("bookmarks", func() error { return m.store.SaveBookmarks(nil) })
		m.mu.Unlock()
	case CollectionPaths:
		m.mu.Lock()
		m.paths = nil
		m.persistAsync("learning paths", func() error { return m.store.SavePaths(nil) })
		m.mu.Unlock()
	case CollectionSnapshots:
		m.mu.Lock()
		m.snapshots = nil
		m.persistAsync("snapshots", func() error { return m.store.SaveSnapshots(nil) })
		m.mu.Unlock()
	default:
		return fmt.Errorf("unknown collection: %s", c)
	}
	m.notifier.Success(fmt.Sprintf("Cleared %s", c))
	return nil
}

// Wholesale replacement, used by restore. These persist synchronously so
// the importer can surface the failing step.

func (m *Manager) ReplaceHistory(entries []store.HistoryEntry) error {
	if err := m.store.SaveHistory(entries); err != nil {
		return fmt.Errorf("failed to replace history: %w", err)
	}
	m.mu.Lock()
	m.history = cloneSlice(entries)
	m.mu.Unlock()
	return nil
}

func (m *Manager) ReplaceBookmarks(topics []string) error {
	if err := m.store.SaveBookmarks(topics); err != nil {
		return fmt.Errorf("failed to replace bookmarks: %w", err)
	}
	m.mu.Lock()
	m.bookmarks = cloneSlice(topics)
	m.mu.Unlock()
	return nil
}

func (m *Manager) ReplacePaths(paths []store.LearningPath) error {
	if err := m.store.SavePaths(paths); err != nil {
		return fmt.Errorf("failed to replace learning paths: %w", err)
	}
	m.mu.Lock()
	m.paths = clonePaths(paths)
	m.mu.Unlock()
	return nil
}

func (m *Manager) ReplaceSnapshots(snaps []store.Snapshot) error {
	if err := m.store.SaveSnapshots(snaps); err != nil {
		return fmt.Errorf("failed to replace snapshots: %w", err)
	}
	m.mu.Lock()
	m.snapshots = cloneSlice(snaps)
	m.mu.Unlock()
	return nil
}

func (m *Manager) ReplaceImages(imgs []store.Image) error {
	if err := m.store.ReplaceImages(imgs); err != nil {
		return fmt.Errorf("failed to replace image library: %w", err)
	}
	m.mu.Lock()
	m.images = cloneSlice(imgs)
	m.mu.Unlock()
	return nil
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func clonePaths(paths []store.LearningPath) []store.LearningPath {
	out := cloneSlice(paths)
	for i := range out {
		out[i].Articles = cloneSlice(out[i].Articles)
	}
	return out
}
