// Package backup serializes the whole user-owned state into one
// transferable document and restores it atomically enough: validation
// happens before any mutation, replacement is wholesale per collection,
// and a failure mid-restore is surfaced rather than rolled back.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/atheneum/internal/knowledge"
	"github.com/felixgeelhaar/atheneum/internal/notify"
	"github.com/felixgeelhaar/atheneum/internal/observe"
	"github.com/felixgeelhaar/atheneum/internal/settings"
	"github.com/felixgeelhaar/atheneum/internal/store"
	"gopkg.in/yaml.v3"
)

// ErrInvalidBackup marks a document that failed structural validation.
// No state is changed when it is returned.
var ErrInvalidBackup = errors.New("invalid backup document")

// Document is the exportable whole-store state.
type Document struct {
	Settings         *settings.AppSettings `json:"settings"`
	History          []string              `json:"history"`   // topics, most-recent-first
	Bookmarks        []string              `json:"bookmarks"` // topics, most-recent-first
	LearningPaths    []store.LearningPath  `json:"learningPaths"`
	SessionSnapshots []store.Snapshot      `json:"sessionSnapshots"`
	ImageLibrary     []store.Image         `json:"imageLibrary"`
}

// FileName returns the default export file name for the given day.
func FileName(now time.Time) string {
	return fmt.Sprintf("atheneum-backup-%s.json", now.Format("2006-01-02"))
}

// Parse validates and decodes a JSON backup document.
// Validity requires a settings object and a history list; everything else
// defaults to empty when absent.
func Parse(data []byte) (*Document, error) {
	var raw struct {
		Settings json.RawMessage `json:"settings"`
		History  json.RawMessage `json:"history"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if len(raw.Settings) == 0 || string(raw.Settings) == "null" {
		return nil, fmt.Errorf("%w: missing settings", ErrInvalidBackup)
	}
	// An explicit null unmarshals into a slice without error; reject it
	// alongside the missing case.
	if len(raw.History) == 0 || string(raw.History) == "null" {
		return nil, fmt.Errorf("%w: history is not a list", ErrInvalidBackup)
	}
	var historyItems []json.RawMessage
	if err := json.Unmarshal(raw.History, &historyItems); err != nil {
		return nil, fmt.Errorf("%w: history is not a list", ErrInvalidBackup)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	return &doc, nil
}

// ParseYAML accepts the same document shape in YAML. The node tree is
// re-encoded as JSON so both formats share one set of field names and one
// validation path.
func ParseYAML(data []byte) (*Document, error) {
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	jsonData, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	return Parse(jsonData)
}

// ParseFile reads a backup document from a file (JSON or YAML by
// extension).
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return Parse(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported backup format: %s (use .json or .yaml)", filepath.Ext(path))
	}
}

// Service wires export/restore to the knowledge manager and settings.
type Service struct {
	mgr      *knowledge.Manager
	settings *settings.Service
	notifier *notify.Notifier
	obs      *observe.Observer
	now      func() time.Time
}

func NewService(mgr *knowledge.Manager, set *settings.Service, nf *notify.Notifier, obs *observe.Observer) *Service {
	return &Service{
		mgr:      mgr,
		settings: set,
		notifier: nf,
		obs:      obs,
		now:      time.Now,
	}
}

// Export assembles the current state into one document. Images are read
// fresh from the durable store; a read failure produces no partial
// document.
func (s *Service) Export() (*Document, error) {
	images, err := s.mgr.RefreshImages()
	if err != nil {
		s.obs.Log().Error().Err(err).Msg("export aborted")
		s.notifier.Error("Export failed: could not read image library")
		return nil, err
	}

	current := s.settings.Current()
	doc := &Document{
		Settings:         &current,
		History:          topics(s.mgr.History()),
		Bookmarks:        s.mgr.Bookmarks(),
		LearningPaths:    s.mgr.Paths(),
		SessionSnapshots: s.mgr.Snapshots(),
		ImageLibrary:     images,
	}
	return doc, nil
}

// ExportToFile writes the export. An empty path uses the dated default
// name in the current directory; a directory path gets the default name
// appended. The extension selects the codec.
func (s *Service) ExportToFile(path string) (string, error) {
	doc, err := s.Export()
	if err != nil {
		return "", err
	}

	if path == "" {
		path = FileName(s.now())
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName(s.now()))
	}

	data, err := encode(doc, filepath.Ext(path))
	if err != nil {
		s.notifier.Error("Export failed")
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		s.notifier.Error("Export failed: could not write file")
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	s.notifier.Success(fmt.Sprintf("Exported backup to %s", path))
	return path, nil
}

func encode(doc *Document, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case "", ".json":
		return json.MarshalIndent(doc, "", "  ")
	case ".yaml", ".yml":
		// Round-trip through JSON so the YAML keys match the JSON ones.
		jsonData, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		var tree map[string]interface{}
		if err := json.Unmarshal(jsonData, &tree); err != nil {
			return nil, err
		}
		return yaml.Marshal(tree)
	default:
		return nil, fmt.Errorf("unsupported backup format: %s", ext)
	}
}

// Import replaces all state with the document's contents. Validation has
// already happened for parsed files; a programmatically built document is
// checked again. Missing collections replace with empty rather than being
// skipped. There is no rollback across collections: a failing step leaves
// earlier replacements in place and is surfaced as an error.
func (s *Service) Import(doc *Document) error {
	if doc == nil || doc.Settings == nil {
		s.notifier.Error("Import failed: not a valid backup document")
		return fmt.Errorf("%w: missing settings", ErrInvalidBackup)
	}

	// Drain pending background saves so none can land after the restore.
	s.mgr.Flush()

	if err := s.settings.Replace(*doc.Settings); err != nil {
		return s.fail("settings", err)
	}
	if err := s.mgr.ReplaceHistory(historyEntries(doc.History, s.now())); err != nil {
		return s.fail("history", err)
	}
	if err := s.mgr.ReplaceBookmarks(doc.Bookmarks); err != nil {
		return s.fail("bookmarks", err)
	}
	if err := s.mgr.ReplacePaths(doc.LearningPaths); err != nil {
		return s.fail("learning paths", err)
	}
	if err := s.mgr.ReplaceSnapshots(doc.SessionSnapshots); err != nil {
		return s.fail("snapshots", err)
	}

	images := make([]store.Image, len(doc.ImageLibrary))
	copy(images, doc.ImageLibrary)
	sort.Slice(images, func(i, j int) bool { return images[i].Timestamp > images[j].Timestamp })
	if err := s.mgr.ReplaceImages(images); err != nil {
		return s.fail("image library", err)
	}

	s.notifier.Success("Backup imported")
	return nil
}

// ImportFromFile parses and imports a backup file.
func (s *Service) ImportFromFile(path string) error {
	doc, err := ParseFile(path)
	if err != nil {
		s.notifier.Error("Import failed: not a valid backup document")
		return err
	}
	return s.Import(doc)
}

func (s *Service) fail(step string, err error) error {
	s.obs.Log().Error().Str("step", step).Err(err).Msg("import failed")
	s.notifier.Error(fmt.Sprintf("Import failed while restoring %s", step))
	return err
}

func topics(entries []store.HistoryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Topic
	}
	return out
}

// historyEntries rebuilds history records from exported topics. The export
// format carries order, not timestamps, so synthetic descending timestamps
// preserve the most-recent-first ordering.
func historyEntries(topics []string, now time.Time) []store.HistoryEntry {
	base := now.UnixMilli()
	out := make([]store.HistoryEntry, len(topics))
	for i, t := range topics {
		out[i] = store.HistoryEntry{Topic: t, Timestamp: base - int64(i)}
	}
	return out
}
