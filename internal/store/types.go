package store

import "github.com/felixgeelhaar/atheneum/internal/article"

// HistoryEntry records one searched topic. Topics are unique within the
// history list; the list is kept most-recent-first and capped.
type HistoryEntry struct {
	Topic     string `json:"topic"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch
}

// PathArticle is one entry of a learning path's ordered article list.
type PathArticle struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// LearningPath is a user-defined, ordered playlist of article titles.
// Names are unique; titles are unique within one path.
type LearningPath struct {
	Name     string        `json:"name"`
	Articles []PathArticle `json:"articles"`
}

// Snapshot is a point-in-time capture of the active reading+chat session.
// Names are unique; saving under an existing name overwrites.
type Snapshot struct {
	Name          string                 `json:"name"`
	Timestamp     int64                  `json:"timestamp"`
	Topic         string                 `json:"topic"`
	Article       article.Document       `json:"article"`
	RelatedTopics []article.RelatedTopic `json:"relatedTopics"`
	ChatHistory   []article.ChatMessage  `json:"chatHistory"`
}

// Image is one generated image in the library. The ID is assigned by the
// store at insertion and never reused, even after deletion.
type Image struct {
	ID        int64  `json:"id"`
	ImageURL  string `json:"imageUrl"`
	Prompt    string `json:"prompt"`
	Topic     string `json:"topic"`
	Timestamp int64  `json:"timestamp"`
}

// Storage defines the interface for persistence.
//
// The list-backed collections (history, bookmarks, learning paths,
// snapshots) are loaded once and written back wholesale: the knowledge
// manager owns the in-memory view and the durable copy trails it. The
// image library is the opposite: the durable row is written first and the
// in-memory view follows.
type Storage interface {
	// List-backed collections
	LoadHistory() ([]HistoryEntry, error)
	SaveHistory(entries []HistoryEntry) error
	LoadBookmarks() ([]string, error)
	SaveBookmarks(topics []string) error
	LoadPaths() ([]LearningPath, error)
	SavePaths(paths []LearningPath) error
	LoadSnapshots() ([]Snapshot, error)
	SaveSnapshots(snaps []Snapshot) error

	// Image library
	// AddImage assigns the final ID (bumping on collision) and returns it.
	AddImage(img Image) (int64, error)
	ListImages() ([]Image, error)
	DeleteImage(id int64) error
	ClearImages() error
	// ReplaceImages clears the library and bulk-inserts the given images
	// with their existing IDs, for restore.
	ReplaceImages(imgs []Image) error

	// Configuration Management
	SetConfig(key, value string) error
	GetConfig(key string) (string, error)

	Close() error
}
