package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The background persisters and the image inserts write concurrently;
	// funnel them through one connection so none fails with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS history (
			position INTEGER PRIMARY KEY,
			topic TEXT NOT NULL UNIQUE,
			timestamp INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
			position INTEGER PRIMARY KEY,
			topic TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS learning_paths (
			position INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			articles TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			position INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			timestamp INTEGER NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS images (
			id INTEGER PRIMARY KEY,
			image_url TEXT NOT NULL,
			prompt TEXT,
			topic TEXT,
			timestamp INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS configuration (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Configuration Implementation

func (s *SQLiteStore) SetConfig(key, value string) error {
	query := `INSERT INTO configuration (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	_, err := s.db.Exec(query, key, value)
	return err
}

func (s *SQLiteStore) GetConfig(key string) (string, error) {
	query := `SELECT value FROM configuration WHERE key = ?`
	row := s.db.QueryRow(query, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// List-backed collections.
// Each Save* replaces the whole table inside one transaction so the durable
// copy always matches a consistent in-memory view; position preserves order.

func (s *SQLiteStore) replaceAll(table string, insert string, rows func(stmt *sql.Stmt) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	stmt, err := tx.Prepare(insert)
	if err != nil {
		return err
	}
	defer stmt.Close()
	if err := rows(stmt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveHistory(entries []HistoryEntry) error {
	return s.replaceAll("history",
		`INSERT INTO history (position, topic, timestamp) VALUES (?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			for i, e := range entries {
				if _, err := stmt.Exec(i, e.Topic, e.Timestamp); err != nil {
					return fmt.Errorf("failed to save history entry %q: %w", e.Topic, err)
				}
			}
			return nil
		})
}

func (s *SQLiteStore) LoadHistory() ([]HistoryEntry, error) {
	rows, err := s.db.Query(`SELECT topic, timestamp FROM history ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Topic, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) SaveBookmarks(topics []string) error {
	return s.replaceAll("bookmarks",
		`INSERT INTO bookmarks (position, topic) VALUES (?, ?)`,
		func(stmt *sql.Stmt) error {
			for i, t := range topics {
				if _, err := stmt.Exec(i, t); err != nil {
					return fmt.Errorf("failed to save bookmark %q: %w", t, err)
				}
			}
			return nil
		})
}

func (s *SQLiteStore) LoadBookmarks() ([]string, error) {
	rows, err := s.db.Query(`SELECT topic FROM bookmarks ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func (s *SQLiteStore) SavePaths(paths []LearningPath) error {
	return s.replaceAll("learning_paths",
		`INSERT INTO learning_paths (position, name, articles) VALUES (?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			for i, p := range paths {
				articles, err := json.Marshal(p.Articles)
				if err != nil {
					return fmt.Errorf("failed to marshal articles of %q: %w", p.Name, err)
				}
				if _, err := stmt.Exec(i, p.Name, string(articles)); err != nil {
					return fmt.Errorf("failed to save learning path %q: %w", p.Name, err)
				}
			}
			return nil
		})
}

func (s *SQLiteStore) LoadPaths() ([]LearningPath, error) {
	rows, err := s.db.Query(`SELECT name, articles FROM learning_paths ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []LearningPath
	for rows.Next() {
		var p LearningPath
		var articles string
		if err := rows.Scan(&p.Name, &articles); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(articles), &p.Articles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal articles of %q: %w", p.Name, err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *SQLiteStore) SaveSnapshots(snaps []Snapshot) error {
	return s.replaceAll("snapshots",
		`INSERT INTO snapshots (position, name, timestamp, payload) VALUES (?, ?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			for i, snap := range snaps {
				payload, err := json.Marshal(snap)
				if err != nil {
					return fmt.Errorf("failed to marshal snapshot %q: %w", snap.Name, err)
				}
				if _, err := stmt.Exec(i, snap.Name, snap.Timestamp, string(payload)); err != nil {
					return fmt.Errorf("failed to save snapshot %q: %w", snap.Name, err)
				}
			}
			return nil
		})
}

func (s *SQLiteStore) LoadSnapshots() ([]Snapshot, error) {
	rows, err := s.db.Query(`SELECT payload FROM snapshots ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var snap Snapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Image library.
// Images are durable-first: rows exist before any cached view changes.

func (s *SQLiteStore) AddImage(img Image) (int64, error) {
	id := img.ID
	if id == 0 {
		id = img.Timestamp
	}
	query := `INSERT INTO images (id, image_url, prompt, topic, timestamp) VALUES (?, ?, ?, ?, ?)`
	for {
		_, err := s.db.Exec(query, id, img.ImageURL, img.Prompt, img.Topic, img.Timestamp)
		if err == nil {
			return id, nil
		}
		if isUniqueViolation(err) {
			// The timestamp-derived id is already taken; bump and retry.
			id++
			continue
		}
		return 0, fmt.Errorf("failed to insert image: %w", err)
	}
}

func (s *SQLiteStore) ListImages() ([]Image, error) {
	rows, err := s.db.Query(`SELECT id, image_url, prompt, topic, timestamp FROM images ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var imgs []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.ImageURL, &img.Prompt, &img.Topic, &img.Timestamp); err != nil {
			return nil, err
		}
		imgs = append(imgs, img)
	}
	return imgs, rows.Err()
}

func (s *SQLiteStore) DeleteImage(id int64) error {
	res, err := s.db.Exec(`DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("image not found: %d", id)
	}
	return nil
}

func (s *SQLiteStore) ClearImages() error {
	_, err := s.db.Exec(`DELETE FROM images`)
	return err
}

func (s *SQLiteStore) ReplaceImages(imgs []Image) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM images`); err != nil {
		return fmt.Errorf("failed to clear images: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO images (id, image_url, prompt, topic, timestamp) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, img := range imgs {
		if _, err := stmt.Exec(img.ID, img.ImageURL, img.Prompt, img.Topic, img.Timestamp); err != nil {
			return fmt.Errorf("failed to insert image %d: %w", img.ID, err)
		}
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
