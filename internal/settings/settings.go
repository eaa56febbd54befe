// Package settings holds the single application configuration record.
// The stored value is always merged over hard-coded defaults so a record
// persisted by an older build upgrades transparently when fields are added.
package settings

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/atheneum/internal/store"
)

// ConfigKey is the configuration-table key the settings record lives under.
const ConfigKey = "settings"

// AppSettings is the singleton configuration record.
type AppSettings struct {
	Language       string `json:"language"`
	ArticleLength  string `json:"articleLength"`
	ImageStyle     string `json:"imageStyle"`
	AutoLoadImages bool   `json:"autoLoadImages"`
	SynapseDensity int    `json:"synapseDensity"`
	AccentColor    string `json:"accentColor"`
	FontFamily     string `json:"fontFamily"`
	TextSize       string `json:"textSize"`
}

// Defaults returns the built-in settings record.
func Defaults() AppSettings {
	return AppSettings{
		Language:       "en",
		ArticleLength:  "medium",
		ImageStyle:     "photorealistic",
		AutoLoadImages: true,
		SynapseDensity: 3,
		AccentColor:    "indigo",
		FontFamily:     "serif",
		TextSize:       "base",
	}
}

// Merge overlays a stored JSON record onto the defaults. Fields absent from
// the stored record keep their default value.
func Merge(stored []byte) (AppSettings, error) {
	s := Defaults()
	if len(stored) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(stored, &s); err != nil {
		return Defaults(), fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return s, nil
}

// Service provides thread-safe access to the current settings record and
// persists changes through the store's configuration table.
type Service struct {
	mu      sync.RWMutex
	store   store.Storage
	current AppSettings
}

// NewService loads the persisted record (merged over defaults). A corrupt
// stored record falls back to defaults rather than failing startup.
func NewService(st store.Storage) (*Service, error) {
	raw, err := st.GetConfig(ConfigKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	merged, err := Merge([]byte(raw))
	if err != nil {
		merged = Defaults()
	}
	return &Service{store: st, current: merged}, nil
}

// Current returns a copy of the active settings.
func (s *Service) Current() AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies fn to a copy of the current settings, makes the result
// active and persists it.
func (s *Service) Update(fn func(*AppSettings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current
	fn(&next)
	if err := s.persist(next); err != nil {
		return err
	}
	s.current = next
	return nil
}

// Replace makes the given record active wholesale, as restore does.
func (s *Service) Replace(next AppSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(next); err != nil {
		return err
	}
	s.current = next
	return nil
}

func (s *Service) persist(v AppSettings) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := s.store.SetConfig(ConfigKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}
