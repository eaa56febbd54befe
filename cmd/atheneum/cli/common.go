package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/atheneum/internal/backup"
	"github.com/felixgeelhaar/atheneum/internal/credential"
	"github.com/felixgeelhaar/atheneum/internal/knowledge"
	"github.com/felixgeelhaar/atheneum/internal/notify"
	"github.com/felixgeelhaar/atheneum/internal/observe"
	"github.com/felixgeelhaar/atheneum/internal/settings"
	"github.com/felixgeelhaar/atheneum/internal/store"
)

// app bundles the long-lived services every command needs.
type app struct {
	store    store.Storage
	mgr      *knowledge.Manager
	settings *settings.Service
	backup   *backup.Service
	notifier *notify.Notifier
	creds    *credential.Manager
	obs      *observe.Observer
}

// dataDir is ~/.atheneum unless overridden for tests.
func dataDir() string {
	if dir := os.Getenv("ATHENEUM_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".atheneum")
}

func newApp() *app {
	var obs *observe.Observer
	if ciMode {
		obs = observe.NewJSON(os.Stdout, verbose)
	} else {
		obs = observe.New(os.Stdout, verbose)
	}

	dir := dataDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		obs.Log().Fatal().Err(err).Msg("Failed to create data directory")
	}

	storeLayer, err := store.NewSQLiteStore(filepath.Join(dir, "atheneum.db"))
	if err != nil {
		obs.Log().Fatal().Err(err).Msg("Failed to init store")
	}

	nf := notify.New()
	// Surface notifications on stdout; the TUI subscribes separately.
	nf.Subscribe(func(n notify.Notification) {
		fmt.Printf("[%s] %s\n", n.Kind, n.Message)
	})

	mgr, err := knowledge.NewManager(storeLayer, nf, obs)
	if err != nil {
		obs.Log().Fatal().Err(err).Msg("Failed to load knowledge store")
	}
	set, err := settings.NewService(storeLayer)
	if err != nil {
		obs.Log().Fatal().Err(err).Msg("Failed to load settings")
	}
	creds, err := credential.NewManager()
	if err != nil {
		obs.Log().Fatal().Err(err).Msg("Failed to init credential manager")
	}

	return &app{
		store:    storeLayer,
		mgr:      mgr,
		settings: set,
		backup:   backup.NewService(mgr, set, nf, obs),
		notifier: nf,
		creds:    creds,
		obs:      obs,
	}
}

func (a *app) Close() {
	a.mgr.Flush()
	a.store.Close()
	a.obs.Close()
}

// configValue reads a configuration value, transparently decrypting
// credentials.
func (a *app) configValue(key string) string {
	val, err := a.store.GetConfig(key)
	if err != nil {
		return ""
	}
	if credential.IsEncrypted(val) {
		plain, err := a.creds.Decrypt(val)
		if err != nil {
			a.obs.Log().Error().Err(err).Str("key", key).Msg("Failed to decrypt credential")
			return ""
		}
		return plain
	}
	return val
}
