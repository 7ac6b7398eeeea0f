package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/five82/scribe/internal/config"
	"github.com/five82/scribe/internal/notes"
	"github.com/five82/scribe/internal/prefs"
	"github.com/five82/scribe/internal/state"
	"github.com/five82/scribe/internal/ui"
)

// Options configure the scribe client.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/scribe/prefs.toml
	Verbose    bool   // forces debug logging
}

// Run boots the sync core and the TUI until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Verbose {
		cfg.Log.Level = log.DebugLevel
	}

	logger, closeLog, err := newFileLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		logger.WithError(err).Warn("using default preferences")
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	core, err := state.New(state.Options{
		Origin:               notes.NewOriginTag(),
		Remote:               store,
		Logger:               logger,
		Placeholder:          cfg.Sync.Placeholder,
		RollbackOnWriteError: cfg.Sync.RollbackOnWriteError,
		WriteTimeout:         cfg.Sync.WriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("init sync core: %w", err)
	}
	if err := core.Start(ctx); err != nil {
		return fmt.Errorf("start sync core: %w", err)
	}
	defer core.Close()

	logger.WithFields(log.Fields{
		"backend": cfg.Remote.Backend,
		"origin":  string(core.Origin()),
	}).Info("scribe started")

	return ui.Run(ctx, ui.Options{
		Core:      core,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		LogPath:   cfg.Log.File,
		Logger:    logger,
	})
}
