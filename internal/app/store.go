package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/five82/scribe/internal/config"
	"github.com/five82/scribe/internal/redisstore"
	"github.com/five82/scribe/internal/remote"
)

// openStore builds the remote store selected by [remote] backend. The
// returned func releases it.
func openStore(ctx context.Context, cfg config.Config, logger log.FieldLogger) (remote.Store, func(), error) {
	switch cfg.Remote.Backend {
	case config.BackendRedis:
		store, err := redisstore.Open(ctx, redisOptions(cfg.Redis), logger.WithField("component", "redis"))
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case config.BackendMemory:
		logger.Warn("memory backend: notes are not persisted")
		return remote.NewMemory(), func() {}, nil
	case config.BackendHTTP, "":
		client, err := remote.NewClient(cfg.Remote.APIBind, cfg.Remote.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("init notes client: %w", err)
		}
		return client, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Remote.Backend)
	}
}

func redisOptions(c config.RedisConfig) redisstore.Options {
	return redisstore.Options{
		Addr:      c.Addr,
		Password:  c.Password,
		DB:        c.DB,
		KeyPrefix: c.KeyPrefix,
	}
}

// newFileLogger writes logrus text output to cfg.File. The TUI owns the
// terminal, so nothing is logged to stderr while it runs.
func newFileLogger(cfg config.LogConfig) (*log.Logger, func(), error) {
	logger := log.New()
	logger.SetLevel(cfg.Level)
	logger.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})

	if cfg.File == "" {
		logger.SetOutput(io.Discard)
		return logger, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(f)
	return logger, func() { _ = f.Close() }, nil
}
