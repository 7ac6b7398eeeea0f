package app

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/five82/scribe/internal/config"
	"github.com/five82/scribe/internal/redisstore"
	"github.com/five82/scribe/internal/remote"
	"github.com/five82/scribe/internal/server"
)

const (
	defaultRetryInterval = 2 * time.Second
	maxBackoff           = 30 * time.Second
	shutdownTimeout      = 5 * time.Second
)

// ServeOptions configure `scribe serve`.
type ServeOptions struct {
	ConfigPath string
	Listen     string // overrides [server] listen
	Backend    string // overrides [remote] backend; redis or memory
	Verbose    bool
}

// Serve runs the notes API until ctx is cancelled. It logs to stderr.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger.SetLevel(cfg.Log.Level)
	if opts.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	backend := cfg.Remote.Backend
	if opts.Backend != "" {
		backend = opts.Backend
	}
	listen := cfg.Server.Listen
	if opts.Listen != "" {
		listen = opts.Listen
	}

	var store remote.Store
	switch backend {
	case config.BackendRedis:
		rs, err := connectRedis(ctx, redisOptions(cfg.Redis), logger, defaultRetryInterval)
		if err != nil {
			return err
		}
		defer rs.Close()
		store = rs
	case config.BackendMemory, config.BackendHTTP:
		if backend == config.BackendHTTP {
			logger.Info("http backend cannot back the server; serving from memory")
		}
		store = remote.NewMemory()
	default:
		return fmt.Errorf("unknown backend %q", backend)
	}

	srv := server.New(store, logger.WithField("component", "server"))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(listen) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("graceful shutdown timed out; closing streams")
		_ = srv.Close()
	}
	return <-errCh
}

// connectRedis retries Open with exponential backoff until it succeeds or
// ctx ends.
func connectRedis(ctx context.Context, opts redisstore.Options, logger log.FieldLogger, interval time.Duration) (*redisstore.Store, error) {
	failures := 0
	for {
		store, err := redisstore.Open(ctx, opts, logger.WithField("component", "redis"))
		if err == nil {
			if failures > 0 {
				logger.WithField("attempts", failures+1).Info("redis reachable")
			}
			return store, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}

		wait := calculateBackoff(failures, interval)
		failures++
		logger.WithError(err).WithField("retry_in", wait).Warn("redis unavailable")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("open redis store: %w", err)
		case <-time.After(wait):
		}
	}
}

// calculateBackoff doubles the base interval per consecutive failure, capped
// at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for range failures {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
