package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/five82/scribe/internal/config"
	"github.com/five82/scribe/internal/notes"
	"github.com/five82/scribe/internal/redisstore"
	"github.com/five82/scribe/internal/remote"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestOpenStore_Backends(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := config.Default()
		cfg.Remote.Backend = config.BackendMemory
		store, release, err := openStore(ctx, cfg, logger)
		if err != nil {
			t.Fatalf("openStore: %v", err)
		}
		defer release()
		if _, ok := store.(*remote.Memory); !ok {
			t.Fatalf("store = %T, want *remote.Memory", store)
		}
	})

	t.Run("http", func(t *testing.T) {
		cfg := config.Default()
		store, release, err := openStore(ctx, cfg, logger)
		if err != nil {
			t.Fatalf("openStore: %v", err)
		}
		defer release()
		if _, ok := store.(*remote.Client); !ok {
			t.Fatalf("store = %T, want *remote.Client", store)
		}
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Default()
		cfg.Remote.Backend = config.BackendRedis
		cfg.Redis.Addr = mr.Addr()
		store, release, err := openStore(ctx, cfg, logger)
		if err != nil {
			t.Fatalf("openStore: %v", err)
		}
		defer release()
		if err := store.Create(ctx, notes.Note{ID: "a", Name: "n", Description: "d"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if !mr.Exists(cfg.Redis.KeyPrefix + "notes") {
			t.Fatal("note not written under the configured prefix")
		}
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		cfg := config.Default()
		cfg.Remote.Backend = config.BackendRedis
		cfg.Redis.Addr = addr
		if _, _, err := openStore(ctx, cfg, logger); err == nil {
			t.Fatal("expected error for unreachable redis")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := config.Default()
		cfg.Remote.Backend = "carrier-pigeon"
		if _, _, err := openStore(ctx, cfg, logger); err == nil {
			t.Fatal("expected error for unknown backend")
		}
	})
}

func TestNewFileLogger_WritesText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scribe.log")
	logger, closeLog, err := newFileLogger(config.LogConfig{Level: log.InfoLevel, File: path})
	if err != nil {
		t.Fatalf("newFileLogger: %v", err)
	}
	logger.WithField("op", "create").Warn("remote write failed")
	logger.Debug("hidden")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `level=warning msg="remote write failed" op=create`) {
		t.Fatalf("unexpected log output: %q", text)
	}
	if strings.Contains(text, "hidden") {
		t.Fatal("debug line written at info level")
	}
}

func TestNewFileLogger_EmptyPathDiscards(t *testing.T) {
	logger, closeLog, err := newFileLogger(config.LogConfig{Level: log.InfoLevel})
	if err != nil {
		t.Fatalf("newFileLogger: %v", err)
	}
	defer closeLog()
	logger.Info("nowhere")
}

func TestConnectRedis_RetriesUntilAvailable(t *testing.T) {
	logger, hook := test.NewNullLogger()
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = mr.Restart()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := connectRedis(ctx, redisstore.Options{Addr: addr}, logger, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("connectRedis: %v", err)
	}
	defer store.Close()

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Message == "redis unavailable" {
			warned = true
		}
	}
	if !warned {
		t.Fatal("expected a retry warning")
	}
}

func TestConnectRedis_StopsOnCancel(t *testing.T) {
	logger, _ := test.NewNullLogger()
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := connectRedis(ctx, redisstore.Options{Addr: addr}, logger, 10*time.Millisecond); err == nil {
		t.Fatal("expected error once the context ends")
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := "[remote]\nbackend = \"memory\"\n\n[server]\nlisten = \"127.0.0.1:0\"\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ServeOptions{ConfigPath: cfgPath}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestServe_RejectsUnknownBackend(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.toml")
	err := Serve(context.Background(), ServeOptions{ConfigPath: cfgPath, Backend: "tape"})
	if err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Fatalf("err = %v, want unknown backend", err)
	}
}
