package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
)

// Backends accepted by [remote] backend.
const (
	BackendHTTP   = "http"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the resolved scribe configuration.
type Config struct {
	Remote RemoteConfig
	Redis  RedisConfig
	Sync   SyncConfig
	Log    LogConfig
	Server ServerConfig
}

// RemoteConfig selects where notes are stored.
type RemoteConfig struct {
	Backend string
	APIBind string
	Timeout time.Duration
}

// RedisConfig is used by the redis backend, both in the client and in serve.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// SyncConfig tunes the sync core.
type SyncConfig struct {
	Placeholder          string
	RollbackOnWriteError bool
	WriteTimeout         time.Duration
}

// LogConfig controls the client log file.
type LogConfig struct {
	Level log.Level
	File  string
}

// ServerConfig is used by `scribe serve`.
type ServerConfig struct {
	Listen string
}

const (
	defaultConfigPath   = "~/.config/scribe/config.toml"
	defaultLogFile      = "~/.local/share/scribe/scribe.log"
	defaultAPIBind      = "127.0.0.1:7490"
	defaultTimeout      = 5 * time.Second
	defaultRedisAddr    = "127.0.0.1:6379"
	defaultKeyPrefix    = "scribe:"
	defaultPlaceholder  = "Hi there!"
	defaultWriteTimeout = 10 * time.Second
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Remote: RemoteConfig{Backend: BackendHTTP, APIBind: defaultAPIBind, Timeout: defaultTimeout},
		Redis:  RedisConfig{Addr: defaultRedisAddr, KeyPrefix: defaultKeyPrefix},
		Sync:   SyncConfig{Placeholder: defaultPlaceholder, WriteTimeout: defaultWriteTimeout},
		Log:    LogConfig{Level: log.InfoLevel, File: mustExpand(defaultLogFile)},
		Server: ServerConfig{Listen: defaultAPIBind},
	}
}

type rawConfig struct {
	Remote struct {
		Backend string `toml:"backend"`
		APIBind string `toml:"api_bind"`
		Timeout string `toml:"timeout"`
	} `toml:"remote"`
	Redis struct {
		Addr      string `toml:"addr"`
		Password  string `toml:"password"`
		DB        int    `toml:"db"`
		KeyPrefix string `toml:"key_prefix"`
	} `toml:"redis"`
	Sync struct {
		Placeholder          string `toml:"placeholder"`
		RollbackOnWriteError bool   `toml:"rollback_on_write_error"`
		WriteTimeout         string `toml:"write_timeout"`
	} `toml:"sync"`
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
	Server struct {
		Listen string `toml:"listen"`
	} `toml:"server"`
}

// Load locates and parses the scribe config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.ToLower(strings.TrimSpace(raw.Remote.Backend)); v != "" {
		switch v {
		case BackendHTTP, BackendRedis, BackendMemory:
			cfg.Remote.Backend = v
		default:
			return Config{}, fmt.Errorf("remote.backend: unknown backend %q", raw.Remote.Backend)
		}
	}
	cfg.Remote.APIBind = orDefault(raw.Remote.APIBind, defaultAPIBind)
	if cfg.Remote.Timeout, err = parseDuration("remote.timeout", raw.Remote.Timeout, defaultTimeout); err != nil {
		return Config{}, err
	}

	cfg.Redis.Addr = orDefault(raw.Redis.Addr, defaultRedisAddr)
	cfg.Redis.Password = raw.Redis.Password
	if raw.Redis.DB < 0 {
		return Config{}, fmt.Errorf("redis.db: must not be negative")
	}
	cfg.Redis.DB = raw.Redis.DB
	cfg.Redis.KeyPrefix = orDefault(raw.Redis.KeyPrefix, defaultKeyPrefix)

	cfg.Sync.Placeholder = orDefault(raw.Sync.Placeholder, defaultPlaceholder)
	cfg.Sync.RollbackOnWriteError = raw.Sync.RollbackOnWriteError
	if cfg.Sync.WriteTimeout, err = parseDuration("sync.write_timeout", raw.Sync.WriteTimeout, defaultWriteTimeout); err != nil {
		return Config{}, err
	}

	if v := strings.TrimSpace(raw.Log.Level); v != "" {
		level, err := log.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("log.level: %w", err)
		}
		cfg.Log.Level = level
	}
	cfg.Log.File = mustExpand(orDefault(raw.Log.File, defaultLogFile))

	cfg.Server.Listen = orDefault(raw.Server.Listen, cfg.Remote.APIBind)

	return cfg, nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive", field)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
