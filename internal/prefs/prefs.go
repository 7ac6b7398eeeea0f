// Package prefs persists scribe's view preferences in
// ~/.config/scribe/prefs.toml. Unlike config, prefs are written back by the
// TUI whenever the user changes them.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/scribe/internal/config"
)

// Prefs holds user preferences for the TUI.
type Prefs struct {
	Theme         string `toml:"theme"`
	HideCompleted bool   `toml:"hide_completed"`
}

// DefaultPath is used when no path is given.
const DefaultPath = "~/.config/scribe/prefs.toml"

const defaultTheme = "Nightfox"

// Defaults returns the preferences used when nothing is stored.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

// Load reads preferences from path. It always returns usable preferences;
// the error explains why defaults were used for an unreadable file and is
// meant for logging only.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults(), err
	}

	data, err := os.ReadFile(resolved)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("read prefs: %w", err)
	}

	p := Defaults()
	if err := toml.Unmarshal(data, &p); err != nil {
		return Defaults(), fmt.Errorf("parse prefs: %w", err)
	}
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	return p, nil
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	return config.ExpandPath(path)
}
