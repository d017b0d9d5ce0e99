// Package prefs keeps the small amount of UI state botdash remembers between
// runs: the color theme and the last selected server.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/botdash/internal/config"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme     string `toml:"theme"`
	LastGuild string `toml:"last_guild,omitempty"`
}

const (
	defaultPath  = "~/.config/botdash/prefs.toml"
	defaultTheme = "Nightfox"
)

// DefaultPath returns the preferences file used when no path is given.
func DefaultPath() string { return defaultPath }

func defaults() Prefs { return Prefs{Theme: defaultTheme} }

// Load reads the preferences at path. A missing file yields the defaults and
// no error. An unreadable or malformed file also yields the defaults, together
// with an error the caller may log.
func Load(path string) (Prefs, error) {
	file, err := locate(path)
	if err != nil {
		return defaults(), err
	}
	data, err := os.ReadFile(file)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return defaults(), nil
	case err != nil:
		return defaults(), fmt.Errorf("read prefs: %w", err)
	}

	p := defaults()
	if err := toml.Unmarshal(data, &p); err != nil {
		return defaults(), fmt.Errorf("parse prefs %s: %w", file, err)
	}
	p.normalize()
	return p, nil
}

func (p *Prefs) normalize() {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.LastGuild = strings.TrimSpace(p.LastGuild)
}

var mu sync.Mutex

// Update applies fn to the stored preferences and writes them back. A
// malformed file is replaced, starting from the defaults.
func Update(path string, fn func(*Prefs)) error {
	mu.Lock()
	defer mu.Unlock()

	p, _ := Load(path)
	fn(&p)
	return Save(path, p)
}

// Save writes p to path, creating parent directories. The file is replaced
// atomically so a crash never leaves half a document behind.
func Save(path string, p Prefs) error {
	file, err := locate(path)
	if err != nil {
		return err
	}
	p.normalize()
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), file); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func locate(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}
	file, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("prefs path: %w", err)
	}
	return file, nil
}
