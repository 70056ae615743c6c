package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

type GlobalConfig struct {
	// APIURL is the painting API base url (e.g. http://localhost:8000).
	APIURL string `json:"apiUrl,omitempty"`
	// TimeoutSeconds bounds every API request.
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`

	// PageSize and CacheCap control gallery population (defaults 20 / 100).
	PageSize int `json:"pageSize,omitempty"`
	CacheCap int `json:"cacheCap,omitempty"`

	LogFile  string `json:"logFile,omitempty"`
	LogLevel string `json:"logLevel,omitempty"`

	// CatalogPath and ImagesDir are defaults for `gallery serve`.
	CatalogPath string `json:"catalogPath,omitempty"`
	ImagesDir   string `json:"imagesDir,omitempty"`

	TUI *TUIConfig `json:"tui,omitempty"`
}

type TUIConfig struct {
	// Theme is "auto", "light" or "dark".
	Theme string `json:"theme,omitempty"`
	// Glyphs selects the glyph set ("unicode" or "ascii").
	Glyphs string `json:"glyphs,omitempty"`
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.pairing-gallery).
	if v := strings.TrimSpace(os.Getenv("GALLERY_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pairing-gallery"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultCatalogPath is where `gallery serve` and `gallery catalog` look when no --db is given.
func DefaultCatalogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "catalog.sqlite"), nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	// Keep the previous version around; a failed backup never blocks the save.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.json.bak.*.tmp", path+".bak", prev, 0o644)
	}

	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

var configSetters = map[string]func(cfg *GlobalConfig, v string) error{
	"apiUrl":      func(c *GlobalConfig, v string) error { c.APIURL = v; return nil },
	"logFile":     func(c *GlobalConfig, v string) error { c.LogFile = v; return nil },
	"logLevel":    func(c *GlobalConfig, v string) error { c.LogLevel = v; return nil },
	"catalogPath": func(c *GlobalConfig, v string) error { c.CatalogPath = v; return nil },
	"imagesDir":   func(c *GlobalConfig, v string) error { c.ImagesDir = v; return nil },
	"timeoutSeconds": func(c *GlobalConfig, v string) error {
		return setNonNegativeInt(&c.TimeoutSeconds, v)
	},
	"pageSize": func(c *GlobalConfig, v string) error {
		return setNonNegativeInt(&c.PageSize, v)
	},
	"cacheCap": func(c *GlobalConfig, v string) error {
		return setNonNegativeInt(&c.CacheCap, v)
	},
	"tui.theme": func(c *GlobalConfig, v string) error {
		switch v {
		case "", "auto", "light", "dark":
		default:
			return fmt.Errorf("invalid theme %q (want auto|light|dark)", v)
		}
		c.tui().Theme = v
		return nil
	},
	"tui.glyphs": func(c *GlobalConfig, v string) error {
		switch v {
		case "", "unicode", "ascii":
		default:
			return fmt.Errorf("invalid glyphs %q (want unicode|ascii)", v)
		}
		c.tui().Glyphs = v
		return nil
	},
}

// ConfigKeys lists the keys accepted by Set.
func ConfigKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one config key from its string form. An empty value resets the key.
func (c *GlobalConfig) Set(key, value string) error {
	set, ok := configSetters[strings.TrimSpace(key)]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(ConfigKeys(), ", "))
	}
	return set(c, strings.TrimSpace(value))
}

func (c *GlobalConfig) tui() *TUIConfig {
	if c.TUI == nil {
		c.TUI = &TUIConfig{}
	}
	return c.TUI
}

func setNonNegativeInt(dst *int, v string) error {
	if v == "" {
		*dst = 0
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("expected an integer, got %q", v)
	}
	if n < 0 {
		return fmt.Errorf("expected a non-negative integer, got %d", n)
	}
	*dst = n
	return nil
}
