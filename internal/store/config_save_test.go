package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLoadConfig_MissingFileIsEmpty(t *testing.T) {
	t.Setenv("GALLERY_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APIURL != "" || cfg.TUI != nil {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestSaveConfig_WritesBackup(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("GALLERY_CONFIG_DIR", cfgDir)

	if err := SaveConfig(&GlobalConfig{APIURL: "http://one"}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	if err := SaveConfig(&GlobalConfig{APIURL: "http://two"}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APIURL != "http://two" {
		t.Fatalf("expected latest apiUrl, got %q", cfg.APIURL)
	}
	bak, err := os.ReadFile(filepath.Join(cfgDir, "config.json.bak"))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !strings.Contains(string(bak), "http://one") {
		t.Fatalf("expected backup to hold previous config, got %s", bak)
	}
}

func TestSaveConfig_ConcurrentWriters_DoesNotCorruptConfig(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("GALLERY_CONFIG_DIR", cfgDir)

	if err := SaveConfig(&GlobalConfig{APIURL: "http://seed"}); err != nil {
		t.Fatalf("SaveConfig(seed): %v", err)
	}

	const n = 32
	errCh := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg, err := LoadConfig()
			if err != nil {
				errCh <- err
				return
			}
			cfg.APIURL = fmt.Sprintf("http://writer-%d", i)
			if err := SaveConfig(cfg); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent SaveConfig: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(cfgDir, "config.json"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var cfg GlobalConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		t.Fatalf("config.json is not valid JSON after concurrent writes: %v\n%s", err, b)
	}
	if !strings.HasPrefix(cfg.APIURL, "http://writer-") {
		t.Fatalf("unexpected apiUrl %q", cfg.APIURL)
	}
}

func TestGlobalConfig_Set(t *testing.T) {
	var cfg GlobalConfig
	cases := []struct {
		key, value string
		wantErr    bool
	}{
		{"apiUrl", "http://localhost:8000", false},
		{"pageSize", "25", false},
		{"cacheCap", "-1", true},
		{"timeoutSeconds", "abc", true},
		{"tui.theme", "dark", false},
		{"tui.theme", "sepia", true},
		{"tui.glyphs", "ascii", false},
		{"nope", "x", true},
	}
	for _, tc := range cases {
		err := cfg.Set(tc.key, tc.value)
		if (err != nil) != tc.wantErr {
			t.Errorf("Set(%q, %q) err=%v, wantErr=%v", tc.key, tc.value, err, tc.wantErr)
		}
	}
	if cfg.APIURL != "http://localhost:8000" || cfg.PageSize != 25 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.TUI == nil || cfg.TUI.Theme != "dark" || cfg.TUI.Glyphs != "ascii" {
		t.Fatalf("unexpected tui config: %+v", cfg.TUI)
	}
	if err := cfg.Set("pageSize", ""); err != nil || cfg.PageSize != 0 {
		t.Fatalf("expected empty value to reset pageSize, got %d err=%v", cfg.PageSize, err)
	}
}
