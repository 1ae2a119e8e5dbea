package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Errorf("config file not created: %v", err)
	}
	if got := cfg.Int("threshold.warmup_count", 0); got != 100 {
		t.Errorf("expected default warmup_count 100, got %d", got)
	}
	if got := cfg.Float("compression.safe_fraction", 0); got != 0.5 {
		t.Errorf("expected default safe_fraction 0.5, got %f", got)
	}
}

func TestUserValuesMergeOverDefaults(t *testing.T) {
	dir := t.TempDir()
	user := map[string]any{
		"threshold": map[string]any{"warmup_count": 25},
	}
	b, _ := json.Marshal(user)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), b, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Int("threshold.warmup_count", 0); got != 25 {
		t.Errorf("user value lost: %d", got)
	}
	// Untouched sibling keys keep their defaults.
	if got := cfg.Float("threshold.ema_alpha", 0); got != 0.7 {
		t.Errorf("default sibling lost: %f", got)
	}
}

func TestGetSetDotNotation(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := cfg.Set("memory.max_store_size", float64(50)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := cfg.Int("memory.max_store_size", 0); got != 50 {
		t.Errorf("expected 50, got %d", got)
	}
	if cfg.Get("no.such.key") != nil {
		t.Error("expected nil for unknown key")
	}

	// Set persists across loads.
	cfg2, err := Load(cfg.Dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := cfg2.Int("memory.max_store_size", 0); got != 50 {
		t.Errorf("set did not persist: %d", got)
	}
}

func TestInvalidConfigFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Int("threshold.warmup_count", 0); got != 100 {
		t.Errorf("defaults not applied: %d", got)
	}
}

func TestExcludedPatterns(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	for _, path := range []string{"app.env", "deploy.key", "vendor/secrets/db.txt"} {
		if !cfg.Excluded(path) {
			t.Errorf("expected %q excluded", path)
		}
	}
	for _, path := range []string{"main.go", "docs/readme.md"} {
		if cfg.Excluded(path) {
			t.Errorf("expected %q not excluded", path)
		}
	}
}

func TestSetExcludePatternRecompiles(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Set("privacy.exclude_patterns", []any{"*.secret"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !cfg.Excluded("api.secret") {
		t.Error("new pattern not active")
	}
	if cfg.Excluded("app.env") {
		t.Error("old pattern still active after replacement")
	}
}
