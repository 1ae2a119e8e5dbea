// Package config loads and persists per-project configuration.
//
// Configuration lives in .memory-lane/config.json as nested JSON sections.
// User values are merged over defaults recursively, and keys are addressed
// with dot notation ("threshold.warmup_count") so the CLI can get/set any
// value without the config layer knowing every key.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DirName is the per-project data directory.
const DirName = ".memory-lane"

// Config holds the merged configuration and its file location.
type Config struct {
	Dir  string // project data directory (.memory-lane)
	path string
	data map[string]any

	excludes []glob.Glob
}

func defaults() map[string]any {
	return map[string]any{
		"memory": map[string]any{
			"max_store_size": float64(600),
			"min_relevance":  0.3,
			"default_limit":  float64(20),
		},
		"threshold": map[string]any{
			"warmup_count": float64(100),
			"percentile":   float64(75),
			"ema_alpha":    0.7,
			"window_size":  float64(256),
			"low_bound":    0.0,
			"high_bound":   1.0,
		},
		"compression": map[string]any{
			"dedup_similarity_threshold": 0.85,
			"model_context_tokens":       float64(200000),
			"safe_fraction":              0.5,
			"reserve_tokens":             float64(1200),
			"min_fragment_tokens":        float64(200),
		},
		"recall": map[string]any{
			"embedding_provider": "", // "", "ollama" or "openai"
			"embedding_model":    "",
			"cache_entries":      float64(2048),
		},
		"extraction": map[string]any{
			"backend":           "auto", // auto, claude, regex
			"claude_model":      "claude-haiku-4-5-20251001",
			"claude_max_tokens": float64(2048),
			"timeout_seconds":   float64(60),
		},
		"costs": map[string]any{
			"baseline_tokens":               float64(20000),
			"cost_per_million_input_tokens": 3.0,
		},
		"privacy": map[string]any{
			"exclude_patterns": []any{
				"*.env", "*.key", "*.pem",
				"**/secrets/**", "**/.git/**", "**/node_modules/**",
			},
		},
	}
}

// Load reads config.json under dir, creating it with defaults when absent.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = DirName
	}
	c := &Config{
		Dir:  dir,
		path: filepath.Join(dir, "config.json"),
		data: defaults(),
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	b, err := os.ReadFile(c.path)
	switch {
	case os.IsNotExist(err):
		if err := c.Save(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		var user map[string]any
		if err := json.Unmarshal(b, &user); err != nil {
			// Invalid user config falls back to defaults, same as the
			// corrupted-store path surfaces loudly; config is recoverable.
			fmt.Fprintf(os.Stderr, "warning: invalid config file %s, using defaults\n", c.path)
		} else {
			c.data = merge(c.data, user)
		}
	}

	if err := c.compileExcludes(); err != nil {
		return nil, err
	}
	return c, nil
}

// merge recursively overlays user values on defaults.
func merge(def, user map[string]any) map[string]any {
	out := make(map[string]any, len(def))
	for k, v := range def {
		out[k] = v
	}
	for k, v := range user {
		if dm, ok := out[k].(map[string]any); ok {
			if um, ok := v.(map[string]any); ok {
				out[k] = merge(dm, um)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func (c *Config) compileExcludes() error {
	c.excludes = c.excludes[:0]
	patterns, _ := c.Get("privacy.exclude_patterns").([]any)
	for _, p := range patterns {
		s, ok := p.(string)
		if !ok {
			continue
		}
		g, err := glob.Compile(s, '/')
		if err != nil {
			return fmt.Errorf("bad exclude pattern %q: %w", s, err)
		}
		c.excludes = append(c.excludes, g)
	}
	return nil
}

// Save writes the current configuration back to disk.
func (c *Config) Save() error {
	b, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, append(b, '\n'), 0o644)
}

// Get returns the value at a dot-notation key path, or nil when absent.
func (c *Config) Get(keyPath string) any {
	var cur any = c.data
	for _, key := range strings.Split(keyPath, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[key]
		if !ok {
			return nil
		}
	}
	return cur
}

// Set writes a value at a dot-notation key path and persists the file.
func (c *Config) Set(keyPath string, value any) error {
	keys := strings.Split(keyPath, ".")
	m := c.data
	for _, key := range keys[:len(keys)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	m[keys[len(keys)-1]] = value
	if strings.HasPrefix(keyPath, "privacy.") {
		if err := c.compileExcludes(); err != nil {
			return err
		}
	}
	return c.Save()
}

// All returns the merged configuration tree for `config list`.
func (c *Config) All() map[string]any { return c.data }

// Float reads a numeric key with a fallback default.
func (c *Config) Float(keyPath string, def float64) float64 {
	if v, ok := c.Get(keyPath).(float64); ok {
		return v
	}
	return def
}

// Int reads an integer key with a fallback default.
func (c *Config) Int(keyPath string, def int) int {
	if v, ok := c.Get(keyPath).(float64); ok {
		return int(v)
	}
	return def
}

// String reads a string key with a fallback default.
func (c *Config) String(keyPath, def string) string {
	if v, ok := c.Get(keyPath).(string); ok && v != "" {
		return v
	}
	return def
}

// Excluded reports whether a relative file path matches a privacy
// exclusion pattern. Harvesting tools use this before feeding text in.
func (c *Config) Excluded(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, g := range c.excludes {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}

// EntriesPath is the location of the persisted store snapshot.
func (c *Config) EntriesPath() string { return filepath.Join(c.Dir, "memories.json") }

// BackupDir is the location of timestamped snapshot backups.
func (c *Config) BackupDir() string { return filepath.Join(c.Dir, "backups") }

// ThresholdPath is the rolling-surprise checkpoint location.
func (c *Config) ThresholdPath() string { return filepath.Join(c.Dir, "threshold.json") }

// MetricsPath is the cumulative savings counters location.
func (c *Config) MetricsPath() string { return filepath.Join(c.Dir, "metrics.json") }

// LogDir is where service session logs are written.
func (c *Config) LogDir() string { return filepath.Join(c.Dir, "logs") }
