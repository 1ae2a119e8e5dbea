// Package model defines the core memory data types.
package model

import (
	"errors"
	"time"
	"unicode/utf8"
)

// MaxContentLen caps stored content; longer input is truncated before persistence.
const MaxContentLen = 4000

// Sentinel errors shared across the store, service and CLI layers.
var (
	ErrInvalidCategory       = errors.New("invalid category")
	ErrNotFound              = errors.New("memory not found")
	ErrMalformedRequest      = errors.New("malformed request")
	ErrStoreCorruption       = errors.New("memory store corrupted")
	ErrCapabilityUnavailable = errors.New("capability unavailable")
)

// Entry represents a stored memory entry.
type Entry struct {
	ID             string     `json:"id"`
	Category       string     `json:"category"`
	Content        string     `json:"content"`
	Source         string     `json:"source"`
	CreatedAt      time.Time  `json:"created_at"`
	RelevanceScore float64    `json:"relevance_score"`
	UsageCount     int        `json:"usage_count"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
}

// Categories is the closed set of memory categories.
var Categories = []string{"pattern", "insight", "learning", "context-note"}

// ValidCategory reports whether c is in the closed category set.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// ClampRelevance clamps a relevance score into [0,1].
func ClampRelevance(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// TruncateContent enforces MaxContentLen on raw content, cutting at a rune
// boundary so truncation never persists invalid UTF-8.
func TruncateContent(s string) string {
	if len(s) <= MaxContentLen {
		return s
	}
	cut := MaxContentLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
