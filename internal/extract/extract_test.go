package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AWolf81/memory-lane/internal/model"
)

// fakeExtractor scripts a provider for chain tests.
type fakeExtractor struct {
	name       string
	candidates []Candidate
	err        error
	calls      int
}

func (f *fakeExtractor) Name() string { return f.name }

func (f *fakeExtractor) Extract(_ context.Context, _ string) ([]Candidate, error) {
	f.calls++
	return f.candidates, f.err
}

func TestChainFirstSuccessWins(t *testing.T) {
	first := &fakeExtractor{name: "first", candidates: []Candidate{
		{Category: "insight", Content: "found it early", Relevance: 0.8},
	}}
	second := &fakeExtractor{name: "second", candidates: []Candidate{
		{Category: "insight", Content: "should not be reached", Relevance: 0.5},
	}}

	chain := NewChain(time.Second, first, second)
	got, err := chain.Extract(context.Background(), "text")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(got) != 1 || got[0].Content != "found it early" {
		t.Errorf("unexpected candidates: %+v", got)
	}
	if second.calls != 0 {
		t.Error("second provider called despite first success")
	}
}

func TestChainSkipsFailingProvider(t *testing.T) {
	broken := &fakeExtractor{name: "broken", err: errors.New("api down")}
	backup := &fakeExtractor{name: "backup", candidates: []Candidate{
		{Category: "learning", Content: "fallback worked", Relevance: 0.7},
	}}

	chain := NewChain(time.Second, broken, backup)
	got, err := chain.Extract(context.Background(), "text")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(got) != 1 || got[0].Content != "fallback worked" {
		t.Errorf("fallback not used: %+v", got)
	}
}

func TestChainAllFailed(t *testing.T) {
	chain := NewChain(time.Second, &fakeExtractor{name: "a", err: errors.New("x")})
	_, err := chain.Extract(context.Background(), "text")
	if !errors.Is(err, model.ErrCapabilityUnavailable) {
		t.Errorf("expected ErrCapabilityUnavailable, got %v", err)
	}
}

func TestChainEmptyFallsThrough(t *testing.T) {
	empty := &fakeExtractor{name: "empty"}
	full := &fakeExtractor{name: "full", candidates: []Candidate{
		{Category: "pattern", Content: "later provider delivers", Relevance: 0.6},
	}}

	chain := NewChain(time.Second, empty, full)
	got, err := chain.Extract(context.Background(), "text")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("empty result did not fall through: %+v", got)
	}
}

func TestSanitizeDropsInvalidAndClamps(t *testing.T) {
	provider := &fakeExtractor{name: "p", candidates: []Candidate{
		{Category: "pattern", Content: "valid entry", Relevance: 1.8},
		{Category: "rumor", Content: "invalid category", Relevance: 0.5},
		{Category: "pattern", Content: "valid entry", Relevance: 0.5}, // repeat
		{Category: "pattern", Content: "", Relevance: 0.5},
	}}

	chain := NewChain(time.Second, provider)
	got, err := chain.Extract(context.Background(), "text")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 sanitized candidate, got %d", len(got))
	}
	if got[0].Relevance != 1 {
		t.Errorf("relevance not clamped: %f", got[0].Relevance)
	}
}
