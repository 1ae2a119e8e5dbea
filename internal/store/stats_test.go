package store

import (
	"strings"
	"testing"

	"github.com/AWolf81/memory-lane/internal/model"
)

func TestStatsBucketsAllCategories(t *testing.T) {
	s := newTestStore(t)
	s.Add(AddParams{Category: "pattern", Content: "a", Relevance: 0.8})
	s.Add(AddParams{Category: "pattern", Content: "b", Relevance: 0.4})

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalMemories != 2 {
		t.Errorf("expected 2 memories, got %d", stats.TotalMemories)
	}
	// Every closed-set category gets a bucket, populated or not.
	for _, cat := range model.Categories {
		if _, ok := stats.Categories[cat]; !ok {
			t.Errorf("missing bucket for %q", cat)
		}
	}
	p := stats.Categories["pattern"]
	if p.Count != 2 {
		t.Errorf("expected pattern count 2, got %d", p.Count)
	}
	if p.AvgRelevance < 0.59 || p.AvgRelevance > 0.61 {
		t.Errorf("expected avg relevance ~0.6, got %f", p.AvgRelevance)
	}
}

func TestMarkdownExport(t *testing.T) {
	s := newTestStore(t)
	s.Add(AddParams{Category: "learning", Content: "renames are atomic on the same filesystem", Relevance: 0.9})
	s.Add(AddParams{Category: "insight", Content: "caching cut latency in half", Relevance: 0.7})

	md, err := s.Markdown("")
	if err != nil {
		t.Fatalf("markdown: %v", err)
	}
	if !strings.Contains(md, "renames are atomic") || !strings.Contains(md, "caching cut latency") {
		t.Errorf("markdown missing content:\n%s", md)
	}

	only, err := s.Markdown("learning")
	if err != nil {
		t.Fatalf("markdown learning: %v", err)
	}
	if strings.Contains(only, "caching cut latency") {
		t.Errorf("category filter leaked other categories:\n%s", only)
	}
}
