package store

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/AWolf81/memory-lane/internal/model"
)

// Stats holds store statistics.
type Stats struct {
	Path            string                   `json:"path"`
	SizeBytes       int64                    `json:"size_bytes"`
	Revision        int64                    `json:"revision"`
	TotalMemories   int                      `json:"total_memories"`
	TotalRetrievals int                      `json:"total_retrievals"`
	Categories      map[string]CategoryStats `json:"categories"`
}

// CategoryStats holds per-category counts.
type CategoryStats struct {
	Count        int     `json:"count"`
	AvgRelevance float64 `json:"avg_relevance"`
	TotalUsage   int     `json:"total_usage"`
}

// Stats returns snapshot statistics, with a bucket for every category in
// the closed set even when empty.
func (s *Store) Stats() (*Stats, error) {
	s.mu.Lock()
	snap, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	st := &Stats{
		Path:       s.path,
		Revision:   snap.Revision,
		Categories: make(map[string]CategoryStats, len(model.Categories)),
	}
	if info, err := os.Stat(s.path); err == nil {
		st.SizeBytes = info.Size()
	}

	sums := make(map[string]float64)
	for _, cat := range model.Categories {
		st.Categories[cat] = CategoryStats{}
	}
	for _, e := range snap.Entries {
		cs := st.Categories[e.Category]
		cs.Count++
		cs.TotalUsage += e.UsageCount
		sums[e.Category] += e.RelevanceScore
		st.Categories[e.Category] = cs
		st.TotalMemories++
		st.TotalRetrievals += e.UsageCount
	}
	for cat, cs := range st.Categories {
		if cs.Count > 0 {
			cs.AvgRelevance = math.Round(sums[cat]/float64(cs.Count)*100) / 100
			st.Categories[cat] = cs
		}
	}
	return st, nil
}

// Markdown renders entries as a markdown document for context injection or
// export, grouped by category and ordered by descending relevance.
func (s *Store) Markdown(category string) (string, error) {
	entries, err := s.List(category, false)
	if err != nil {
		return "", err
	}

	byCat := make(map[string][]model.Entry)
	for _, e := range entries {
		byCat[e.Category] = append(byCat[e.Category], e)
	}

	var b strings.Builder
	b.WriteString("# Memory Lane Context\n")
	for _, cat := range model.Categories {
		group := byCat[cat]
		if len(group) == 0 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].RelevanceScore > group[j].RelevanceScore
		})
		fmt.Fprintf(&b, "\n## %s\n\n", titleCase(cat))
		for _, e := range group {
			fmt.Fprintf(&b, "- %s (relevance %.2f)\n", e.Content, e.RelevanceScore)
		}
	}
	return b.String(), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
