// Package recall scores and orders memory entries against a query.
//
// Two strategies exist: lexical word-set overlap (always available) and
// cosine similarity over embeddings (optional capability). The strategy is
// chosen once at startup; the vector ranker degrades to lexical whenever
// the embedding capability fails.
package recall

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/AWolf81/memory-lane/internal/model"
)

// Scored pairs an entry with its recall score.
type Scored struct {
	Entry model.Entry `json:"entry"`
	Score float64     `json:"score"`
}

// Ranker orders candidates by descending relevance to a query.
type Ranker interface {
	Rank(ctx context.Context, query string, candidates []model.Entry, k int) []Scored
}

// WordSet tokenizes text into a lowercase word set.
func WordSet(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Jaccard computes intersection-over-union of the two texts' word sets.
func Jaccard(a, b string) float64 {
	return jaccardSets(WordSet(a), WordSet(b))
}

func jaccardSets(sa, sb map[string]struct{}) float64 {
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	if len(sb) < len(sa) {
		sa, sb = sb, sa
	}
	inter := 0
	for w := range sa {
		if _, ok := sb[w]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

// Novelty is the surprise score of new content relative to existing
// memory: 1 minus the best lexical similarity to any stored entry.
func Novelty(content string, existing []model.Entry) float64 {
	set := WordSet(content)
	best := 0.0
	for _, e := range existing {
		if sim := jaccardSets(set, WordSet(e.Content)); sim > best {
			best = sim
		}
	}
	return 1 - best
}

// boost applies the relevance multiplier and recency bonus shared by both
// ranking strategies.
func boost(base float64, e model.Entry, now time.Time) float64 {
	score := base * (1 + 0.5*e.RelevanceScore)
	ageDays := now.Sub(e.CreatedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	// Log-decayed recency bonus: fresh entries get a small nudge that
	// fades slowly instead of cliffing.
	score += 0.1 / (1 + math.Log1p(ageDays))
	return score
}

// LexicalRanker scores candidates by word-set Jaccard overlap.
type LexicalRanker struct{}

// NewLexicalRanker returns the always-available ranking strategy.
func NewLexicalRanker() *LexicalRanker { return &LexicalRanker{} }

// Rank implements Ranker.
func (r *LexicalRanker) Rank(_ context.Context, query string, candidates []model.Entry, k int) []Scored {
	now := time.Now().UTC()
	querySet := WordSet(query)

	scored := make([]Scored, 0, len(candidates))
	for _, e := range candidates {
		base := jaccardSets(querySet, WordSet(e.Content))
		scored = append(scored, Scored{Entry: e, Score: boost(base, e, now)})
	}
	return top(scored, k)
}

// top sorts by descending score, breaking ties toward higher usage_count,
// and truncates to k.
func top(scored []Scored, k int) []Scored {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Entry.UsageCount > scored[j].Entry.UsageCount
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
