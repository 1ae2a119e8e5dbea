// Package compress turns a ranked candidate list into a token-bounded,
// deduplicated context block.
//
// The budget math is the context-rot guard: injected content is capped at a
// safe fraction of the model's context window minus a reserve for the live
// query and response, so memories never crowd out the conversation itself.
package compress

import (
	"strings"

	"github.com/AWolf81/memory-lane/internal/recall"
)

// Options tune deduplication and truncation.
type Options struct {
	// DedupThreshold is the Jaccard similarity above which two candidates
	// are considered duplicates (default 0.85).
	DedupThreshold float64
	// MinFragmentTokens is the smallest truncated prefix worth emitting
	// (default 200).
	MinFragmentTokens int
}

// Result is the outcome of a compression pass.
type Result struct {
	Text        string   `json:"text"`
	IncludedIDs []string `json:"included_ids"`
	TokensUsed  int      `json:"tokens_used"`
	// FoldedUsage maps a surviving entry id to the number of duplicates
	// merged into it. Callers decide whether to apply it to the store.
	FoldedUsage map[string]int `json:"folded_usage,omitempty"`
	// Merged maps a surviving entry id to the ids of the duplicates folded
	// into it, so callers can delete the merged-away entries.
	Merged map[string][]string `json:"merged,omitempty"`
}

// Compressor packs ranked candidates into a token budget.
type Compressor struct {
	est  *Estimator
	opts Options
}

// New creates a compressor using one estimator for all counting.
func New(est *Estimator, opts Options) *Compressor {
	if est == nil {
		est = NewEstimator()
	}
	if opts.DedupThreshold <= 0 || opts.DedupThreshold > 1 {
		opts.DedupThreshold = 0.85
	}
	if opts.MinFragmentTokens <= 0 {
		opts.MinFragmentTokens = 200
	}
	return &Compressor{est: est, opts: opts}
}

// Compress selects, deduplicates and truncates candidates so the rendered
// text never exceeds floor(tokenBudget*safeFraction)-reserveTokens. It is a
// pure function of its inputs; usage folding is reported, not applied.
func (c *Compressor) Compress(ranked []recall.Scored, tokenBudget int, safeFraction float64, reserveTokens int) Result {
	effective := int(float64(tokenBudget)*safeFraction) - reserveTokens
	if effective <= 0 {
		return Result{IncludedIDs: []string{}, FoldedUsage: map[string]int{}, Merged: map[string][]string{}}
	}

	deduped, folded, merged := c.dedup(ranked)

	var blocks []string
	included := []string{}
	used := 0

	for _, cand := range deduped {
		block := renderBlock(cand.Entry.Category, cand.Entry.Content)
		cost := c.est.Count(block)

		if used+cost <= effective {
			blocks = append(blocks, block)
			included = append(included, cand.Entry.ID)
			used += cost
			continue
		}

		// Doesn't fit whole. Emit a truncated prefix when a meaningful
		// fragment still fits, then stop so we don't shred several
		// entries into confetti.
		remaining := effective - used
		if remaining >= c.opts.MinFragmentTokens {
			label := renderBlock(cand.Entry.Category, "")
			fragment := c.est.Truncate(cand.Entry.Content, remaining-c.est.Count(label))
			if fragment != "" {
				block = renderBlock(cand.Entry.Category, fragment)
				if cost := c.est.Count(block); used+cost <= effective {
					blocks = append(blocks, block)
					included = append(included, cand.Entry.ID)
					used += cost
				}
			}
			break
		}
		// Skip and keep walking: a smaller entry further down may fit.
	}

	keepFolded := map[string]int{}
	keepMerged := map[string][]string{}
	for _, id := range included {
		if n := folded[id]; n > 0 {
			keepFolded[id] = n
		}
		if ids := merged[id]; len(ids) > 0 {
			keepMerged[id] = ids
		}
	}
	return Result{
		Text:        strings.Join(blocks, "\n"),
		IncludedIDs: included,
		TokensUsed:  used,
		FoldedUsage: keepFolded,
		Merged:      keepMerged,
	}
}

// dedup drops candidates that are near-identical to a higher-ranked one,
// recording how much usage should fold into each survivor and which ids
// were folded away.
func (c *Compressor) dedup(ranked []recall.Scored) ([]recall.Scored, map[string]int, map[string][]string) {
	kept := make([]recall.Scored, 0, len(ranked))
	folded := make(map[string]int)
	merged := make(map[string][]string)

	for _, cand := range ranked {
		dup := false
		for _, k := range kept {
			if recall.Jaccard(cand.Entry.Content, k.Entry.Content) > c.opts.DedupThreshold {
				folded[k.Entry.ID] += cand.Entry.UsageCount + 1
				merged[k.Entry.ID] = append(merged[k.Entry.ID], cand.Entry.ID)
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, cand)
		}
	}
	return kept, folded, merged
}

func renderBlock(category, content string) string {
	return "[" + category + "] " + content
}
