// Package extract pulls candidate memory facts out of raw session text.
//
// Extraction is a replaceable capability behind a small interface. A chain
// of providers is tried in order with a bounded timeout each; the first
// success wins. The heuristic provider sits last and always succeeds, so
// extraction as a whole never hard-fails on a missing capability.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/AWolf81/memory-lane/internal/model"
)

// Candidate is an extracted fact that has not yet passed the surprise gate.
type Candidate struct {
	Category  string  `json:"category"`
	Content   string  `json:"content"`
	Relevance float64 `json:"relevance"`
	Source    string  `json:"source"`
	Strategy  string  `json:"strategy,omitempty"`
}

// Extractor is a single extraction capability provider.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, text string) ([]Candidate, error)
}

// Chain tries providers in order until one returns candidates.
type Chain struct {
	providers []Extractor
	timeout   time.Duration
}

// NewChain builds a provider chain with a per-provider timeout.
func NewChain(timeout time.Duration, providers ...Extractor) *Chain {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Chain{providers: providers, timeout: timeout}
}

// Extract runs the chain. A provider that errors or times out is skipped;
// an empty result from a provider falls through to the next one.
func (c *Chain) Extract(ctx context.Context, text string) ([]Candidate, error) {
	if len(c.providers) == 0 {
		return nil, fmt.Errorf("%w: no extraction providers configured", model.ErrCapabilityUnavailable)
	}

	var lastErr error
	for _, p := range c.providers {
		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		candidates, err := p.Extract(pctx, text)
		cancel()
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", p.Name(), err)
			continue
		}
		if len(candidates) > 0 {
			return sanitize(candidates), nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCapabilityUnavailable, lastErr)
	}
	return nil, nil
}

// sanitize clamps relevance, drops invalid categories and near-verbatim
// repeats within one extraction batch.
func sanitize(in []Candidate) []Candidate {
	out := make([]Candidate, 0, len(in))
	seen := map[string]bool{}
	for _, c := range in {
		if !model.ValidCategory(c.Category) || c.Content == "" {
			continue
		}
		c.Content = model.TruncateContent(c.Content)
		c.Relevance = model.ClampRelevance(c.Relevance)
		key := c.Category + "|" + c.Content
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
