// Package metrics tracks cumulative savings counters in metrics.json.
//
// The counters are maintained by callers that compute savings (the CLI
// after a context request), never by the engine itself.
package metrics

import (
	"encoding/json"
	"math"
	"os"
)

// Metrics are the cumulative counters persisted between runs.
type Metrics struct {
	Interactions     int     `json:"interactions"`
	TokensSaved      int     `json:"tokens_saved"`
	CostSavedUSD     float64 `json:"cost_saved_usd"`
	AvgCompression   float64 `json:"avg_compression_ratio"`
	BaselineTokens   int     `json:"baseline_tokens"`
	CompressedTokens int     `json:"compressed_tokens"`
}

// Load reads metrics.json, returning zero counters when absent or stale.
func Load(path string) *Metrics {
	b, err := os.ReadFile(path)
	if err != nil {
		return &Metrics{}
	}
	var m Metrics
	if err := json.Unmarshal(b, &m); err != nil {
		return &Metrics{}
	}
	return &m
}

// Save persists the counters.
func (m *Metrics) Save(path string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// RecordInteraction folds one context request into the counters.
// baselineTokens is what an uncompressed injection would have cost,
// usedTokens what was actually injected, pricePerMillion the input-token
// price used for the dollar estimate.
func (m *Metrics) RecordInteraction(baselineTokens, usedTokens int, pricePerMillion float64) {
	if baselineTokens < usedTokens {
		baselineTokens = usedTokens
	}
	saved := baselineTokens - usedTokens

	m.Interactions++
	m.TokensSaved += saved
	m.BaselineTokens += baselineTokens
	m.CompressedTokens += usedTokens
	m.CostSavedUSD += float64(saved) / 1e6 * pricePerMillion

	if m.CompressedTokens > 0 {
		ratio := float64(m.BaselineTokens) / float64(m.CompressedTokens)
		m.AvgCompression = math.Round(ratio*10) / 10
	}
}
