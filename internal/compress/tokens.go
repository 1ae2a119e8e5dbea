package compress

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator counts tokens with one consistent scheme for a whole
// compressor: tiktoken's cl100k_base when the encoding is available,
// otherwise a deterministic words-based heuristic.
type Estimator struct {
	enc *tiktoken.Tiktoken
}

// NewEstimator builds the token estimator. Failure to load the encoding is
// not an error; the heuristic keeps estimates deterministic offline.
func NewEstimator() *Estimator {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &Estimator{}
	}
	return &Estimator{enc: enc}
}

// Count estimates the token cost of text.
func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	if e.enc != nil {
		return len(e.enc.Encode(text, nil, nil))
	}
	// Rough token estimation: words * 1.3.
	return int(float64(len(strings.Fields(text))) * 1.3)
}

// Truncate returns the longest prefix of text that fits maxTokens.
func (e *Estimator) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	if e.Count(text) <= maxTokens {
		return text
	}
	if e.enc != nil {
		tokens := e.enc.Encode(text, nil, nil)
		return e.enc.Decode(tokens[:maxTokens])
	}
	words := strings.Fields(text)
	keep := int(float64(maxTokens) / 1.3)
	if keep >= len(words) {
		keep = len(words) - 1
	}
	if keep <= 0 {
		return ""
	}
	return strings.Join(words[:keep], " ")
}
