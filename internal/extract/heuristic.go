package extract

import (
	"context"
	"regexp"
	"strings"
)

// insightPattern pairs a regex with the category and base relevance of the
// facts it recognizes.
type insightPattern struct {
	re        *regexp.Regexp
	category  string
	relevance float64
}

// Patterns that indicate a sentence carries durable knowledge rather than
// an action log line: decisions with rationale, root causes, fixes, rules,
// and configuration locations.
var insightPatterns = []insightPattern{
	{regexp.MustCompile(`(?i)(?:chose|chosen|use|using|picked|selected)\s+(.+?)\s+(?:over|instead of|rather than)\s+(.+?)\s+(?:because|for|due to|since)\s+`), "pattern", 0.95},
	{regexp.MustCompile(`(?i)([\w -]{2,30})\s+over\s+([\w -]{2,30})\s*[:\-]\s*.{10,}`), "pattern", 0.9},
	{regexp.MustCompile(`(?i)(?:use\s+)?([\w -]{2,25}),\s*not\s+([\w -]{2,25})`), "pattern", 0.85},
	{regexp.MustCompile(`(?i)(?:pattern|approach|technique|convention)\s*:\s*.{10,}`), "pattern", 0.8},

	{regexp.MustCompile(`(?i)(?:turns out|realized|discovered|learned|found)\s+(?:that\s+)?.{10,}`), "insight", 0.85},
	{regexp.MustCompile(`(?i).{5,}\s+(?:is|are|was|were)\s+(?:better|faster|slower|simpler|easier|safer)\s+than\s+.{3,}`), "insight", 0.85},
	{regexp.MustCompile(`(?i)(?:the reason|rationale)\s+(?:for|behind)\s+.{10,}`), "insight", 0.85},

	{regexp.MustCompile(`(?i)(?:fixed|solved|resolved)\s+(?:by|with|it by)\s+.{10,}`), "learning", 0.95},
	{regexp.MustCompile(`(?i)(?:the\s+)?(?:issue|bug|problem|error|root cause)\s+(?:was|is)\s+(?:caused by|due to)?\s*.{10,}`), "learning", 0.9},
	{regexp.MustCompile(`(?i)(?:the\s+)?(?:fix|solution|answer)\s+(?:was|is)\s+(?:to\s+)?.{10,}`), "learning", 0.9},
	{regexp.MustCompile(`(?i)(?:always|never|must|should)\s+.{5,}\s+(?:when|before|after)\s+.{3,}`), "learning", 0.85},

	{regexp.MustCompile(`(?i)(?:configured?|stored|saved|located)\s+(?:in|at)\s+\S+`), "context-note", 0.7},
	{regexp.MustCompile(`(?i)(?:file|path|location)\s+(?:is|at)\s+\S+`), "context-note", 0.7},
}

// highValueWords nudge relevance up when present in the sentence.
var highValueWords = []string{
	"critical", "important", "always", "never", "must",
	"error", "bug", "fix", "performance", "security",
	"architecture", "design", "pattern", "api", "authentication",
}

// HeuristicExtractor is the zero-dependency regex backend. It always
// succeeds (possibly with no candidates), so it terminates the chain.
type HeuristicExtractor struct {
	source string
}

// NewHeuristicExtractor tags extracted candidates with the given source.
func NewHeuristicExtractor(source string) *HeuristicExtractor {
	if source == "" {
		source = "heuristic"
	}
	return &HeuristicExtractor{source: source}
}

// Name implements Extractor.
func (h *HeuristicExtractor) Name() string { return "heuristic" }

// Extract implements Extractor.
func (h *HeuristicExtractor) Extract(_ context.Context, text string) ([]Candidate, error) {
	var out []Candidate
	for _, sentence := range splitSentences(text) {
		if len(sentence) < 15 || len(sentence) > 400 {
			continue
		}
		for _, p := range insightPatterns {
			if !p.re.MatchString(sentence) {
				continue
			}
			out = append(out, Candidate{
				Category:  p.category,
				Content:   sentence,
				Relevance: boostRelevance(sentence, p.relevance),
				Source:    h.source,
				Strategy:  "regex",
			})
			break // first matching pattern wins for a sentence
		}
	}
	return out, nil
}

func boostRelevance(sentence string, base float64) float64 {
	lower := strings.ToLower(sentence)
	for _, w := range highValueWords {
		if strings.Contains(lower, w) {
			base += 0.02
		}
	}
	if base > 1 {
		base = 1
	}
	return base
}

var sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

func splitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
