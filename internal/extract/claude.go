package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/AWolf81/memory-lane/internal/model"
)

const extractionSystemPrompt = `You are a memory extraction assistant for a developer knowledge tool.
Analyze development session text and extract KNOWLEDGE, not actions.

Extract: design decisions (why X over Y), problems solved (root cause and
fix), reusable patterns, discovered constraints, project context.
Do NOT extract: individual actions taken, file paths unless architecturally
significant, code snippets, generic advice.

Reply with JSON only, shaped as:
{"memories":[{"category":"pattern|insight|learning|context-note","content":"2-3 sentences","relevance":0.0-1.0}]}`

// ClaudeExtractor uses the Anthropic API to extract memories. It is an
// optional capability; construction fails fast when no API key is set so
// the chain can skip straight to the heuristic backend.
type ClaudeExtractor struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewClaudeExtractor builds the Claude-backed provider from the
// environment. Returns ErrCapabilityUnavailable without an API key.
func NewClaudeExtractor(modelID string, maxTokens int) (*ClaudeExtractor, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY not set", model.ErrCapabilityUnavailable)
	}
	if modelID == "" {
		modelID = "claude-haiku-4-5-20251001"
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	client := anthropic.NewClient(option.WithAPIKey(key))
	return &ClaudeExtractor{client: &client, model: modelID, maxTokens: int64(maxTokens)}, nil
}

// Name implements Extractor.
func (c *ClaudeExtractor) Name() string { return "claude" }

// Extract implements Extractor.
func (c *ClaudeExtractor) Extract(ctx context.Context, text string) ([]Candidate, error) {
	payload, _ := json.Marshal(map[string]any{
		"session_id":     uuid.New().String(),
		"raw_transcript": text,
	})

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: extractionSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(string(payload))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude API error: %w", err)
	}

	var reply strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			reply.WriteString(block.Text)
		}
	}
	return parseExtractionReply(reply.String())
}

// parseExtractionReply tolerates prose around the JSON object.
func parseExtractionReply(reply string) ([]Candidate, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in extraction reply")
	}

	var parsed struct {
		Memories []Candidate `json:"memories"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("parse extraction reply: %w", err)
	}
	for i := range parsed.Memories {
		parsed.Memories[i].Source = "claude-extraction"
		parsed.Memories[i].Strategy = "llm"
	}
	return parsed.Memories, nil
}
