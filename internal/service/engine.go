// Package service exposes the memory engine over a per-workspace unix
// socket with a newline-delimited JSON protocol, plus the client used by
// the CLI. The Engine type binds store, ranker and compressor together and
// is shared by the server and by CLI invocations running without a server.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/AWolf81/memory-lane/internal/compress"
	"github.com/AWolf81/memory-lane/internal/config"
	"github.com/AWolf81/memory-lane/internal/model"
	"github.com/AWolf81/memory-lane/internal/recall"
	"github.com/AWolf81/memory-lane/internal/store"
)

// Engine wires the core components for one workspace.
type Engine struct {
	Cfg    *config.Config
	Store  *store.Store
	Ranker recall.Ranker
	Comp   *compress.Compressor
}

// NewEngine builds the engine from a loaded configuration. The ranking
// strategy is selected here, once: vector when an embedding provider is
// configured, lexical otherwise.
func NewEngine(cfg *config.Config) (*Engine, error) {
	st, err := store.Open(cfg.EntriesPath(), cfg.BackupDir())
	if err != nil {
		return nil, err
	}

	embedder := recall.NewEmbedder(recall.EmbedderConfig{
		Provider: cfg.String("recall.embedding_provider", ""),
		Model:    cfg.String("recall.embedding_model", ""),
	})
	ranker, err := recall.NewRanker(embedder, int64(cfg.Int("recall.cache_entries", 2048)))
	if err != nil {
		return nil, err
	}

	comp := compress.New(compress.NewEstimator(), compress.Options{
		DedupThreshold:    cfg.Float("compression.dedup_similarity_threshold", 0.85),
		MinFragmentTokens: cfg.Int("compression.min_fragment_tokens", 200),
	})

	return &Engine{Cfg: cfg, Store: st, Ranker: ranker, Comp: comp}, nil
}

// Stats returns aggregate store statistics.
func (e *Engine) Stats() (*store.Stats, error) {
	return e.Store.Stats()
}

// Memories lists entries, optionally filtered by category, ordered by
// descending relevance.
func (e *Engine) Memories(category string) ([]model.Entry, error) {
	return e.Store.List(category, true)
}

// AddMemory validates and persists a new entry.
func (e *Engine) AddMemory(p store.AddParams) (*model.Entry, error) {
	return e.Store.Add(p)
}

// Recall ranks stored entries against a query without mutating usage.
func (e *Engine) Recall(ctx context.Context, query, category string, limit int) ([]recall.Scored, error) {
	entries, err := e.Store.List(category, false)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = e.Cfg.Int("memory.default_limit", 20)
	}
	return e.Ranker.Rank(ctx, query, entries, limit), nil
}

// Context ranks, deduplicates and compresses memories into a token-bounded
// block, then records a usage hit for every included entry. Duplicates
// merged away during deduplication fold their usage into the survivor and
// are deleted from the store.
func (e *Engine) Context(ctx context.Context, query, category string, tokenBudget int) (*compress.Result, error) {
	ranked, err := e.Recall(ctx, query, category, 0)
	if err != nil {
		return nil, err
	}

	if tokenBudget <= 0 {
		tokenBudget = e.Cfg.Int("compression.model_context_tokens", 200000)
	}
	res := e.Comp.Compress(ranked,
		tokenBudget,
		e.Cfg.Float("compression.safe_fraction", 0.5),
		e.Cfg.Int("compression.reserve_tokens", 1200),
	)

	for _, id := range res.IncludedIDs {
		if _, err := e.Store.Touch(id); err != nil {
			return nil, fmt.Errorf("record usage for %s: %w", id, err)
		}
		if n := res.FoldedUsage[id]; n > 0 {
			if _, err := e.Store.FoldUsage(id, n); err != nil {
				return nil, fmt.Errorf("fold usage into %s: %w", id, err)
			}
		}
		if dropped := res.Merged[id]; len(dropped) > 0 {
			if _, err := e.Store.Remove(dropped...); err != nil {
				return nil, fmt.Errorf("remove duplicates of %s: %w", id, err)
			}
		}
	}
	return &res, nil
}

// Prune applies retention limits, using configured defaults for zero args.
func (e *Engine) Prune(maxSize int, minRelevance float64) (int, error) {
	if maxSize <= 0 {
		maxSize = e.Cfg.Int("memory.max_store_size", 600)
	}
	if minRelevance <= 0 {
		minRelevance = e.Cfg.Float("memory.min_relevance", 0.3)
	}
	return e.Store.Prune(maxSize, minRelevance)
}

// UpdateUsage adds n usage hits to an entry (n defaults to 1).
func (e *Engine) UpdateUsage(id string, n int) (*model.Entry, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty entry id", model.ErrNotFound)
	}
	if n <= 0 {
		n = 1
	}
	return e.Store.FoldUsage(id, n)
}

// ExtractionTimeout is the per-provider timeout for the extraction chain.
func (e *Engine) ExtractionTimeout() time.Duration {
	return time.Duration(e.Cfg.Int("extraction.timeout_seconds", 60)) * time.Second
}
