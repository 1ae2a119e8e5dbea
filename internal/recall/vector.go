package recall

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/AWolf81/memory-lane/internal/model"
)

// VectorRanker scores candidates by cosine similarity of embeddings,
// caching per-entry vectors in a bounded ristretto cache keyed by entry id
// plus content hash (so edited content re-embeds). Any embedding failure
// falls back to lexical ranking for the whole call.
type VectorRanker struct {
	embedder Embedder
	cache    *ristretto.Cache
	lexical  *LexicalRanker
}

// NewVectorRanker wires the optional embedding capability into a ranker.
// cacheEntries bounds the embedding cache (default 2048).
func NewVectorRanker(embedder Embedder, cacheEntries int64) (*VectorRanker, error) {
	if cacheEntries <= 0 {
		cacheEntries = 2048
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheEntries * 10,
		MaxCost:     cacheEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &VectorRanker{
		embedder: embedder,
		cache:    cache,
		lexical:  NewLexicalRanker(),
	}, nil
}

// Rank implements Ranker.
func (r *VectorRanker) Rank(ctx context.Context, query string, candidates []model.Entry, k int) []Scored {
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return r.lexical.Rank(ctx, query, candidates, k)
	}

	now := time.Now().UTC()
	scored := make([]Scored, 0, len(candidates))
	for _, e := range candidates {
		vec, err := r.entryVector(ctx, e)
		if err != nil {
			return r.lexical.Rank(ctx, query, candidates, k)
		}
		base := CosineSimilarity(queryVec, vec)
		scored = append(scored, Scored{Entry: e, Score: boost(base, e, now)})
	}
	return top(scored, k)
}

func (r *VectorRanker) entryVector(ctx context.Context, e model.Entry) (Vector, error) {
	sum := sha256.Sum256([]byte(e.Content))
	key := e.ID + ":" + hex.EncodeToString(sum[:8])

	if v, ok := r.cache.Get(key); ok {
		if vec, ok := v.(Vector); ok {
			return vec, nil
		}
	}
	vec, err := r.embedder.Embed(ctx, e.Content)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, vec, 1)
	return vec, nil
}

// NewRanker selects the ranking strategy once at startup: vector mode when
// an embedder is available, lexical otherwise.
func NewRanker(embedder Embedder, cacheEntries int64) (Ranker, error) {
	if embedder == nil {
		return NewLexicalRanker(), nil
	}
	return NewVectorRanker(embedder, cacheEntries)
}
