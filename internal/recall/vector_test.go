package recall

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/AWolf81/memory-lane/internal/model"
)

// stubEmbedder maps known texts to fixed vectors and counts calls.
type stubEmbedder struct {
	vectors map[string]Vector
	fail    bool
	calls   atomic.Int64
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (Vector, error) {
	s.calls.Add(1)
	if s.fail {
		return nil, errors.New("embedding backend down")
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return Vector{0, 0, 1}, nil
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity(Vector{1, 0}, Vector{1, 0}); got < 0.999 {
		t.Errorf("parallel vectors: expected ~1, got %f", got)
	}
	if got := CosineSimilarity(Vector{1, 0}, Vector{0, 1}); got > 0.001 {
		t.Errorf("orthogonal vectors: expected ~0, got %f", got)
	}
	if got := CosineSimilarity(Vector{}, Vector{1}); got != 0 {
		t.Errorf("mismatched lengths: expected 0, got %f", got)
	}
}

func TestVectorRankOrdering(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string]Vector{
		"query text":      {1, 0, 0},
		"close content":   {0.9, 0.1, 0},
		"distant content": {0, 1, 0},
	}}
	r, err := NewVectorRanker(emb, 16)
	if err != nil {
		t.Fatalf("new vector ranker: %v", err)
	}

	candidates := []model.Entry{
		entry("far", "distant content", 0.5),
		entry("near", "close content", 0.5),
	}
	got := r.Rank(context.Background(), "query text", candidates, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Entry.ID != "near" {
		t.Errorf("expected cosine-closest entry first, got %q", got[0].Entry.ID)
	}
}

func TestVectorRankFallsBackToLexical(t *testing.T) {
	emb := &stubEmbedder{fail: true}
	r, err := NewVectorRanker(emb, 16)
	if err != nil {
		t.Fatalf("new vector ranker: %v", err)
	}

	candidates := []model.Entry{
		entry("miss", "unrelated words only", 0.5),
		entry("hit", "atomic rename commit", 0.5),
	}
	got := r.Rank(context.Background(), "atomic rename commit", candidates, 0)
	if len(got) != 2 {
		t.Fatalf("expected lexical fallback results, got %d", len(got))
	}
	if got[0].Entry.ID != "hit" {
		t.Errorf("lexical fallback not applied, got %q first", got[0].Entry.ID)
	}
}

func TestNewRankerSelection(t *testing.T) {
	r, err := NewRanker(nil, 0)
	if err != nil {
		t.Fatalf("new ranker: %v", err)
	}
	if _, ok := r.(*LexicalRanker); !ok {
		t.Errorf("expected lexical ranker without embedder, got %T", r)
	}

	r, err = NewRanker(&stubEmbedder{}, 0)
	if err != nil {
		t.Fatalf("new ranker with embedder: %v", err)
	}
	if _, ok := r.(*VectorRanker); !ok {
		t.Errorf("expected vector ranker with embedder, got %T", r)
	}
}
