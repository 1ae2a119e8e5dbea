package threshold

import (
	"math/rand"
	"path/filepath"
	"testing"
)

func TestWarmupAcceptsEverything(t *testing.T) {
	g := NewGate(Options{WarmupCount: 50})

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		ok, _ := g.Evaluate(r.Float64())
		if !ok {
			t.Fatalf("observation %d rejected during warmup", i)
		}
	}
	// The low bound itself is still in range and accepted during warmup.
	g2 := NewGate(Options{WarmupCount: 10, LowBound: 0.2, HighBound: 0.8})
	if ok, _ := g2.Evaluate(0.2); !ok {
		t.Error("low-bound score rejected during warmup")
	}
}

func TestPostWarmupAcceptanceRate(t *testing.T) {
	g := NewGate(Options{WarmupCount: 100, WindowSize: 256})

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		g.Evaluate(r.Float64())
	}

	// Let the EMA settle, then measure over a long stationary run. The
	// cutoff targets the 75th percentile, so roughly a quarter get in.
	for i := 0; i < 1000; i++ {
		g.Evaluate(r.Float64())
	}
	accepted := 0
	const n = 4000
	for i := 0; i < n; i++ {
		if ok, _ := g.Evaluate(r.Float64()); ok {
			accepted++
		}
	}
	rate := float64(accepted) / n
	if rate < 0.17 || rate > 0.33 {
		t.Errorf("acceptance rate %.3f, expected ~0.25", rate)
	}
}

func TestCutoffStaysInBounds(t *testing.T) {
	g := NewGate(Options{WarmupCount: 10, LowBound: 0.1, HighBound: 0.9})

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		_, cutoff := g.Evaluate(r.Float64() * 2) // deliberately out of range
		if cutoff < 0.1 || cutoff > 0.9 {
			t.Fatalf("cutoff %f escaped [0.1, 0.9]", cutoff)
		}
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	g := NewGate(Options{WarmupCount: 5, WindowSize: 8})
	for _, v := range []float64{0.1, 0.9, 0.3, 0.7, 0.5, 0.6, 0.2} {
		g.Evaluate(v)
	}
	st := g.Snapshot()

	g2 := NewGate(Options{WarmupCount: 5, WindowSize: 8})
	g2.RestoreState(st)

	ok1, c1 := g.Evaluate(0.55)
	ok2, c2 := g2.Evaluate(0.55)
	if ok1 != ok2 || c1 != c2 {
		t.Errorf("restored gate diverged: (%v, %f) vs (%v, %f)", ok1, c1, ok2, c2)
	}
}

func TestCheckpointFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threshold.json")

	g := NewGate(Options{WarmupCount: 3, WindowSize: 8})
	for _, v := range []float64{0.4, 0.8, 0.2, 0.6} {
		g.Evaluate(v)
	}
	if err := g.SaveCheckpoint(path); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}

	g2 := NewGate(Options{WarmupCount: 3, WindowSize: 8})
	if err := g2.LoadCheckpoint(path); err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	if g2.Seen() != g.Seen() {
		t.Errorf("expected seen %d after load, got %d", g.Seen(), g2.Seen())
	}
}

func TestCheckpointMissingIsColdStart(t *testing.T) {
	g := NewGate(Options{})
	if err := g.LoadCheckpoint(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("missing checkpoint should cold-start, got %v", err)
	}
	if g.Seen() != 0 {
		t.Errorf("expected fresh gate, seen=%d", g.Seen())
	}
}
