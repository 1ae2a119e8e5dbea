// Package threshold decides which observations are novel enough to keep.
//
// The gate tracks the distribution of recent surprise scores in a bounded
// ring buffer and accepts a score when it clears a smoothed percentile
// cutoff. During warmup the cutoff sits at the low bound so nearly
// everything is admitted and the distribution can establish a baseline.
package threshold

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"
)

// Options configure a Gate. Zero values fall back to defaults.
type Options struct {
	WarmupCount int     // observations before the percentile cutoff engages (default 100)
	Percentile  float64 // target percentile of the window (default 75)
	EMAAlpha    float64 // smoothing weight on the previous cutoff (default 0.7)
	WindowSize  int     // ring buffer capacity (default 256)
	LowBound    float64 // lower edge of the valid surprise range (default 0)
	HighBound   float64 // upper edge of the valid surprise range (default 1)
}

func (o Options) withDefaults() Options {
	if o.WarmupCount <= 0 {
		o.WarmupCount = 100
	}
	if o.Percentile <= 0 || o.Percentile > 100 {
		o.Percentile = 75
	}
	if o.EMAAlpha <= 0 || o.EMAAlpha >= 1 {
		o.EMAAlpha = 0.7
	}
	if o.WindowSize <= 0 {
		o.WindowSize = 256
	}
	if o.HighBound <= o.LowBound {
		o.LowBound, o.HighBound = 0, 1
	}
	return o
}

// State is the checkpointable rolling-surprise state. It is not required
// to survive restarts, but checkpointing it keeps the cutoff continuous.
type State struct {
	Window    []float64 `json:"window"` // most recent scores, oldest first
	Seen      int64     `json:"seen"`
	Threshold float64   `json:"threshold"`
	SavedAt   time.Time `json:"saved_at,omitempty"`
}

// Gate evaluates surprise scores against the adaptive cutoff.
type Gate struct {
	opts Options

	window []float64 // ring buffer
	head   int
	filled int
	seen   int64
	used   float64 // last cutoff actually applied
}

// NewGate creates a gate with the given options.
func NewGate(opts Options) *Gate {
	opts = opts.withDefaults()
	return &Gate{
		opts:   opts,
		window: make([]float64, opts.WindowSize),
		used:   opts.LowBound,
	}
}

// Evaluate scores one observation. The score is clamped into the gate's
// declared range, recorded in the window regardless of outcome, and
// compared against the current cutoff. Returns the accept decision and the
// cutoff that was used.
func (g *Gate) Evaluate(surprise float64) (bool, float64) {
	surprise = g.clamp(surprise)

	used := g.cutoff()
	// Warmup and cold start admit everything in range: there is no
	// distribution to judge against yet.
	warming := g.seen < int64(g.opts.WarmupCount) || g.filled == 0
	accept := warming || surprise > used

	g.push(surprise)
	g.seen++
	g.used = used
	return accept, used
}

// cutoff computes the threshold for the next evaluation.
func (g *Gate) cutoff() float64 {
	if g.seen < int64(g.opts.WarmupCount) || g.filled == 0 {
		return g.opts.LowBound
	}
	p := g.percentile(g.opts.Percentile)
	// EMA blend keeps the cutoff from oscillating with every new score.
	return g.opts.EMAAlpha*g.used + (1-g.opts.EMAAlpha)*p
}

func (g *Gate) clamp(v float64) float64 {
	if v < g.opts.LowBound {
		return g.opts.LowBound
	}
	if v > g.opts.HighBound {
		return g.opts.HighBound
	}
	return v
}

func (g *Gate) push(v float64) {
	g.window[g.head] = v
	g.head = (g.head + 1) % len(g.window)
	if g.filled < len(g.window) {
		g.filled++
	}
}

// percentile computes the p-th percentile of the window with linear
// interpolation between order statistics.
func (g *Gate) percentile(p float64) float64 {
	scores := make([]float64, g.filled)
	copy(scores, g.window[:g.filled])
	sort.Float64s(scores)

	if len(scores) == 1 {
		return scores[0]
	}
	rank := p / 100 * float64(len(scores)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return scores[lo]
	}
	frac := rank - float64(lo)
	return scores[lo]*(1-frac) + scores[hi]*frac
}

// Seen returns the number of observations evaluated so far.
func (g *Gate) Seen() int64 { return g.seen }

// Snapshot captures the gate's rolling state for checkpointing.
func (g *Gate) Snapshot() State {
	window := make([]float64, 0, g.filled)
	// Oldest first: walk the ring from head when full.
	if g.filled == len(g.window) {
		window = append(window, g.window[g.head:]...)
		window = append(window, g.window[:g.head]...)
	} else {
		window = append(window, g.window[:g.filled]...)
	}
	return State{Window: window, Seen: g.seen, Threshold: g.used, SavedAt: time.Now().UTC()}
}

// RestoreState loads a previously checkpointed state into the gate.
func (g *Gate) RestoreState(st State) {
	g.window = make([]float64, g.opts.WindowSize)
	g.head, g.filled = 0, 0
	start := 0
	if len(st.Window) > g.opts.WindowSize {
		start = len(st.Window) - g.opts.WindowSize
	}
	for _, v := range st.Window[start:] {
		g.push(g.clamp(v))
	}
	g.seen = st.Seen
	g.used = st.Threshold
	if g.used < g.opts.LowBound {
		g.used = g.opts.LowBound
	}
}

// SaveCheckpoint writes the state to a JSON file (best effort continuity).
func (g *Gate) SaveCheckpoint(path string) error {
	b, err := json.MarshalIndent(g.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write threshold checkpoint: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadCheckpoint restores state from a JSON file if present; a missing or
// unreadable checkpoint simply leaves the gate cold.
func (g *Gate) LoadCheckpoint(path string) error {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil // stale checkpoint, start cold
	}
	g.RestoreState(st)
	return nil
}
