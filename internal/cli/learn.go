package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AWolf81/memory-lane/internal/config"
	"github.com/AWolf81/memory-lane/internal/extract"
	"github.com/AWolf81/memory-lane/internal/model"
	"github.com/AWolf81/memory-lane/internal/recall"
	"github.com/AWolf81/memory-lane/internal/service"
	"github.com/AWolf81/memory-lane/internal/store"
	"github.com/AWolf81/memory-lane/internal/threshold"
)

func init() {
	cmd := &cobra.Command{
		Use:   "learn [text]",
		Short: "Extract memories from session text and keep the surprising ones",
		Long: "Extract candidate memories from raw session text (positional arg, stdin or\n" +
			"--file), score each candidate's novelty against the existing store and keep\n" +
			"only those that clear the adaptive surprise threshold.",
		Run: runLearn,
	}

	cmd.Flags().String("file", "", "Read session text from a file")
	cmd.Flags().StringP("source", "s", "session", "Source label for stored memories")
	cmd.Flags().Bool("dry-run", false, "Show the gate decisions without storing anything")

	RootCmd.AddCommand(cmd)
}

func runLearn(cmd *cobra.Command, args []string) {
	file, _ := cmd.Flags().GetString("file")
	source, _ := cmd.Flags().GetString("source")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if file != "" && excludedInput(cfg, file) {
		exitErr("learn", fmt.Errorf("%s matches a privacy exclude pattern", file))
	}

	text := readLearnInput(cmd, args, file)
	if strings.TrimSpace(text) == "" {
		exitErr("learn", fmt.Errorf("no input text (positional arg, stdin or --file)"))
	}

	// Writes go through the running service when one answers, so the
	// service's store instance never races a direct writer.
	client := liveClient()
	var eng *service.Engine
	if client == nil {
		eng, err = service.NewEngine(cfg)
		if err != nil {
			exitErr("open store", err)
		}
	}

	// Provider chain per configured backend. The heuristic backend always
	// terminates the chain so a missing API key never fails the command.
	var providers []extract.Extractor
	backend := cfg.String("extraction.backend", "auto")
	if backend == "auto" || backend == "claude" {
		claude, err := extract.NewClaudeExtractor(
			cfg.String("extraction.claude_model", ""),
			cfg.Int("extraction.claude_max_tokens", 2048),
		)
		if err == nil {
			providers = append(providers, claude)
		} else if backend == "claude" {
			fmt.Fprintf(os.Stderr, "warning: %v, falling back to regex extraction\n", err)
		}
	}
	providers = append(providers, extract.NewHeuristicExtractor(source))
	timeout := time.Duration(cfg.Int("extraction.timeout_seconds", 60)) * time.Second
	chain := extract.NewChain(timeout, providers...)

	candidates, err := chain.Extract(cmd.Context(), text)
	if err != nil {
		exitErr("extract", err)
	}

	var existing []model.Entry
	if client != nil {
		existing, err = client.Memories("")
	} else {
		existing, err = eng.Store.List("", false)
	}
	if err != nil {
		exitErr("list memories", err)
	}

	gate := threshold.NewGate(threshold.Options{
		WarmupCount: cfg.Int("threshold.warmup_count", 100),
		Percentile:  cfg.Float("threshold.percentile", 75),
		EMAAlpha:    cfg.Float("threshold.ema_alpha", 0.7),
		WindowSize:  cfg.Int("threshold.window_size", 256),
		LowBound:    cfg.Float("threshold.low_bound", 0),
		HighBound:   cfg.Float("threshold.high_bound", 1),
	})
	if err := gate.LoadCheckpoint(cfg.ThresholdPath()); err != nil {
		exitErr("load threshold checkpoint", err)
	}

	type decision struct {
		Candidate extract.Candidate `json:"candidate"`
		Novelty   float64           `json:"novelty"`
		Cutoff    float64           `json:"cutoff"`
		Accepted  bool              `json:"accepted"`
		ID        string            `json:"id,omitempty"`
	}
	decisions := make([]decision, 0, len(candidates))
	accepted := 0

	for _, cand := range candidates {
		novelty := recall.Novelty(cand.Content, existing)
		ok, cutoff := gate.Evaluate(novelty)
		d := decision{Candidate: cand, Novelty: novelty, Cutoff: cutoff, Accepted: ok}

		if ok && !dryRun {
			params := store.AddParams{
				Category:  cand.Category,
				Content:   cand.Content,
				Source:    cand.Source,
				Relevance: cand.Relevance,
			}
			var entry *model.Entry
			if client != nil {
				entry, err = client.AddMemory(params)
			} else {
				entry, err = eng.Store.Add(params)
			}
			if err != nil {
				exitErr("store memory", err)
			}
			d.ID = entry.ID
			existing = append(existing, *entry)
		}
		if ok {
			accepted++
		}
		decisions = append(decisions, d)
	}

	if !dryRun {
		if err := gate.SaveCheckpoint(cfg.ThresholdPath()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: save threshold checkpoint: %v\n", err)
		}
	}

	if formatFlag == "text" {
		for _, d := range decisions {
			verdict := "drop"
			if d.Accepted {
				verdict = "keep"
			}
			fmt.Printf("%s  novelty %.3f (cutoff %.3f)  [%s] %s\n",
				verdict, d.Novelty, d.Cutoff, d.Candidate.Category, d.Candidate.Content)
		}
		fmt.Printf("extracted %d, kept %d\n", len(candidates), accepted)
		return
	}
	printJSON(map[string]any{
		"extracted": len(candidates),
		"kept":      accepted,
		"decisions": decisions,
	})
}

// excludedInput reports whether a learn input file matches a privacy
// exclude pattern, checking both the given path and its form relative to
// the working directory.
func excludedInput(cfg *config.Config, path string) bool {
	if cfg.Excluded(path) {
		return true
	}
	if wd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(wd, path); err == nil && cfg.Excluded(rel) {
			return true
		}
	}
	return false
}

func readLearnInput(cmd *cobra.Command, args []string, file string) string {
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			exitErr("read file", err)
		}
		return string(b)
	}
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return string(b)
	}
	return ""
}
