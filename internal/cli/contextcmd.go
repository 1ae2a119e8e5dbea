package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AWolf81/memory-lane/internal/compress"
	"github.com/AWolf81/memory-lane/internal/metrics"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [query]",
		Short: "Build a compressed context block for injection",
		Long: "Rank memories against the query, deduplicate near-identical entries and\n" +
			"pack the result into the configured token budget. Included entries get a\n" +
			"usage hit so retention favors what actually gets recalled.",
		Run: runContext,
	}

	cmd.Flags().StringP("category", "c", "", "Filter by category")
	cmd.Flags().IntP("budget", "b", 0, "Model context window in tokens (default from config)")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	budget, _ := cmd.Flags().GetInt("budget")
	query := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}

	var res *compress.Result
	if c := liveClient(); c != nil {
		res, err = c.Context(query, category, budget)
	} else {
		eng, openErr := openEngine()
		if openErr != nil {
			exitErr("open store", openErr)
		}
		res, err = eng.Context(cmd.Context(), query, category, budget)
	}
	if err != nil {
		exitErr("context", err)
	}

	// Savings accounting happens here, not in the engine: the baseline is
	// what a naive full-history injection would have cost.
	m := metrics.Load(cfg.MetricsPath())
	m.RecordInteraction(
		cfg.Int("costs.baseline_tokens", 20000),
		res.TokensUsed,
		cfg.Float("costs.cost_per_million_input_tokens", 3.0),
	)
	if err := m.Save(cfg.MetricsPath()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: save metrics: %v\n", err)
	}

	if formatFlag == "text" {
		fmt.Println(res.Text)
		return
	}
	printJSON(res)
}
