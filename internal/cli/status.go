package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AWolf81/memory-lane/internal/metrics"
	"github.com/AWolf81/memory-lane/internal/model"
	"github.com/AWolf81/memory-lane/internal/service"
	"github.com/AWolf81/memory-lane/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show store statistics and savings counters",
		Run:   runStatus,
	}

	RootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}

	var stats *store.Stats
	serving := false
	if c := liveClient(); c != nil {
		stats, err = c.Stats()
		serving = true
	} else {
		var eng *service.Engine
		eng, err = openEngine()
		if err == nil {
			stats, err = eng.Stats()
		}
	}
	if err != nil {
		exitErr("stats", err)
	}

	m := metrics.Load(cfg.MetricsPath())

	if formatFlag == "text" {
		fmt.Printf("memories: %d (revision %d)\n", stats.TotalMemories, stats.Revision)
		for _, line := range categoryLines(stats) {
			fmt.Println(line)
		}
		fmt.Printf("service: %v\n", serving)
		fmt.Printf("interactions: %d, tokens saved: %d, est. saved: $%.2f\n",
			m.Interactions, m.TokensSaved, m.CostSavedUSD)
		return
	}

	printJSON(map[string]any{
		"stats":   stats,
		"metrics": m,
		"service": serving,
	})
}

// categoryLines renders per-category stats in the fixed category order.
func categoryLines(stats *store.Stats) []string {
	lines := make([]string, 0, len(model.Categories))
	for _, cat := range model.Categories {
		cs, ok := stats.Categories[cat]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-13s %3d  avg relevance %.2f  usage %d",
			cat, cs.Count, cs.AvgRelevance, cs.TotalUsage))
	}
	return lines
}
