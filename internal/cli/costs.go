package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AWolf81/memory-lane/internal/metrics"
)

func init() {
	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Show estimated token and cost savings",
		Run:   runCosts,
	}

	RootCmd.AddCommand(cmd)
}

func runCosts(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	m := metrics.Load(cfg.MetricsPath())

	if formatFlag == "text" {
		fmt.Printf("interactions:       %d\n", m.Interactions)
		fmt.Printf("tokens saved:       %d\n", m.TokensSaved)
		fmt.Printf("est. cost saved:    $%.4f\n", m.CostSavedUSD)
		if m.AvgCompression > 0 {
			fmt.Printf("avg compression:    %.1fx\n", m.AvgCompression)
		}
		return
	}
	printJSON(m)
}
