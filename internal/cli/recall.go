package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recall [query]",
		Short: "Rank stored memories against a query",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRecall,
	}

	cmd.Flags().StringP("category", "c", "", "Filter by category")
	cmd.Flags().IntP("limit", "n", 0, "Maximum results (default from config)")

	RootCmd.AddCommand(cmd)
}

func runRecall(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	eng, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}

	scored, err := eng.Recall(cmd.Context(), query, category, limit)
	if err != nil {
		exitErr("recall", err)
	}

	if formatFlag == "text" {
		for _, s := range scored {
			fmt.Printf("%.3f  [%s] %s\n", s.Score, s.Entry.Category, s.Entry.Content)
		}
		return
	}
	printJSON(scored)
}
