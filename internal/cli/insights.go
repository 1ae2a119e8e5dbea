package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AWolf81/memory-lane/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "List stored insights by relevance",
		Run:   runInsights,
	}

	cmd.Flags().StringP("category", "c", "insight", "Category to list")

	RootCmd.AddCommand(cmd)
}

func runInsights(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")

	var entries []model.Entry
	var err error
	if c := liveClient(); c != nil {
		entries, err = c.Memories(category)
	} else {
		eng, openErr := openEngine()
		if openErr != nil {
			exitErr("open store", openErr)
		}
		entries, err = eng.Memories(category)
	}
	if err != nil {
		exitErr("list memories", err)
	}

	if formatFlag == "text" {
		for _, e := range entries {
			fmt.Printf("%.2f  %s  (used %d)\n", e.RelevanceScore, e.Content, e.UsageCount)
		}
		return
	}
	printJSON(entries)
}
