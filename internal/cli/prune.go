package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Apply retention limits to the store",
		Long: "Remove entries below the minimum relevance, then trim the lowest-relevance\n" +
			"remainder until the store is at or under its size cap.",
		Run: runPrune,
	}

	cmd.Flags().Int("max-size", 0, "Store size cap (default from config)")
	cmd.Flags().Float64("min-relevance", 0, "Minimum relevance to keep (default from config)")

	RootCmd.AddCommand(cmd)
}

func runPrune(cmd *cobra.Command, args []string) {
	maxSize, _ := cmd.Flags().GetInt("max-size")
	minRelevance, _ := cmd.Flags().GetFloat64("min-relevance")

	var removed int
	var err error
	if c := liveClient(); c != nil {
		removed, err = c.Prune(maxSize, minRelevance)
	} else {
		eng, openErr := openEngine()
		if openErr != nil {
			exitErr("open store", openErr)
		}
		removed, err = eng.Prune(maxSize, minRelevance)
	}
	if err != nil {
		exitErr("prune", err)
	}
	printJSON(map[string]int{"removed": removed})
}
