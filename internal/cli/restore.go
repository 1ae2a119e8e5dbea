package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "restore [backup-file]",
		Short: "Replace the store with a backup snapshot",
		Long: "Replace the current store with a backup snapshot. The current state is\n" +
			"backed up first, so a restore is itself reversible.",
		Args: cobra.ExactArgs(1),
		Run:  runRestore,
	}

	RootCmd.AddCommand(cmd)
}

func runRestore(cmd *cobra.Command, args []string) {
	eng, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	if err := eng.Store.Restore(args[0]); err != nil {
		exitErr("restore", err)
	}

	stats, err := eng.Stats()
	if err != nil {
		exitErr("stats", err)
	}
	printJSON(map[string]any{"restored": args[0], "memories": stats.TotalMemories})
}
