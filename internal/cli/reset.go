package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all memories (a backup is taken first)",
		Run:   runReset,
	}

	cmd.Flags().Bool("force", false, "Skip the confirmation prompt")

	RootCmd.AddCommand(cmd)
}

func runReset(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		fmt.Fprint(cmd.OutOrStdout(), "This wipes all memories (a backup is taken first). Continue? [y/N] ")
		var answer string
		fmt.Fscanln(cmd.InOrStdin(), &answer)
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(cmd.OutOrStdout(), "aborted")
			return
		}
	}

	eng, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	if err := eng.Store.Reset(); err != nil {
		exitErr("reset", err)
	}
	printJSON(map[string]any{"reset": true})
}
