package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a timestamped snapshot backup",
		Run:   runBackup,
	}

	cmd.Flags().Bool("list", false, "List existing backups instead of creating one")

	RootCmd.AddCommand(cmd)
}

func runBackup(cmd *cobra.Command, args []string) {
	list, _ := cmd.Flags().GetBool("list")

	eng, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}

	if list {
		backups, err := eng.Store.Backups()
		if err != nil {
			exitErr("list backups", err)
		}
		printJSON(backups)
		return
	}

	path, err := eng.Store.Backup()
	if err != nil {
		exitErr("backup", err)
	}
	printJSON(map[string]string{"backup": path})
}
