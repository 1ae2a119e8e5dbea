package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories as Markdown",
		Run:   runExport,
	}

	cmd.Flags().StringP("category", "c", "", "Filter by category")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")

	eng, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	md, err := eng.Store.Markdown(category)
	if err != nil {
		exitErr("export", err)
	}
	fmt.Println(md)
}
