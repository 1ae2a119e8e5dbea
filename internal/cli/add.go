package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AWolf81/memory-lane/internal/model"
	"github.com/AWolf81/memory-lane/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Store a memory",
		Long:  "Store a memory. Content can be a positional arg or piped via stdin.",
		Run:   runAdd,
	}

	cmd.Flags().StringP("category", "c", "context-note", "Category: pattern, insight, learning, context-note")
	cmd.Flags().Float64P("relevance", "r", 0.5, "Relevance score in [0,1]")
	cmd.Flags().StringP("source", "s", "manual", "Where this memory came from")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	relevance, _ := cmd.Flags().GetFloat64("relevance")
	source, _ := cmd.Flags().GetString("source")

	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	if strings.TrimSpace(content) == "" {
		exitErr("add", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	params := store.AddParams{
		Category:  category,
		Content:   strings.TrimSpace(content),
		Source:    source,
		Relevance: relevance,
	}

	var entry *model.Entry
	var err error
	if c := liveClient(); c != nil {
		entry, err = c.AddMemory(params)
	} else {
		eng, openErr := openEngine()
		if openErr != nil {
			exitErr("open store", openErr)
		}
		entry, err = eng.AddMemory(params)
	}
	if err != nil {
		exitErr("add", err)
	}
	printJSON(entry)
}
