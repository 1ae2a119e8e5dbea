package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print a value by dot-notation key",
		Args:  cobra.ExactArgs(1),
		Run:   runConfigGet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set a value by dot-notation key",
		Args:  cobra.ExactArgs(2),
		Run:   runConfigSet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the full merged configuration",
		Run:   runConfigList,
	})

	RootCmd.AddCommand(cmd)
}

func runConfigGet(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	v := cfg.Get(args[0])
	if v == nil {
		exitErr("config get", fmt.Errorf("unknown key %q", args[0]))
	}
	printJSON(v)
}

func runConfigSet(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}

	// Keep numbers and booleans typed; everything else is a string unless
	// it parses as JSON (for list values like exclude patterns).
	var value any = args[1]
	if n, err := strconv.ParseFloat(args[1], 64); err == nil {
		value = n
	} else if b, err := strconv.ParseBool(args[1]); err == nil {
		value = b
	} else {
		var parsed any
		if err := json.Unmarshal([]byte(args[1]), &parsed); err == nil {
			value = parsed
		}
	}

	if err := cfg.Set(args[0], value); err != nil {
		exitErr("config set", err)
	}
	printJSON(map[string]any{"key": args[0], "value": value})
}

func runConfigList(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	printJSON(cfg.All())
}
