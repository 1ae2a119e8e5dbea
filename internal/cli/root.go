// Package cli implements the memory-lane CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AWolf81/memory-lane/internal/config"
	"github.com/AWolf81/memory-lane/internal/service"
)

var (
	dataDir    string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memory-lane",
	Short: "Adaptive memory for development sessions",
	Long: "Persistent, self-pruning memory for development sessions. Learns what is\n" +
		"worth keeping, recalls it by query and compresses it into a token budget.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dataDir, "dir", "d", "", "Data directory (default: $MEMORY_LANE_DIR or ./.memory-lane)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func getDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if env := os.Getenv("MEMORY_LANE_DIR"); env != "" {
		return env
	}
	return config.DirName
}

func loadConfig() (*config.Config, error) {
	return config.Load(getDataDir())
}

func openEngine() (*service.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return service.NewEngine(cfg)
}

// liveClient returns a connected client when a server answers on this
// workspace's socket, nil otherwise. Commands prefer the server and fall
// back to direct store access.
func liveClient() *service.Client {
	c := service.NewClient(service.SocketPath(getDataDir()))
	if c.Ping() {
		return c
	}
	return nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
