package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AWolf81/memory-lane/internal/logging"
	"github.com/AWolf81/memory-lane/internal/service"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run and manage the workspace memory service",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Run the service in the foreground",
		Run:   runServeStart,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Ask a running service to drain and exit",
		Run:   runServeStop,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether a service answers on this workspace's socket",
		Run:   runServeStatus,
	})

	RootCmd.AddCommand(cmd)
}

func runServeStart(cmd *cobra.Command, args []string) {
	eng, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}

	log, logErr := logging.New(eng.Cfg.LogDir(), "service")
	if logErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: logging to stderr: %v\n", logErr)
	}
	defer log.Close()

	srv := service.NewServer(eng, service.SocketPath(getDataDir()), log)
	if err := srv.Start(); err != nil {
		if errors.Is(err, service.ErrAlreadyRunning) {
			// A live peer on the socket means the work is already done.
			printJSON(map[string]any{"running": true, "socket": srv.SocketPath()})
			return
		}
		exitErr("start service", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "serving on %s (session %s)\n", srv.SocketPath(), log.SessionID())
	if err := srv.Serve(); err != nil {
		exitErr("serve", err)
	}
}

func runServeStop(cmd *cobra.Command, args []string) {
	c := service.NewClient(service.SocketPath(getDataDir()))
	if !c.Ping() {
		printJSON(map[string]any{"running": false})
		return
	}
	if err := c.Shutdown(); err != nil {
		exitErr("stop service", err)
	}
	printJSON(map[string]any{"running": false, "stopped": true})
}

func runServeStatus(cmd *cobra.Command, args []string) {
	path := service.SocketPath(getDataDir())
	running := service.NewClient(path).Ping()
	printJSON(map[string]any{"running": running, "socket": path})
}
