package main

import (
	"os"

	"github.com/AWolf81/memory-lane/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
