package main

import (
	"fmt"
	"os"

	"github.com/odvcencio/livestate/internal/cli"
)

func main() {
	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(cli.ExitCommandError)
	}

	if err := cli.NewRootCommand(cfg).Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
