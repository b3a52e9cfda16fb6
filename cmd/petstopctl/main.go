package main

import (
	"fmt"
	"os"

	"petstop/backend/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(cli.DefaultConfig()).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
