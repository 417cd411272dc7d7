package main

import (
	"fmt"
	"os"

	"gcl.dev/gcl/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := cli.NewRootCmd(version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gcl: %v\n", err)
		os.Exit(1)
	}
}
