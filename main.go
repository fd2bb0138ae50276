package main

import (
	"fmt"
	"os"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/cli"
)

// main - is the entry point of the application. Configuration and logging are set up by the cli package.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
