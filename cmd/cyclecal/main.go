package main

import (
	"fmt"
	"os"

	"cyclecal/internal/commands"
)

var version = "0.1.0-dev"

func main() {
	if err := commands.Execute(os.Args, version); err != nil {
		fmt.Fprintf(os.Stderr, "cyclecal: %s\n", err)
		os.Exit(1)
	}
}
