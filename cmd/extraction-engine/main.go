package main

import (
	"fmt"
	"os"

	"github.com/skillforge/extraction-engine/cmd/extraction-engine/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
