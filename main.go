// Command motomarket-chat runs the marketplace chat service.
package main

import (
	"fmt"
	"os"

	"motomarket-chat/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
