// Command server runs the adaptive learning hub: the host-facing HTTP API,
// catalog migrations and operator tooling.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
