package config

import (
	"fmt"
	"os"
)

// Exitf prints a formatted message to stderr and exits with status 1. The
// command mains use it for startup failures that have no recovery path.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
