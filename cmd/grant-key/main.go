// Package main provides a one-shot utility for publish grant key generation.
//
// It emits the ed25519 keypair used to sign outgoing publish submissions.
package main

import (
	"os"

	"github.com/inkhorn/inkhorn/internal/platform/config"
	"github.com/inkhorn/inkhorn/internal/tools/publishgrant"
)

func main() {
	if err := publishgrant.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate publish grant key: %v", err)
	}
}
