// Command keygen prints a new Ed25519 token signing key pair.
//
//	eval "$(go run ./cmd/keygen)"
package main

import (
	"fmt"
	"os"

	"notes-server/internal/tools/keygen"
)

func main() {
	if err := keygen.Run(os.Stdout, nil); err != nil {
		fmt.Fprintf(os.Stderr, "generate token key: %v\n", err)
		os.Exit(1)
	}
}
