package main

import (
	"os"

	"github.com/rovshanmuradov/solana-arb/cmd/arb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
