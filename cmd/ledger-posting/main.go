// Package main is the entry point for the ledger-posting CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/ledger-posting/cmd/ledger-posting/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
