// Package main is the entry point for the ldebate CLI application.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/nickcecere/ldebate/internal/cli"
)

// Version information (set at build time via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	cli.SetVersionInfo(version, commit, date)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
