package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time via -ldflags.
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "barrister",
		Short: "Barrister IDL compiler and JSON-RPC 2.0 runtime tooling",
		Long: `Barrister parses a small interface-definition language into a
contract, validates it, and serves or calls the contract over JSON-RPC 2.0.`,
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(idlCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
