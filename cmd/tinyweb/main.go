// Package main is the entry point for the tinyweb CLI.
//
// tinyweb can be embedded as a library or run as a standalone binary
// configured from a YAML or UCI file. This CLI is the standalone binary.
//
// Usage:
//
//	tinyweb serve                       # Serve using /etc/config/tinyweb
//	tinyweb serve -c tinyweb.yaml       # Serve using a specific config
//	tinyweb validate -c tinyweb.yaml    # Validate configuration
//	tinyweb init /var/www               # Seed a document root
//	tinyweb version                     # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd only displays help; functionality lives in subcommands.
var rootCmd = &cobra.Command{
	Use:   "tinyweb",
	Short: "A tiny static-file web server with a fixed worker pool",
	Long: `tinyweb serves static files over HTTP/1.1 from a document root.

Every connection is handled by one of a fixed number of workers: the
request header is read (at most 2048 bytes), the request line is routed,
one response is written and the connection is closed.

Quick start:
  1. Seed a document root: tinyweb init /tmp/www
  2. Run: tinyweb serve -c tinyweb.yaml
  3. Open http://localhost:8000 in your browser

Example config:
  listen: 0.0.0.0:8000
  document_root: /tmp/www
  workers: 4`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this tinyweb binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tinyweb %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
