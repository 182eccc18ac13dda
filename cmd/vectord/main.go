// Vectord is a multi-tenant HTTP access layer over Qdrant for memory and
// document chunk storage.
//
// Usage:
//
//	# Start the server with defaults
//	vectord serve
//
//	# Configure via file and environment
//	vectord serve --config /etc/vectord/config.yaml
//	VECTORD_SERVER_PORT=9090 VECTORD_QDRANT_HOST=qdrant.internal vectord serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vectord",
	Short: "Multi-tenant vector storage service backed by Qdrant",
	Long: `vectord fronts a Qdrant instance with a tenant-isolated HTTP API for
memory records and document chunks. Vectors are computed upstream; vectord
stores, searches, and manages them.`,
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the vectord HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(configPath)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show detailed version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vectord\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file (optional)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
