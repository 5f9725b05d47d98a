package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "drawcheck",
	Short: "Engineering drawing compliance checker",
	Long: `Drawcheck validates engineering drawings against tolerance, welding,
material and equipment-checklist standards.

Run "drawcheck serve" to expose the HTTP API, or "drawcheck validate" to
check a single drawing locally and print a summary.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
}
