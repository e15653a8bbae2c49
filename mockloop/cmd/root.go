// Package cmd provides the command-line interface for mockloop.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "mockloop",
	Short: "Mockloop CLI tool can inspect the artifacts produced by " +
		"loop controllers.",
	Long: `Mockloop CLI tool can inspect the artifacts produced by loop ` +
		`controllers. Currently, it supports listing and dumping recorded ` +
		`dispatch traces.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. A .env file in the working directory, if present, provides
// defaults such as MOCKLOOP_TRACE_DB.
func Execute() {
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
