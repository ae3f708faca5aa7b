package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "finderworker",
	Short: "tortoise-finder detection worker",
	Long: `finderworker consumes detection tasks from the run queue, scores
tiles with the configured model, uploads thumbnails and the results
table to blob storage, and reports job progress along the way.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
