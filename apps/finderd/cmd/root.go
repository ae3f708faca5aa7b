package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "finderd",
	Short: "tortoise-finder API server",
	Long: `finderd serves the tortoise-finder detection API: it queues
detection runs over tiled imagery, reports their progress, and serves
paginated, threshold-filtered views and geospatial exports of the
results.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
