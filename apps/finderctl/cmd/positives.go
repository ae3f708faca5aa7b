package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var (
	positivesThreshold float64
	positivesPage      int
	positivesPageSize  int
)

var positivesCmd = &cobra.Command{
	Use:   "positives <run-id>",
	Short: "List detections at or above the review threshold",
	Long: `Prints one page of positive detections for a run, highest score
first. Page through the full set with --page.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := apiClient()

		page, err := c.Positives(cmd.Context(), args[0], positivesThreshold, positivesPage, positivesPageSize)
		if err != nil {
			log.Fatalf("positives: %v", err)
		}

		fmt.Printf("Total: %d (threshold %.2f)\n", page.Total, positivesThreshold)
		for _, item := range page.Items {
			fmt.Printf("%s  score=%.3f  lat=%.5f lon=%.5f\n", item.TileID, item.Score, item.Lat, item.Lon)
			fmt.Printf("    thumb: %s\n", item.ThumbURL)
		}
	},
}

func init() {
	rootCmd.AddCommand(positivesCmd)
	positivesCmd.Flags().Float64Var(&positivesThreshold, "threshold", 0.8, "Minimum score to include")
	positivesCmd.Flags().IntVar(&positivesPage, "page", 1, "1-based page number")
	positivesCmd.Flags().IntVar(&positivesPageSize, "page-size", 40, "Records per page")
}
