package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var (
	exportFormat    string
	exportThreshold float64
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Render a run's detections to a geospatial file",
	Long: `Asks the API to render the run's detections as geojson, csv, gpx or
kml and prints the download URL. By default every record is exported;
pass --threshold to filter.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := apiClient()

		resp, err := c.Export(cmd.Context(), args[0], exportFormat, exportThreshold)
		if err != nil {
			log.Fatalf("export: %v", err)
		}

		fmt.Println(resp.URL)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "fmt", "geojson", "Export format: geojson, csv, gpx or kml")
	exportCmd.Flags().Float64Var(&exportThreshold, "threshold", -1, "Minimum score to include (negative exports everything)")
}
