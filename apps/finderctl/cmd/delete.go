package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run and all of its artifacts",
	Long: `Removes the run's results table, thumbnails, exports, confirmations
and job metadata. Deleting an already deleted run is a no-op.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := apiClient()

		if err := c.DeleteRun(cmd.Context(), args[0]); err != nil {
			log.Fatalf("delete: %v", err)
		}

		fmt.Printf("Deleted run %s\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
