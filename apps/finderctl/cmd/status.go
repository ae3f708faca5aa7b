package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the state and progress of a run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := apiClient()

		st, err := c.Status(cmd.Context(), args[0])
		if err != nil {
			log.Fatalf("status: %v", err)
		}

		fmt.Printf("State: %s\n", st.State)
		fmt.Printf("Progress: %.0f%%\n", st.ProgressPct)
		if st.EtaS != nil {
			fmt.Printf("ETA: %ds\n", *st.EtaS)
		}
		if st.Error != "" {
			fmt.Printf("Error: %s\n", st.Error)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
