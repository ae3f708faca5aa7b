package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/isabela-labs/tortoisefind/apps/finderctl/internal/client"
	"github.com/isabela-labs/tortoisefind/pkg/api/schemas"
	"github.com/spf13/cobra"
)

var (
	runModelVersion string
	runThreshold    float64
	runWait         bool
)

var runCmd = &cobra.Command{
	Use:   "run <dataset-uri>",
	Short: "Start a detection run over a dataset",
	Long: `Queues a detection run and prints its job ID. With --wait the command
polls until the run completes or fails.

Examples:
  finderctl run s3://imagery/galapagos-2024
  finderctl run --wait --threshold 0.9 s3://imagery/galapagos-2024`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := apiClient()
		ctx := cmd.Context()

		req := schemas.StartRunRequest{
			DatasetURI:   args[0],
			ModelVersion: runModelVersion,
		}
		if cmd.Flags().Changed("threshold") {
			req.Threshold = &runThreshold
		}

		resp, err := c.StartRun(ctx, req)
		if err != nil {
			log.Fatalf("start run: %v", err)
		}

		fmt.Printf("Job ID: %s\n", resp.JobID)
		fmt.Printf("Run ID: %s\n", resp.RunID)

		if !runWait {
			return
		}
		if err := waitForRun(ctx, c, resp.JobID); err != nil {
			log.Fatalf("%v", err)
		}
	},
}

func waitForRun(ctx context.Context, c *client.Client, jobID string) error {
	for {
		st, err := c.Status(ctx, jobID)
		if err != nil {
			return fmt.Errorf("poll status: %w", err)
		}

		fmt.Printf("%s %.0f%%\n", st.State, st.ProgressPct)

		switch st.State {
		case "completed":
			return nil
		case "failed":
			return fmt.Errorf("run failed: %s", st.Error)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runModelVersion, "model-version", "", "Model version to score with (default production)")
	runCmd.Flags().Float64Var(&runThreshold, "threshold", 0.8, "Review threshold recorded with the run")
	runCmd.Flags().BoolVarP(&runWait, "wait", "w", false, "Poll until the run completes or fails")
}
