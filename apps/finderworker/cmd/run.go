package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/isabela-labs/tortoisefind/pkg/api/config"
	"github.com/isabela-labs/tortoisefind/pkg/api/services"
	"github.com/isabela-labs/tortoisefind/pkg/tlog"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Consume detection tasks until interrupted",
	Long: `Connects to the queue and blob store from the environment and
processes detection runs. A SIGINT or SIGTERM lets in-flight runs
finish before the process exits.`,
	Run: run,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.ValidateEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	cfg.Print(log.Printf)

	logger := tlog.NewDefault()

	svcs, err := services.NewServices(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize services: %v", err)
	}
	defer svcs.Close()

	if svcs.EmbeddedWorker() {
		log.Fatalf("REDIS_ADDR must be set: a standalone worker needs a shared queue")
	}

	w := svcs.NewWorker()

	log.Printf("worker starting, queue=%s concurrency=%d", cfg.QueueName, cfg.WorkerConcurrency)

	if err := w.Run(ctx); err != nil {
		log.Fatalf("worker stopped: %v", err)
	}

	log.Printf("worker shut down")
}
