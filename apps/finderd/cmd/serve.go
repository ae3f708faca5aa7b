package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/isabela-labs/tortoisefind/pkg/api"
	"github.com/isabela-labs/tortoisefind/pkg/api/config"
	"github.com/isabela-labs/tortoisefind/pkg/api/routes"
	"github.com/isabela-labs/tortoisefind/pkg/api/services"
	"github.com/isabela-labs/tortoisefind/pkg/tlog"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tortoise-finder API server",
	Long: `Starts the HTTP API. When S3_ENDPOINT and REDIS_ADDR are unset the
server runs fully in-process with in-memory storage and an embedded
worker, which is convenient for local development and demos.`,
	Run: serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) {
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
		w := svcs.NewWorker()
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("embedded worker stopped", "error", err)
			}
		}()
		log.Printf("embedded worker started (no REDIS_ADDR configured)")
	}

	a := api.NewApi()
	routes.RegisterAPI(a.Api, svcs)

	addr := fmt.Sprintf(":%s", cfg.Port)

	log.Printf("API starting on %s", addr)
	log.Printf("OpenAPI docs: %s/docs", cfg.BaseURL)
	log.Printf("OpenAPI spec: %s/openapi.json", cfg.BaseURL)

	if err := http.ListenAndServe(addr, a.Router); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
