package cmd

import (
	"os"
	"strings"

	"github.com/isabela-labs/tortoisefind/apps/finderctl/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	v       *viper.Viper
	rootCmd = &cobra.Command{
		Use:   "finderctl",
		Short: "CLI for a running tortoise-finder API (runs, status, positives, exports)",
		Long: `finderctl is a small command-line tool for interacting with a running
tortoise-finder API. It starts detection runs, polls their progress,
pages through positive detections, requests geospatial exports, and
records reviewer confirmations.

The API location comes from --api-url or the FINDER_API_URL environment
variable (default http://localhost:8000).`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return v.BindPFlags(cmd.Flags())
		},
	}
)

// apiClient builds a client from the resolved api-url setting.
func apiClient() *client.Client {
	base := strings.TrimRight(v.GetString("api-url"), "/")
	return client.New(base)
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	v = viper.New()
	v.SetEnvPrefix("FINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("api-url", "http://localhost:8000")

	rootCmd.PersistentFlags().String("api-url", "", "Base URL of the tortoise-finder API (overrides FINDER_API_URL)")
}
