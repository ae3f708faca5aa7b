package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/isabela-labs/tortoisefind/pkg/api"
	"github.com/isabela-labs/tortoisefind/pkg/api/routes"
	"github.com/spf13/cobra"
)

// openapiCmd represents the openapi command
var openapiCmd = &cobra.Command{
	Use:     "openapi",
	Aliases: []string{"spec"},
	Short:   "Generate OpenAPI specification",
	Long:    `Outputs the OpenAPI specification for the tortoise-finder API without requiring storage or queue initialization.`,
	Run:     generateOpenAPI,
}

var (
	openapiOutput    string
	openapiDowngrade bool
)

func init() {
	rootCmd.AddCommand(openapiCmd)
	// Flags
	openapiCmd.Flags().StringVarP(&openapiOutput, "output", "o", "", "Write output to file (default stdout)")
	openapiCmd.Flags().BoolVar(&openapiDowngrade, "downgrade", true, "Downgrade OpenAPI to 3.0 when generating the spec")
}

func generateOpenAPI(cmd *cobra.Command, args []string) {
	a := api.NewApi()
	routes.RegisterAPI(a.Api, nil)

	var (
		spec []byte
		err  error
	)

	if openapiDowngrade {
		spec, err = a.Api.OpenAPI().Downgrade()
	} else {
		spec, err = json.Marshal(a.Api.OpenAPI())
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate OpenAPI spec: %v\n", err)
		os.Exit(1)
	}

	if openapiOutput == "" {
		fmt.Println(string(spec))
		return
	}

	if err := os.WriteFile(openapiOutput, spec, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write OpenAPI spec to %s: %v\n", openapiOutput, err)
		os.Exit(1)
	}
}
