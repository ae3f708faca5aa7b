package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/isabela-labs/tortoisefind/pkg/api/schemas"
	"github.com/spf13/cobra"
)

var confirmCmd = &cobra.Command{
	Use:   "confirm <run-id> <tile-id>[=yes|no] ...",
	Short: "Record reviewer decisions for a run",
	Long: `Records confirmations for the given tiles, replacing any previous
batch for the run. A bare tile ID counts as confirmed; append =no to
reject.

Examples:
  finderctl confirm 0198c1a2 tile-00042 tile-00117
  finderctl confirm 0198c1a2 tile-00042=no tile-00117=yes`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := apiClient()

		req := schemas.ConfirmRequest{}
		for _, arg := range args[1:] {
			tileID, value, found := strings.Cut(arg, "=")
			confirmed := true
			if found {
				switch value {
				case "yes", "true":
					confirmed = true
				case "no", "false":
					confirmed = false
				default:
					log.Fatalf("invalid decision %q: use yes or no", arg)
				}
			}
			req.Selections = append(req.Selections, schemas.Selection{
				TileID:    tileID,
				Confirmed: confirmed,
			})
		}

		if _, err := c.Confirm(cmd.Context(), args[0], req); err != nil {
			log.Fatalf("confirm: %v", err)
		}

		fmt.Printf("Recorded %d decisions\n", len(req.Selections))
	},
}

func init() {
	rootCmd.AddCommand(confirmCmd)
}
