package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookingest/internal/adapters/driving/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse volumes, pages and OCR text interactively",
	Long: `Opens a terminal browser over the catalog. Select a volume to list its
pages and a page to read its OCR text. OCR can be rebuilt for the
selected volume or page.`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}
	app, err := tui.NewApp(cmd.Context(), &tui.Ports{Catalog: catalogService, OCR: ocrService})
	if err != nil {
		return err
	}
	return app.Run(cmd.Context())
}
