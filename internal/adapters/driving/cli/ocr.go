package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

var (
	ocrVolume string
	ocrCanvas string
)

var ocrCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Rebuild OCR words for a volume or a page",
	Long: `Re-runs the OCR pass, replacing stored words. Use --volume for every
page of a volume or --canvas for a single page. Pages without any OCR
source are skipped; pages whose OCR cannot be read are reported as
warnings and do not fail the command.`,
	Args: cobra.NoArgs,
	RunE: runOCR,
}

func init() {
	ocrCmd.Flags().StringVar(&ocrVolume, "volume", "", "volume pid")
	ocrCmd.Flags().StringVar(&ocrCanvas, "canvas", "", "page (canvas) pid")
	ocrCmd.MarkFlagsMutuallyExclusive("volume", "canvas")
	ocrCmd.MarkFlagsOneRequired("volume", "canvas")
	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, _ []string) error {
	if ocrService == nil {
		return errors.New("ocr service not configured")
	}

	var report *driving.OCRReport
	var err error
	if ocrCanvas != "" {
		report, err = ocrService.AddOCRToPage(cmd.Context(), ocrCanvas)
	} else {
		report, err = ocrService.AddOCR(cmd.Context(), ocrVolume)
	}
	if err != nil {
		return fmt.Errorf("ocr failed: %w", err)
	}

	cmd.Printf("Pages: %d  with OCR: %d  skipped: %d  words: %d\n",
		report.Pages, report.Persisted, report.Skipped, report.Words)
	for _, w := range report.Warnings {
		cmd.Printf("  warning: %s\n", w)
	}
	return nil
}
