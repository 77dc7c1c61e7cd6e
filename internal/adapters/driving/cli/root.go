// Package cli provides the bookingest command line.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
	"github.com/custodia-labs/bookingest/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services holds the driving ports and runtime settings the commands use.
type Services struct {
	Ingest  driving.IngestService
	OCR     driving.OCRService
	Catalog driving.CatalogService
	Queue   driving.JobQueue

	// Metrics serves /metrics on the serve command.
	Metrics http.Handler

	// InboxDir is the default directory for the watch command.
	InboxDir string

	// UploadDir receives files posted to the HTTP API.
	UploadDir string

	// HTTPAddr is the default listen address for the serve command.
	HTTPAddr string
}

// Builder constructs services on first use. The returned func releases them.
type Builder func(ctx context.Context) (*Services, func() error, error)

var (
	verbose bool

	builder  Builder
	closer   func() error
	services *Services

	ingestService  driving.IngestService
	ocrService     driving.OCRService
	catalogService driving.CatalogService
	jobQueue       driving.JobQueue
)

var rootCmd = &cobra.Command{
	Use:   "bookingest",
	Short: "Ingest digitized book bundles into a IIIF catalog",
	Long: `bookingest turns zip bundles of page images, OCR files and metadata
into catalog volumes with pages and positioned OCR words.

Bundles can be ingested one at a time, as a batch with a metadata
spreadsheet, or copied from an object store bucket. The watch and serve
commands accept bundles continuously.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if !needsServices(cmd) {
			return nil
		}
		return ensureServices(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetBuilder registers the constructor invoked before commands that need services.
func SetBuilder(b Builder) {
	builder = b
}

// SetServices installs services directly.
func SetServices(s *Services) {
	services = s
	if s == nil {
		ingestService, ocrService, catalogService, jobQueue = nil, nil, nil, nil
		return
	}
	ingestService = s.Ingest
	ocrService = s.OCR
	catalogService = s.Catalog
	jobQueue = s.Queue
}

// needsServices is false for commands that only print, such as help and version.
func needsServices(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["services"] == "none" || c.Name() == "help" || c.Name() == "completion" {
			return false
		}
	}
	return true
}

func ensureServices(ctx context.Context) error {
	if services != nil || builder == nil {
		return nil
	}
	s, release, err := builder(ctx)
	if err != nil {
		return err
	}
	SetServices(s)
	closer = release
	return nil
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closer != nil {
		if cerr := closer(); cerr != nil && err == nil {
			err = cerr
		}
		closer = nil
	}
	return err
}
