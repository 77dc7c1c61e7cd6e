package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookingest/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/bookingest/internal/adapters/driving/mcp"
	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Starts the HTTP API: catalog queries, bundle uploads queued for
background ingest, OCR rebuilds, Prometheus metrics at /metrics and,
with --mcp, the MCP endpoint at /mcp.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	serveCmd.Flags().Bool("mcp", false, "also serve MCP over HTTP at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if catalogService == nil || jobQueue == nil {
		return errors.New("services not configured")
	}
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("getting addr flag: %w", err)
	}
	withMCP, err := cmd.Flags().GetBool("mcp")
	if err != nil {
		return fmt.Errorf("getting mcp flag: %w", err)
	}
	if addr == "" {
		addr = services.HTTPAddr
	}

	ports := httpapi.Ports{
		Catalog: catalogService,
		Jobs:    jobQueue,
		OCR:     ocrService,
		Metrics: services.Metrics,
	}
	if withMCP {
		server, err := mcp.NewServer(&mcp.Ports{Catalog: catalogService, Ingest: ingestService, OCR: ocrService})
		if err != nil {
			return err
		}
		ports.MCP = server.Handler()
	}

	uploadDir := services.UploadDir
	api, err := httpapi.NewServer(ports, uploadDir)
	if err != nil {
		return err
	}
	jobQueue.OnResult(func(job *domain.IngestJob, _ []domain.Result) {
		if uploadDir == "" || job.ID == "" {
			return
		}
		if err := os.RemoveAll(filepath.Join(uploadDir, job.ID)); err != nil {
			logger.Warn("Removing upload %s: %v", job.ID, err)
		}
	})

	cmd.Printf("Listening on http://%s\n", addr)
	return runWithQueue(cmd.Context(), func(ctx context.Context) error {
		return api.ListenAndServe(ctx, addr)
	})
}
