package mcp

import (
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server uses.
type Ports struct {
	// Catalog answers read-only queries.
	Catalog driving.CatalogService

	// Ingest runs submitted bundles. Optional: without it the server is read-only.
	Ingest driving.IngestService

	// OCR rebuilds OCR annotations. Optional.
	OCR driving.OCRService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Catalog == nil {
		return ErrMissingCatalogService
	}
	return nil
}
