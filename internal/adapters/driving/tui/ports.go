// Package tui is an interactive catalog browser: volumes, their pages and
// each page's OCR text, with OCR rebuilds on demand.
package tui

import (
	"errors"

	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

// ErrMissingCatalogService is returned when no catalog service is provided.
var ErrMissingCatalogService = errors.New("catalog service is required")

// Ports aggregates the driving ports the browser uses.
type Ports struct {
	// Catalog answers volume, page and word queries.
	Catalog driving.CatalogService

	// OCR rebuilds words. Optional; the rebuild keys are disabled without it.
	OCR driving.OCRService
}

// Validate ensures required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Catalog == nil {
		return ErrMissingCatalogService
	}
	return nil
}
