package services

import (
	"context"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService answers read-only catalog queries.
type CatalogService struct {
	catalog driven.Catalog
}

// NewCatalogService creates a catalog service.
func NewCatalogService(catalog driven.Catalog) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// GetVolume retrieves a volume by pid.
func (s *CatalogService) GetVolume(ctx context.Context, pid string) (*domain.Volume, error) {
	return s.catalog.Volumes().Get(ctx, pid)
}

// ListVolumes returns every volume.
func (s *CatalogService) ListVolumes(ctx context.Context) ([]domain.Volume, error) {
	return s.catalog.Volumes().List(ctx)
}

// ListPages returns a volume's pages ordered by position.
func (s *CatalogService) ListPages(ctx context.Context, volumePID string) ([]domain.Page, error) {
	if _, err := s.catalog.Volumes().Get(ctx, volumePID); err != nil {
		return nil, err
	}
	return s.catalog.Pages().ListByVolume(ctx, volumePID)
}

// ListWords returns a page's words in order.
func (s *CatalogService) ListWords(ctx context.Context, pagePID string) ([]domain.Word, error) {
	if _, err := s.catalog.Pages().Get(ctx, pagePID); err != nil {
		return nil, err
	}
	return s.catalog.Words().ListByPage(ctx, pagePID)
}

// ListJobs returns retained ingest jobs.
func (s *CatalogService) ListJobs(ctx context.Context) ([]domain.IngestJob, error) {
	return s.catalog.Jobs().List(ctx)
}
