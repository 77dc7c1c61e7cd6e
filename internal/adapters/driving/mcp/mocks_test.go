package mcp

import (
	"context"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	volume  *domain.Volume
	volumes []domain.Volume
	pages   []domain.Page
	words   []domain.Word
	jobs    []domain.IngestJob
	err     error
}

func (m *mockCatalogService) GetVolume(_ context.Context, _ string) (*domain.Volume, error) {
	return m.volume, m.err
}

func (m *mockCatalogService) ListVolumes(_ context.Context) ([]domain.Volume, error) {
	return m.volumes, m.err
}

func (m *mockCatalogService) ListPages(_ context.Context, _ string) ([]domain.Page, error) {
	return m.pages, m.err
}

func (m *mockCatalogService) ListWords(_ context.Context, _ string) ([]domain.Word, error) {
	return m.words, m.err
}

func (m *mockCatalogService) ListJobs(_ context.Context) ([]domain.IngestJob, error) {
	return m.jobs, m.err
}

// mockIngestService records the jobs it is given.
type mockIngestService struct {
	jobs   []*domain.IngestJob
	result domain.Result
}

func (m *mockIngestService) IngestSingle(_ context.Context, job *domain.IngestJob) domain.Result {
	job.ID = "job-1"
	m.jobs = append(m.jobs, job)
	return m.result
}

func (m *mockIngestService) IngestBatch(_ context.Context, job *domain.IngestJob) []domain.Result {
	m.jobs = append(m.jobs, job)
	return []domain.Result{m.result}
}

func (m *mockIngestService) IngestCloud(_ context.Context, job *domain.IngestJob) []domain.Result {
	m.jobs = append(m.jobs, job)
	return []domain.Result{m.result}
}

func (m *mockIngestService) Run(_ context.Context, job *domain.IngestJob) []domain.Result {
	m.jobs = append(m.jobs, job)
	return []domain.Result{m.result}
}

// mockOCRService records which entry point was used.
type mockOCRService struct {
	calls  []string
	report *driving.OCRReport
	err    error
}

func (m *mockOCRService) AddOCR(_ context.Context, volumePID string) (*driving.OCRReport, error) {
	m.calls = append(m.calls, "volume:"+volumePID)
	return m.report, m.err
}

func (m *mockOCRService) AddOCRToPage(_ context.Context, pagePID string) (*driving.OCRReport, error) {
	m.calls = append(m.calls, "page:"+pagePID)
	return m.report, m.err
}
