package driving

import (
	"context"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

// IngestService runs ingest jobs to completion.
// Each method returns explicit results instead of invoking callbacks;
// the caller decides whether to retry or finalise.
type IngestService interface {
	// IngestSingle ingests one bundle as one volume.
	IngestSingle(ctx context.Context, job *domain.IngestJob) domain.Result

	// IngestBatch ingests each bundle of an upload against its metadata row.
	// One result per bundle; a failure in one does not affect the others.
	IngestBatch(ctx context.Context, job *domain.IngestJob) []domain.Result

	// IngestCloud ingests every pid listed in the job's spreadsheet from its source bucket.
	IngestCloud(ctx context.Context, job *domain.IngestJob) []domain.Result

	// Run dispatches a job on its kind, retrying transient failures.
	Run(ctx context.Context, job *domain.IngestJob) []domain.Result
}

// OCRReport summarises one OCR pass.
type OCRReport struct {
	// Pages is the number of pages visited.
	Pages int

	// Persisted is the number of pages that received words.
	Persisted int

	// Skipped is the number of pages without any OCR source.
	Skipped int

	// Words is the total number of words stored.
	Words int

	// Warnings are "Canvas {pid} - ..." lines, one per failed page.
	Warnings []string
}

// OCRService (re)builds OCR annotations.
type OCRService interface {
	// AddOCR runs the OCR pass over every page of a volume.
	AddOCR(ctx context.Context, volumePID string) (*OCRReport, error)

	// AddOCRToPage runs the OCR pass for one page.
	AddOCRToPage(ctx context.Context, pagePID string) (*OCRReport, error)
}

// CatalogService answers read-only catalog queries.
type CatalogService interface {
	// GetVolume retrieves a volume by pid.
	GetVolume(ctx context.Context, pid string) (*domain.Volume, error)

	// ListVolumes returns every volume.
	ListVolumes(ctx context.Context) ([]domain.Volume, error)

	// ListPages returns a volume's pages ordered by position.
	ListPages(ctx context.Context, volumePID string) ([]domain.Page, error)

	// ListWords returns a page's OCR words in order.
	ListWords(ctx context.Context, pagePID string) ([]domain.Word, error)

	// ListJobs returns retained ingest jobs.
	ListJobs(ctx context.Context) ([]domain.IngestJob, error)
}

// JobQueue runs submitted jobs in the background.
type JobQueue interface {
	// Submit enqueues a job without blocking.
	Submit(job *domain.IngestJob) error

	// OnResult registers a callback invoked after each job finishes.
	// Callbacks must be registered before Start.
	OnResult(fn func(*domain.IngestJob, []domain.Result))

	// Start runs the workers until Stop is called or ctx ends.
	Start(ctx context.Context) error

	// Stop waits for running jobs and stops the workers.
	Stop() error
}
