package driven

import (
	"context"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

// VolumeStore persists volumes (manifests).
type VolumeStore interface {
	// Get retrieves a volume by pid. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, pid string) (*domain.Volume, error)

	// GetOrCreate retrieves a volume by pid, creating an empty one if absent.
	// The bool reports whether the volume was created.
	GetOrCreate(ctx context.Context, pid string) (*domain.Volume, bool, error)

	// Save stores or updates a volume.
	Save(ctx context.Context, vol *domain.Volume) error

	// SetCollections replaces the volume's collection memberships.
	// The volume must already be saved.
	SetCollections(ctx context.Context, pid string, collections []string) error

	// List returns all volumes ordered by pid.
	List(ctx context.Context) ([]domain.Volume, error)
}

// PageStore persists pages (canvases).
type PageStore interface {
	// SaveAll bulk-inserts or replaces pages.
	SaveAll(ctx context.Context, pages []domain.Page) error

	// Get retrieves a page by pid. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, pid string) (*domain.Page, error)

	// ListByVolume returns a volume's pages ordered by position.
	ListByVolume(ctx context.Context, volumePID string) ([]domain.Page, error)
}

// WordStore persists positioned OCR words.
type WordStore interface {
	// ReplaceForPage deletes a page's words and bulk-inserts the given ones.
	ReplaceForPage(ctx context.Context, pagePID string, words []domain.Word) error

	// ListByPage returns a page's words ordered by Order.
	ListByPage(ctx context.Context, pagePID string) ([]domain.Word, error)
}

// RelatedLinkStore persists related links.
type RelatedLinkStore interface {
	// Add appends a link. Links are never deduplicated.
	Add(ctx context.Context, link *domain.RelatedLink) error

	// ListByVolume returns a volume's links in insertion order.
	ListByVolume(ctx context.Context, volumePID string) ([]domain.RelatedLink, error)
}

// ImageServerStore persists image servers.
type ImageServerStore interface {
	// Get retrieves an image server by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id int64) (*domain.ImageServer, error)

	// Save stores or updates an image server, assigning an ID when zero.
	Save(ctx context.Context, server *domain.ImageServer) error

	// List returns all image servers.
	List(ctx context.Context) ([]domain.ImageServer, error)
}

// JobStore persists ingest jobs while they are in flight.
type JobStore interface {
	// Save stores or updates a job.
	Save(ctx context.Context, job *domain.IngestJob) error

	// Get retrieves a job by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.IngestJob, error)

	// UpdateState records the last state reached and an optional error message.
	UpdateState(ctx context.Context, id string, state domain.JobState, errMsg string) error

	// Delete discards a job record.
	Delete(ctx context.Context, id string) error

	// List returns all retained jobs, oldest first.
	List(ctx context.Context) ([]domain.IngestJob, error)
}

// Catalog groups the stores the pipeline writes to.
type Catalog interface {
	Volumes() VolumeStore
	Pages() PageStore
	Words() WordStore
	RelatedLinks() RelatedLinkStore
	ImageServers() ImageServerStore
	Jobs() JobStore
}
