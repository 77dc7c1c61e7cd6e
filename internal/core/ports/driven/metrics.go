package driven

import "github.com/custodia-labs/bookingest/internal/core/domain"

// OCR page outcomes reported to Metrics.
const (
	OCRPersisted = "persisted"
	OCRSkipped   = "skipped"
	OCRWarned    = "warned"
)

// Metrics records pipeline counters.
type Metrics interface {
	// JobFinished records one unit of ingest work with its outcome kind.
	JobFinished(kind domain.JobKind, outcome domain.ErrorKind)

	// PagesBuilt records canvases created.
	PagesBuilt(n int)

	// OCRPage records one page of an OCR pass with its outcome.
	OCRPage(outcome string, words int)

	// Retried records a retry of a transient failure.
	Retried()
}
