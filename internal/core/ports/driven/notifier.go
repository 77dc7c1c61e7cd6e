package driven

import (
	"context"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

// SuccessNotice is sent when a volume has been ingested.
type SuccessNotice struct {
	Creator   domain.Creator
	VolumePID string
	Label     string
	AdminURL  string
	ViewerURL string
	Pages     int
	Warnings  []string
}

// FailureNotice is sent when a job fails.
type FailureNotice struct {
	Creator domain.Creator
	Bundle  string
	Error   string
}

// Notifier delivers job outcome notifications.
type Notifier interface {
	NotifySuccess(ctx context.Context, n SuccessNotice) error
	NotifyFailure(ctx context.Context, n FailureNotice) error
}

// IndexTrigger asks the search index to refresh catalog records.
// Indexing itself happens outside this system.
type IndexTrigger interface {
	ReindexVolume(ctx context.Context, pid string) error
	ReindexPage(ctx context.Context, pid string) error
}

// TriggerPublisher hands a trigger-list chunk to the image-conversion process.
type TriggerPublisher interface {
	// Publish stores one chunk under name, one image filename per line.
	Publish(ctx context.Context, name string, lines []string) error
}
