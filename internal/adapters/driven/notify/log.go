package notify

import (
	"context"

	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
	"github.com/custodia-labs/bookingest/internal/logger"
)

// Ensure LogNotifier implements the interface.
var _ driven.Notifier = LogNotifier{}

// LogNotifier writes outcomes to the log. Used when no SMTP host is configured.
type LogNotifier struct{}

// NotifySuccess logs a completed volume.
func (LogNotifier) NotifySuccess(_ context.Context, n driven.SuccessNotice) error {
	logger.With("pid", n.VolumePID, "pages", n.Pages, "warnings", len(n.Warnings)).
		Info(SuccessSubject(n.VolumePID), "admin", n.AdminURL, "viewer", n.ViewerURL)
	return nil
}

// NotifyFailure logs a failed job.
func (LogNotifier) NotifyFailure(_ context.Context, n driven.FailureNotice) error {
	logger.With("bundle", n.Bundle).Error(FailureSubject(n.Bundle), "error", n.Error)
	return nil
}
