package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure IndexWebhook implements the interface.
var _ driven.IndexTrigger = (*IndexWebhook)(nil)

// IndexWebhook asks an external indexer to refresh catalog records by
// POSTing {"type": "volume"|"page", "pid": ...} to a URL.
type IndexWebhook struct {
	url    string
	client *http.Client
}

// NewIndexWebhook creates an index trigger for url.
func NewIndexWebhook(url string, timeout time.Duration) *IndexWebhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &IndexWebhook{url: url, client: &http.Client{Timeout: timeout}}
}

// ReindexVolume requests a volume refresh.
func (w *IndexWebhook) ReindexVolume(ctx context.Context, pid string) error {
	return w.post(ctx, "volume", pid)
}

// ReindexPage requests a page refresh.
func (w *IndexWebhook) ReindexPage(ctx context.Context, pid string) error {
	return w.post(ctx, "page", pid)
}

type reindexRequest struct {
	Type string `json:"type"`
	PID  string `json:"pid"`
}

func (w *IndexWebhook) post(ctx context.Context, kind, pid string) error {
	body, err := json.Marshal(reindexRequest{Type: kind, PID: pid})
	if err != nil {
		return fmt.Errorf("encoding reindex request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating reindex request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("reindex %s %s: %w", kind, pid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("reindex %s %s: status %d", kind, pid, resp.StatusCode)
	}
	return nil
}
