package objectstore

import (
	"context"
	"path"
	"strings"

	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure TriggerPublisher implements the interface.
var _ driven.TriggerPublisher = (*TriggerPublisher)(nil)

// TriggerPublisher uploads trigger-list chunks for the image-conversion
// process to {bucket}/{prefix}/{name}.
type TriggerPublisher struct {
	store  driven.ObjectStore
	bucket string
	prefix string
}

// NewTriggerPublisher creates a publisher writing to bucket under prefix.
func NewTriggerPublisher(store driven.ObjectStore, bucket, prefix string) *TriggerPublisher {
	return &TriggerPublisher{store: store, bucket: bucket, prefix: prefix}
}

// Publish uploads one chunk, one image filename per line.
func (p *TriggerPublisher) Publish(ctx context.Context, name string, lines []string) error {
	body := strings.Join(lines, "\n") + "\n"
	return p.store.Put(ctx, p.bucket, path.Join(p.prefix, name), strings.NewReader(body), int64(len(body)))
}
