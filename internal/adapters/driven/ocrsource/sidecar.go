package ocrsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure SidecarReader implements the interface.
var _ driven.SidecarReader = (*SidecarReader)(nil)

// SidecarReader reads OCR sidecars from the backend an image server uses.
type SidecarReader struct {
	objects       driven.ObjectStore
	defaultBucket string
}

// NewSidecarReader creates a reader. objects may be nil when only local
// sidecars are used; defaultBucket serves relative keys of volumes without
// an s3 image server, which is where cloud jobs stage their sidecars.
func NewSidecarReader(objects driven.ObjectStore, defaultBucket string) *SidecarReader {
	return &SidecarReader{objects: objects, defaultBucket: defaultBucket}
}

// ReadSidecar returns the sidecar content at path.
func (r *SidecarReader) ReadSidecar(ctx context.Context, server *domain.ImageServer, path string) ([]byte, error) {
	if server != nil && server.StorageKind == domain.StorageS3 {
		bucket := server.Bucket
		if bucket == "" {
			bucket = r.defaultBucket
		}
		return r.readObject(ctx, bucket, path)
	}

	if !filepath.IsAbs(path) && r.objects != nil && r.defaultBucket != "" {
		return r.readObject(ctx, r.defaultBucket, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sidecar: %w", err)
	}
	return content, nil
}

func (r *SidecarReader) readObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if r.objects == nil {
		return nil, errors.New("no object store configured for s3 sidecars")
	}
	rc, err := r.objects.Get(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("reading sidecar %s/%s: %w", bucket, key, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading sidecar %s/%s: %w", bucket, key, err)
	}
	return content, nil
}
