package driven

import (
	"context"
	"io"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStore is the copy/upload capability over a bucketed object store.
// Implementations: S3-compatible (minio) and a local directory tree.
type ObjectStore interface {
	// Put uploads an object. size may be -1 when unknown.
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error

	// Get opens an object for reading. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// List returns every object under prefix, recursively.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)

	// Copy copies an object server-side.
	Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error
}
