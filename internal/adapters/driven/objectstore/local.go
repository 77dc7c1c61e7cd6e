package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure LocalStore implements the interface.
var _ driven.ObjectStore = (*LocalStore)(nil)

// LocalStore keeps objects as files under {root}/{bucket}/{key}.
type LocalStore struct {
	root string
}

// NewLocalStore creates a local object store rooted at dir.
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("object store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating object store root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Root returns the directory objects are stored under.
func (s *LocalStore) Root() string {
	return s.root
}

// EnsureBucket creates the bucket directory.
func (s *LocalStore) EnsureBucket(ctx context.Context, bucket string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.bucketPath(bucket)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrapError(CodePermissionDenied, false, err)
	}
	return nil
}

// Put writes an object, creating parent directories.
func (s *LocalStore) Put(ctx context.Context, bucket, key string, r io.Reader, _ int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return wrapError(CodePermissionDenied, false, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return wrapError(CodeWriteFailed, true, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return wrapError(CodeWriteFailed, true, err)
	}
	if err := f.Close(); err != nil {
		return wrapError(CodeWriteFailed, true, err)
	}
	return nil
}

// Get opens an object for reading.
func (s *LocalStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, wrapError(CodeObjectNotFound, false, err)
		}
		return nil, wrapError(CodeReadFailed, true, err)
	}
	return f, nil
}

// List returns every object under prefix, sorted by key.
// A missing bucket lists as empty.
func (s *LocalStore) List(ctx context.Context, bucket, prefix string) ([]driven.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.bucketPath(bucket)
	if err != nil {
		return nil, err
	}

	var objects []driven.ObjectInfo
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, driven.ObjectInfo{Key: key, Size: info.Size()})
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, wrapError(CodeReadFailed, true, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Copy copies an object between buckets.
func (s *LocalStore) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	src, err := s.Get(ctx, srcBucket, srcKey)
	if err != nil {
		return err
	}
	defer src.Close()
	return s.Put(ctx, dstBucket, dstKey, src, -1)
}

func (s *LocalStore) bucketPath(bucket string) (string, error) {
	if bucket == "" || !filepath.IsLocal(bucket) {
		return "", wrapError(CodeBucketNotFound, false, fmt.Errorf("invalid bucket %q", bucket))
	}
	return filepath.Join(s.root, bucket), nil
}

func (s *LocalStore) objectPath(bucket, key string) (string, error) {
	dir, err := s.bucketPath(bucket)
	if err != nil {
		return "", err
	}
	rel := filepath.FromSlash(key)
	if key == "" || !filepath.IsLocal(rel) {
		return "", wrapError(CodeObjectNotFound, false, fmt.Errorf("invalid object key %q", key))
	}
	return filepath.Join(dir, rel), nil
}
