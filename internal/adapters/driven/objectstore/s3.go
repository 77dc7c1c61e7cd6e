package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure S3Store implements the interface.
var _ driven.ObjectStore = (*S3Store)(nil)

// S3Config holds connection settings for an S3-compatible service.
type S3Config struct {
	// Endpoint is a host[:port] or a URL; an https URL implies UseSSL.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	UseSSL          bool
}

// S3Store implements driven.ObjectStore with the minio-go SDK.
type S3Store struct {
	client *minio.Client
	region string
}

// NewS3Store creates a client for the configured endpoint.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Endpoint == "" {
		return nil, wrapError(CodeEndpointUnreachable, false, errors.New("endpoint is required"))
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, wrapError(CodeAuthInvalid, false, errors.New("credentials are required"))
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		useSSL = useSSL || u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, wrapError(CodeEndpointUnreachable, false, fmt.Errorf("creating minio client: %w", err))
	}
	return &S3Store{client: client, region: cfg.Region}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *S3Store) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return classifyError(err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return classifyError(err)
	}
	return nil
}

// Put uploads an object.
func (s *S3Store) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	if bucket == "" || key == "" {
		return wrapError(CodeWriteFailed, false, errors.New("bucket and key are required"))
	}
	_, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType(key),
	})
	if err != nil {
		return classifyError(err)
	}
	return nil
}

// Get opens an object for reading. The object is stat'ed first so a missing
// key is reported here rather than on the first read.
func (s *S3Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyError(err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, classifyError(err)
	}
	return obj, nil
}

// List returns every object under prefix, recursively.
func (s *S3Store) List(ctx context.Context, bucket, prefix string) ([]driven.ObjectInfo, error) {
	var objects []driven.ObjectInfo
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, classifyError(obj.Err)
		}
		objects = append(objects, driven.ObjectInfo{Key: obj.Key, Size: obj.Size})
	}
	return objects, nil
}

// Copy copies an object server-side.
func (s *S3Store) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: dstBucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: srcBucket, Object: srcKey},
	)
	if err != nil {
		return classifyError(err)
	}
	return nil
}

func contentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".txt"):
		return "text/plain"
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	case strings.HasSuffix(key, ".tif"), strings.HasSuffix(key, ".tiff"):
		return "image/tiff"
	}
	return "application/octet-stream"
}

// classifyError converts minio-go errors to a StorageError.
func classifyError(err error) *StorageError {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchBucket":
		return wrapError(CodeBucketNotFound, false, err)
	case "NoSuchKey":
		return wrapError(CodeObjectNotFound, false, err)
	case "AccessDenied":
		return wrapError(CodePermissionDenied, false, err)
	case "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return wrapError(CodeAuthInvalid, false, err)
	case "SlowDown", "RequestTimeout", "InternalError", "ServiceUnavailable":
		return wrapError(CodeTimeout, true, err)
	}

	if errors.Is(err, context.Canceled) {
		return wrapError(CodeTimeout, false, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return wrapError(CodeTimeout, true, err)
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "unreachable"),
		strings.Contains(msg, "no such host"):
		return wrapError(CodeEndpointUnreachable, true, err)
	}
	return wrapError(CodeReadFailed, true, err)
}
