package objectstore

import (
	"fmt"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

// Storage error codes.
const (
	CodeEndpointUnreachable = "E_ENDPOINT_UNREACHABLE"
	CodeAuthInvalid         = "E_AUTH_INVALID"
	CodeBucketNotFound      = "E_BUCKET_NOT_FOUND"
	CodeObjectNotFound      = "E_OBJECT_NOT_FOUND"
	CodePermissionDenied    = "E_PERMISSION_DENIED"
	CodeTimeout             = "E_TIMEOUT"
	CodeWriteFailed         = "E_WRITE_FAILED"
	CodeReadFailed          = "E_READ_FAILED"
)

// StorageError wraps an object store failure with a retryability hint.
type StorageError struct {
	Code      string
	Retryable bool
	Err       error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *StorageError) Unwrap() error { return e.Err }

// Transient reports whether the operation may succeed if repeated.
func (e *StorageError) Transient() bool { return e.Retryable }

// Is makes missing buckets and objects match domain.ErrNotFound.
func (e *StorageError) Is(target error) bool {
	return target == domain.ErrNotFound && (e.Code == CodeObjectNotFound || e.Code == CodeBucketNotFound)
}

func wrapError(code string, retryable bool, err error) *StorageError {
	return &StorageError{Code: code, Retryable: retryable, Err: err}
}
