// Package objectstore implements driven.ObjectStore over an S3-compatible
// service (minio-go) and over a local directory tree laid out as
// {root}/{bucket}/{key}.
//
// Both backends report failures as *StorageError, whose Retryable flag
// feeds domain.IsTransient so the orchestrator knows which copy and list
// failures are worth retrying.
package objectstore
