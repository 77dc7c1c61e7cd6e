package domain

import "errors"

// ErrorKind classifies a failed job for the caller's retry-or-finalise decision.
type ErrorKind string

const (
	KindNone           ErrorKind = ""
	KindInvalidBundle  ErrorKind = "invalid_bundle"
	KindVolumeNotFound ErrorKind = "volume_not_found"
	KindTransient      ErrorKind = "transient"
	KindRetryExhausted ErrorKind = "retries_exhausted"
	KindInvalidInput   ErrorKind = "invalid_input"
	KindInternal       ErrorKind = "internal"
)

// KindOf classifies an error.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrVolumeNotFoundFatal):
		return KindVolumeNotFound
	case errors.Is(err, ErrRetriesExhausted):
		return KindRetryExhausted
	case errors.Is(err, ErrInvalidBundle):
		return KindInvalidBundle
	case IsTransient(err):
		return KindTransient
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNoBundles):
		return KindInvalidInput
	}
	return KindInternal
}

// Result is the outcome of one unit of ingest work: Ok with the volume,
// or Err with a kind and the underlying error.
type Result struct {
	// JobID is the job that produced the result.
	JobID string

	// Bundle is the display name of the bundle or volume.
	Bundle string

	// Volume is set on success.
	Volume *Volume

	// Pages is the number of pages built.
	Pages int

	// Warnings are per-page OCR warnings. They do not make a result fail.
	Warnings []string

	// Kind is KindNone on success.
	Kind ErrorKind

	// Err is the failure cause.
	Err error
}

// Ok returns a successful result.
func Ok(vol *Volume, pages int, warnings []string) Result {
	return Result{Volume: vol, Pages: pages, Warnings: warnings}
}

// Err returns a failed result classified by KindOf.
func Err(err error) Result {
	return Result{Kind: KindOf(err), Err: err}
}

// IsOk reports whether the result is a success.
func (r Result) IsOk() bool {
	return r.Err == nil
}
