package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown parser or storage type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingest Errors.

	// ErrInvalidBundle indicates the bundle archive cannot be opened or read.
	// It is fatal to the job that owns the bundle.
	ErrInvalidBundle = errors.New("invalid bundle")

	// ErrUnsupportedMetadataFormat indicates the metadata file type is not CSV, TSV or xlsx.
	// Callers treat it as "no metadata supplied".
	ErrUnsupportedMetadataFormat = errors.New("unsupported metadata format")

	// ErrNoBundles indicates a batch upload contained no zip bundles.
	ErrNoBundles = errors.New("no bundles in upload")

	// OCR Errors. These never escape the OCR pass; they become page warnings.

	// ErrOCRFetch indicates OCR data could not be retrieved for a page.
	ErrOCRFetch = errors.New("ocr fetch failure")

	// ErrOCRParse indicates malformed OCR data or an ALTO/TEI schema violation.
	ErrOCRParse = errors.New("ocr parse error")

	// ErrOCRValidation indicates hOCR that fails the relaxed hOCR profile.
	ErrOCRValidation = errors.New("hocr validation error")

	// ErrNoOCR indicates a page has no OCR source. It is not a failure.
	ErrNoOCR = errors.New("no ocr available")

	// Catalog Errors.

	// ErrVolumeNotFoundTransient indicates a volume lookup missed, possibly because
	// the creating write is not yet visible. Retryable.
	ErrVolumeNotFoundTransient = errors.New("volume not found (transient)")

	// ErrVolumeNotFoundFatal indicates a volume is confirmed absent.
	ErrVolumeNotFoundFatal = errors.New("volume not found")

	// ErrRetriesExhausted indicates the retry budget for a job ran out.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrJobInProgress indicates another job holds the volume's pid.
	ErrJobInProgress = errors.New("job in progress for volume")
)

// transient is implemented by infrastructure errors that know whether a retry can help.
type transient interface {
	Transient() bool
}

// IsTransient reports whether err is worth retrying.
// Volume visibility races and storage errors flagged retryable are transient;
// everything else is terminal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrVolumeNotFoundTransient) && !errors.Is(err, ErrVolumeNotFoundFatal) {
		return true
	}
	var t transient
	if errors.As(err, &t) {
		return t.Transient()
	}
	return false
}
