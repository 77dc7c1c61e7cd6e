package domain

import (
	"path/filepath"
	"time"
)

// JobKind is the variant of an ingest job.
type JobKind string

const (
	// JobSingle ingests one zip bundle as one volume.
	JobSingle JobKind = "single"

	// JobBatch ingests several bundles matched against one metadata file.
	JobBatch JobKind = "batch"

	// JobCloud ingests volumes listed in a spreadsheet from an object store bucket.
	JobCloud JobKind = "cloud"
)

// JobState tracks a job through the pipeline.
type JobState string

const (
	JobCreated       JobState = "created"
	JobPrepared      JobState = "prepared"
	JobUnpacked      JobState = "unpacked"
	JobCanvasesBuilt JobState = "canvases_built"
	JobOCRAdded      JobState = "ocr_added"
	JobSucceeded     JobState = "succeeded"
	JobFailed        JobState = "failed"
)

// Creator is the user who submitted a job and receives its notifications.
type Creator struct {
	Name  string
	Email string
}

// IngestJob is an ephemeral work descriptor.
// It is deleted once its outcome has been reported.
type IngestJob struct {
	// ID is the job identifier.
	ID string

	// Kind selects the ingest variant.
	Kind JobKind

	// State is the last pipeline state reached.
	State JobState

	// BundlePath is the zip bundle for JobSingle.
	BundlePath string

	// BundleName is the display name used in notifications.
	BundleName string

	// Files are the uploaded files for JobBatch.
	Files []string

	// MetadataPath is the spreadsheet of pids for JobCloud.
	MetadataPath string

	// SourceBucket is the bucket listed by JobCloud.
	SourceBucket string

	// Metadata is pre-supplied metadata; it takes precedence over a bundled file.
	Metadata *MetadataRecord

	// ImageServerID references the target image server.
	ImageServerID int64

	// Collections are set on every volume the job produces.
	Collections []string

	// Creator receives notifications.
	Creator Creator

	// Error is the last failure message.
	Error string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns the name shown to users for this job.
func (j *IngestJob) DisplayName() string {
	switch {
	case j.BundleName != "":
		return j.BundleName
	case j.BundlePath != "":
		return filepath.Base(j.BundlePath)
	case j.MetadataPath != "":
		return filepath.Base(j.MetadataPath)
	}
	return j.ID
}
