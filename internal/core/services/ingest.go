package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/bookingest/internal/bundle"
	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
	"github.com/custodia-labs/bookingest/internal/logger"
	"github.com/custodia-labs/bookingest/internal/metadata"
)

// Ensure Orchestrator implements the interface.
var _ driving.IngestService = (*Orchestrator)(nil)

// IngestConfig holds the orchestrator's settings.
type IngestConfig struct {
	// Layout is the filesystem arena layout.
	Layout bundle.Layout

	// Schema is the catalog schema metadata is normalised against.
	Schema *domain.Schema

	// StagingBucket receives objects copied by cloud jobs.
	StagingBucket string

	// StagingPrefix is the key prefix for copied images.
	StagingPrefix string

	// OCRPrefix is the key prefix for copied sidecars.
	OCRPrefix string

	// AdminURL and ViewerURL are link templates; "{pid}" is replaced by the volume pid.
	AdminURL  string
	ViewerURL string

	// Workers bounds how many sub-jobs of a batch run at once.
	Workers int

	// KeepFailedJobs retains failed job records for inspection.
	KeepFailedJobs bool

	// Retry governs transient failures.
	Retry RetryPolicy
}

// Orchestrator sequences the pipeline for single, batch and cloud jobs.
type Orchestrator struct {
	cfg        IngestConfig
	catalog    driven.Catalog
	reconciler *Reconciler
	canvases   *CanvasBuilder
	ocr        *OCREngine
	objects    driven.ObjectStore
	notifier   driven.Notifier
	index      driven.IndexTrigger
	metrics    driven.Metrics
	locks      *KeyedMutex
	newID      func() string
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithObjectStore enables cloud jobs.
func WithObjectStore(store driven.ObjectStore) OrchestratorOption {
	return func(o *Orchestrator) { o.objects = store }
}

// WithNotifier sends job outcome notifications.
func WithNotifier(n driven.Notifier) OrchestratorOption {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithVolumeIndex refreshes the search index after a volume succeeds.
func WithVolumeIndex(index driven.IndexTrigger) OrchestratorOption {
	return func(o *Orchestrator) { o.index = index }
}

// WithMetrics records job counters.
func WithMetrics(m driven.Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = metricsOrNop(m) }
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(
	cfg IngestConfig,
	catalog driven.Catalog,
	canvases *CanvasBuilder,
	ocr *OCREngine,
	opts ...OrchestratorOption,
) *Orchestrator {
	if cfg.Schema == nil {
		cfg.Schema = domain.DefaultSchema()
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	cfg.Workers = max(cfg.Workers, 1)

	o := &Orchestrator{
		cfg:        cfg,
		catalog:    catalog,
		reconciler: NewReconciler(catalog),
		canvases:   canvases,
		ocr:        ocr,
		metrics:    nopMetrics{},
		locks:      NewKeyedMutex(),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run dispatches a job on its kind.
func (o *Orchestrator) Run(ctx context.Context, job *domain.IngestJob) []domain.Result {
	if job.ID == "" {
		job.ID = o.newID()
	}
	switch job.Kind {
	case domain.JobSingle, "":
		return []domain.Result{o.IngestSingle(ctx, job)}
	case domain.JobBatch:
		return o.IngestBatch(ctx, job)
	case domain.JobCloud:
		return o.IngestCloud(ctx, job)
	}
	o.track(ctx, job)
	return []domain.Result{o.fail(ctx, job, fmt.Errorf("%w: job kind %q", domain.ErrInvalidInput, job.Kind))}
}

// IngestSingle ingests one bundle and reports the outcome.
func (o *Orchestrator) IngestSingle(ctx context.Context, job *domain.IngestJob) domain.Result {
	if job.ID == "" {
		job.ID = o.newID()
	}
	job.Kind = domain.JobSingle
	o.track(ctx, job)

	logger.Info("Ingest %s: starting %s", job.ID, job.DisplayName())
	vol, pages, warnings, err := o.runSingle(ctx, job)
	if err != nil {
		return o.fail(ctx, job, err)
	}
	return o.succeed(ctx, job, vol, pages, warnings)
}

func (o *Orchestrator) runSingle(ctx context.Context, job *domain.IngestJob) (*domain.Volume, int, []string, error) {
	if job.BundlePath == "" {
		return nil, 0, nil, fmt.Errorf("%w: no bundle", domain.ErrInvalidInput)
	}

	// 1. Workspace
	ws, err := o.cfg.Layout.Open(job.ID)
	if err != nil {
		return nil, 0, nil, err
	}
	defer func() {
		if err := ws.Remove(); err != nil {
			logger.Warn("Remove workspace %s: %v", job.ID, err)
		}
	}()

	// 2. Metadata: supplied metadata wins over the bundle's file
	rec := job.Metadata
	if rec == nil {
		if rec, err = o.bundleMetadata(job.BundlePath, ws); err != nil {
			return nil, 0, nil, err
		}
	}

	// 3. Serialise jobs for the same pid
	unlock, err := o.lockPID(ctx, rec)
	if err != nil {
		return nil, 0, nil, err
	}
	defer unlock()

	// 4. Reconcile the volume
	vol, err := o.prepare(ctx, job, rec)
	if err != nil {
		return nil, 0, nil, err
	}

	// 5. Unpack
	unpacked, err := bundle.Unpack(ctx, job.BundlePath, vol.PID, ws)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("unpack: %w", err)
	}
	o.advance(ctx, job, domain.JobUnpacked)
	logger.Info("Job %s unpacked %s: %d images, %d OCR files, %d skipped",
		job.ID, vol.PID, len(unpacked.Images), len(unpacked.OCRFiles), unpacked.Skipped)

	// 6. Canvases
	pages, err := o.canvases.Build(ctx, vol, unpacked.TriggerList, unpacked.OCRDir, ws.ProcessingDir())
	if err != nil {
		return nil, 0, nil, fmt.Errorf("build canvases: %w", err)
	}
	if err := o.publish(ctx, vol.PID, unpacked.Images); err != nil {
		return nil, 0, nil, err
	}
	o.advance(ctx, job, domain.JobCanvasesBuilt)

	// 7. OCR
	report, err := o.ocrPass(ctx, vol.PID, pages)
	if err != nil {
		return nil, 0, nil, err
	}
	o.advance(ctx, job, domain.JobOCRAdded)

	return vol, len(pages), report.Warnings, nil
}

// bundleMetadata reads the first row of the bundle's metadata file.
// A missing or unsupported file means no metadata.
func (o *Orchestrator) bundleMetadata(archive string, ws *bundle.Workspace) (*domain.MetadataRecord, error) {
	path, err := bundle.ExtractMetadata(archive, ws)
	if err != nil || path == "" {
		return nil, err
	}
	records, err := metadata.ReadFile(path, o.cfg.Schema)
	if errors.Is(err, domain.ErrUnsupportedMetadataFormat) {
		logger.Warn("Ignoring metadata in %s: %v", bundle.Base(archive), err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (o *Orchestrator) lockPID(ctx context.Context, rec *domain.MetadataRecord) (func(), error) {
	pid := ""
	if rec != nil {
		pid = strings.TrimSpace(rec.GetString("pid"))
	}
	if pid == "" {
		return func() {}, nil
	}
	unlock, err := o.locks.Lock(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", domain.ErrJobInProgress, pid, err)
	}
	return unlock, nil
}

// prepare reconciles the job's volume and records the Prepared state.
func (o *Orchestrator) prepare(ctx context.Context, job *domain.IngestJob, rec *domain.MetadataRecord) (*domain.Volume, error) {
	server, err := o.imageServer(ctx, job.ImageServerID)
	if err != nil {
		return nil, err
	}
	vol, err := o.reconciler.Reconcile(ctx, rec, server, job.Collections)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	o.advance(ctx, job, domain.JobPrepared)
	return vol, nil
}

func (o *Orchestrator) imageServer(ctx context.Context, id int64) (*domain.ImageServer, error) {
	if id == 0 {
		return nil, nil
	}
	server, err := o.catalog.ImageServers().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get image server %d: %w", id, err)
	}
	return server, nil
}

func (o *Orchestrator) publish(ctx context.Context, pid string, images []string) error {
	return o.cfg.Retry.Do(ctx, "publish trigger list", func(ctx context.Context) error {
		return o.canvases.Publish(ctx, pid, images)
	}, nil, o.metrics.Retried)
}

// ocrPass looks the volume up again, retrying while its write may not be
// visible yet, then runs the OCR engine over pages.
func (o *Orchestrator) ocrPass(ctx context.Context, pid string, pages []domain.Page) (*driving.OCRReport, error) {
	var vol *domain.Volume
	err := o.cfg.Retry.Do(ctx, "look up volume "+pid, func(ctx context.Context) error {
		v, err := o.catalog.Volumes().Get(ctx, pid)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrVolumeNotFoundTransient, pid)
		}
		vol = v
		return err
	}, o.confirmVolume(pid), o.metrics.Retried)
	if err != nil {
		return nil, err
	}
	return o.ocr.Run(ctx, vol, pages)
}

// confirmVolume turns a transient miss into a fatal one when a final lookup
// still finds nothing.
func (o *Orchestrator) confirmVolume(pid string) func(context.Context, error) error {
	return func(ctx context.Context, err error) error {
		if !errors.Is(err, domain.ErrVolumeNotFoundTransient) {
			return err
		}
		if _, gerr := o.catalog.Volumes().Get(ctx, pid); errors.Is(gerr, domain.ErrNotFound) {
			return fmt.Errorf("%w: %w", domain.ErrVolumeNotFoundFatal, err)
		}
		return err
	}
}

// track stores a new job record.
func (o *Orchestrator) track(ctx context.Context, job *domain.IngestJob) {
	job.State = domain.JobCreated
	if err := o.catalog.Jobs().Save(ctx, job); err != nil {
		logger.Warn("Save job %s: %v", job.ID, err)
	}
}

// advance records a state transition. Failures to record are logged only.
func (o *Orchestrator) advance(ctx context.Context, job *domain.IngestJob, state domain.JobState) {
	job.State = state
	if err := o.catalog.Jobs().UpdateState(ctx, job.ID, state, ""); err != nil {
		logger.Warn("Update job %s to %s: %v", job.ID, state, err)
	}
	logger.Debug("Job %s: %s", job.ID, state)
}

// succeed runs the success side effects: persist, reindex, notify, discard.
func (o *Orchestrator) succeed(ctx context.Context, job *domain.IngestJob, vol *domain.Volume, pages int, warnings []string) domain.Result {
	if err := o.catalog.Volumes().Save(ctx, vol); err != nil {
		return o.fail(ctx, job, fmt.Errorf("save volume %s: %w", vol.PID, err))
	}
	if o.index != nil {
		if err := o.index.ReindexVolume(ctx, vol.PID); err != nil {
			logger.Warn("Reindex volume %s: %v", vol.PID, err)
		}
	}
	if o.notifier != nil {
		notice := driven.SuccessNotice{
			Creator:   job.Creator,
			VolumePID: vol.PID,
			Label:     vol.Label,
			AdminURL:  expandURL(o.cfg.AdminURL, vol.PID),
			ViewerURL: expandURL(o.cfg.ViewerURL, vol.PID),
			Pages:     pages,
			Warnings:  warnings,
		}
		if err := o.notifier.NotifySuccess(ctx, notice); err != nil {
			logger.Warn("Notify success for %s: %v", vol.PID, err)
		}
	}

	o.advance(ctx, job, domain.JobSucceeded)
	o.discard(ctx, job)
	o.metrics.JobFinished(job.Kind, domain.KindNone)
	logger.Info("Ingest %s: %s complete with %d pages, %d warnings", job.ID, vol.PID, pages, len(warnings))

	res := domain.Ok(vol, pages, warnings)
	res.JobID = job.ID
	res.Bundle = job.DisplayName()
	return res
}

// fail runs the failure side effects: record, notify, discard.
func (o *Orchestrator) fail(ctx context.Context, job *domain.IngestJob, err error) domain.Result {
	res := domain.Err(err)
	res.JobID = job.ID
	res.Bundle = job.DisplayName()

	logger.Error("Ingest %s: %s failed: %v", job.ID, res.Bundle, err)
	job.State = domain.JobFailed
	job.Error = err.Error()
	if uerr := o.catalog.Jobs().UpdateState(ctx, job.ID, domain.JobFailed, job.Error); uerr != nil {
		logger.Warn("Update job %s: %v", job.ID, uerr)
	}

	if o.notifier != nil {
		notice := driven.FailureNotice{Creator: job.Creator, Bundle: res.Bundle, Error: err.Error()}
		if nerr := o.notifier.NotifyFailure(ctx, notice); nerr != nil {
			logger.Warn("Notify failure for %s: %v", res.Bundle, nerr)
		}
	}

	if !o.cfg.KeepFailedJobs {
		o.discard(ctx, job)
	}
	o.metrics.JobFinished(job.Kind, res.Kind)
	return res
}

func (o *Orchestrator) discard(ctx context.Context, job *domain.IngestJob) {
	if err := o.catalog.Jobs().Delete(ctx, job.ID); err != nil {
		logger.Warn("Delete job %s: %v", job.ID, err)
	}
}

func expandURL(template, pid string) string {
	if template == "" {
		return ""
	}
	return strings.ReplaceAll(template, "{pid}", pid)
}
