package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/custodia-labs/bookingest/internal/bundle"
	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
	"github.com/custodia-labs/bookingest/internal/logger"
	"github.com/custodia-labs/bookingest/internal/metadata"
)

// IngestCloud reads a spreadsheet of pids and ingests each volume from the
// job's source bucket. One result is returned per row.
func (o *Orchestrator) IngestCloud(ctx context.Context, job *domain.IngestJob) []domain.Result {
	if job.ID == "" {
		job.ID = o.newID()
	}
	job.Kind = domain.JobCloud
	o.track(ctx, job)

	if o.objects == nil {
		return []domain.Result{o.fail(ctx, job, fmt.Errorf("%w: no object store configured", domain.ErrInvalidInput))}
	}
	if job.SourceBucket == "" {
		return []domain.Result{o.fail(ctx, job, fmt.Errorf("%w: no source bucket", domain.ErrInvalidInput))}
	}

	// 1. Read the pid list
	rows, err := metadata.ReadFile(job.MetadataPath, o.cfg.Schema)
	if err != nil {
		return []domain.Result{o.fail(ctx, job, fmt.Errorf("read pid list: %w", err))}
	}

	// 2. List the source bucket once
	var objects []driven.ObjectInfo
	err = o.cfg.Retry.Do(ctx, "list "+job.SourceBucket, func(ctx context.Context) error {
		var lerr error
		objects, lerr = o.objects.List(ctx, job.SourceBucket, "")
		return lerr
	}, nil, o.metrics.Retried)
	if err != nil {
		return []domain.Result{o.fail(ctx, job, err)}
	}
	o.advance(ctx, job, domain.JobPrepared)
	logger.Info("Cloud %s: %d volumes, %d objects in %s", job.ID, len(rows), len(objects), job.SourceBucket)

	// 3. One volume per row
	results := make([]domain.Result, 0, len(rows))
	for i := range rows {
		results = append(results, o.cloudVolume(ctx, job, &rows[i], i+1, objects))
	}

	o.discard(ctx, job)
	return results
}

func (o *Orchestrator) cloudVolume(
	ctx context.Context,
	parent *domain.IngestJob,
	rec *domain.MetadataRecord,
	row int,
	objects []driven.ObjectInfo,
) domain.Result {
	pid := strings.TrimSpace(rec.GetString("pid"))
	sub := &domain.IngestJob{
		ID:            fmt.Sprintf("%s-%d", parent.ID, row),
		Kind:          domain.JobCloud,
		BundleName:    pid,
		SourceBucket:  parent.SourceBucket,
		Metadata:      rec,
		ImageServerID: parent.ImageServerID,
		Collections:   parent.Collections,
		Creator:       parent.Creator,
	}
	o.track(ctx, sub)
	if pid == "" {
		sub.BundleName = fmt.Sprintf("%s row %d", bundle.Base(parent.MetadataPath), row)
		return o.fail(ctx, sub, fmt.Errorf("%w: row %d has no pid", domain.ErrInvalidInput, row))
	}

	vol, pages, warnings, err := o.runCloud(ctx, sub, rec, objects)
	if err != nil {
		return o.fail(ctx, sub, err)
	}
	return o.succeed(ctx, sub, vol, pages, warnings)
}

func (o *Orchestrator) runCloud(
	ctx context.Context,
	job *domain.IngestJob,
	rec *domain.MetadataRecord,
	objects []driven.ObjectInfo,
) (*domain.Volume, int, []string, error) {
	unlock, err := o.lockPID(ctx, rec)
	if err != nil {
		return nil, 0, nil, err
	}
	defer unlock()

	// 1. Reconcile
	vol, err := o.prepare(ctx, job, rec)
	if err != nil {
		return nil, 0, nil, err
	}

	// 2. Copy matching objects to staging
	images, ocrKeys, err := o.copyVolume(ctx, job.SourceBucket, vol.PID, objects)
	if err != nil {
		return nil, 0, nil, err
	}
	if len(images) == 0 {
		logger.Warn("Cloud %s: no images for %s in %s", job.ID, vol.PID, job.SourceBucket)
	}
	o.advance(ctx, job, domain.JobUnpacked)

	// 3. Canvases straight from the copied keys
	pages, err := o.canvases.BuildFromKeys(ctx, vol, images, ocrKeys)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("build canvases: %w", err)
	}
	if err := o.publish(ctx, vol.PID, images); err != nil {
		return nil, 0, nil, err
	}
	o.advance(ctx, job, domain.JobCanvasesBuilt)

	// 4. OCR
	report, err := o.ocrPass(ctx, vol.PID, pages)
	if err != nil {
		return nil, 0, nil, err
	}
	o.advance(ctx, job, domain.JobOCRAdded)

	return vol, len(pages), report.Warnings, nil
}

// copyVolume copies the objects whose key contains pid into the staging
// bucket. Images land at {staging}/{name} and sidecars at {ocr}/{pid}/{name},
// name carrying the pid prefix. It returns the sorted image names and the
// sidecar keys.
func (o *Orchestrator) copyVolume(
	ctx context.Context,
	source, pid string,
	objects []driven.ObjectInfo,
) (images, ocrKeys []string, err error) {
	var errs []error
	for _, obj := range objects {
		if !strings.Contains(obj.Key, pid) || strings.HasSuffix(obj.Key, "/") {
			continue
		}

		name := bundle.PrefixPID(pid, bundle.Base(obj.Key))
		var dst string
		switch bundle.Classify(obj.Key) {
		case bundle.KindImage:
			dst = path.Join(o.cfg.StagingPrefix, name)
		case bundle.KindOCR:
			dst = path.Join(o.cfg.OCRPrefix, pid, name)
		default:
			continue
		}

		cerr := o.cfg.Retry.Do(ctx, "copy "+obj.Key, func(ctx context.Context) error {
			return o.objects.Copy(ctx, source, obj.Key, o.cfg.StagingBucket, dst)
		}, nil, o.metrics.Retried)
		if cerr != nil {
			errs = append(errs, cerr)
			continue
		}

		if bundle.Classify(obj.Key) == bundle.KindImage {
			images = append(images, name)
		} else {
			ocrKeys = append(ocrKeys, dst)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, nil, fmt.Errorf("copy objects for %s: %w", pid, err)
	}
	sort.Strings(images)
	return images, ocrKeys, nil
}
