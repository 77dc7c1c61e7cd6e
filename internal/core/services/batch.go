package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/logger"
	"github.com/custodia-labs/bookingest/internal/metadata"
)

// IngestBatch splits an upload into one metadata file and N bundles and
// ingests each bundle as its own single-volume job. Bundles are matched to
// metadata rows by the filename column. Sub-jobs are independent; one
// result is returned per bundle.
func (o *Orchestrator) IngestBatch(ctx context.Context, job *domain.IngestJob) []domain.Result {
	if job.ID == "" {
		job.ID = o.newID()
	}
	job.Kind = domain.JobBatch
	o.track(ctx, job)

	// 1. Split the upload
	metaPath, bundles := SplitUpload(job.Files)
	if len(bundles) == 0 {
		return []domain.Result{o.fail(ctx, job, domain.ErrNoBundles)}
	}

	// 2. Read the metadata rows
	var rows []domain.MetadataRecord
	if metaPath != "" {
		var err error
		rows, err = metadata.ReadFile(metaPath, o.cfg.Schema)
		switch {
		case errors.Is(err, domain.ErrUnsupportedMetadataFormat):
			logger.Warn("Batch %s: ignoring metadata %s: %v", job.ID, filepath.Base(metaPath), err)
		case err != nil:
			return []domain.Result{o.fail(ctx, job, fmt.Errorf("read batch metadata: %w", err))}
		}
	}
	o.advance(ctx, job, domain.JobPrepared)
	logger.Info("Batch %s: %d bundles, %d metadata rows", job.ID, len(bundles), len(rows))

	// 3. One sub-job per bundle
	results := make([]domain.Result, len(bundles))
	var g errgroup.Group
	g.SetLimit(o.cfg.Workers)
	for i, path := range bundles {
		name := filepath.Base(path)
		rec := MatchRow(rows, name)
		if rec == nil && len(rows) > 0 {
			logger.Warn("Batch %s: no metadata row for %s", job.ID, name)
		}
		sub := &domain.IngestJob{
			ID:            fmt.Sprintf("%s-%d", job.ID, i+1),
			BundlePath:    path,
			BundleName:    name,
			Metadata:      rec,
			ImageServerID: job.ImageServerID,
			Collections:   job.Collections,
			Creator:       job.Creator,
		}
		g.Go(func() error {
			results[i] = o.IngestSingle(ctx, sub)
			return nil
		})
	}
	_ = g.Wait()

	o.discard(ctx, job)
	return results
}

// SplitUpload separates the metadata file from the zip bundles. The metadata
// file is the first non-zip file whose name contains "metadata"; other
// non-zip files are ignored.
func SplitUpload(files []string) (metaPath string, bundles []string) {
	for _, f := range files {
		base := strings.ToLower(filepath.Base(f))
		switch {
		case filepath.Ext(base) == ".zip":
			bundles = append(bundles, f)
		case metaPath == "" && strings.Contains(base, "metadata"):
			metaPath = f
		}
	}
	return metaPath, bundles
}

// MatchRow returns the row whose filename column equals the bundle name with
// or without its extension. When several rows match, the last wins.
func MatchRow(rows []domain.MetadataRecord, bundleName string) *domain.MetadataRecord {
	stem := strings.TrimSuffix(bundleName, filepath.Ext(bundleName))
	var match *domain.MetadataRecord
	for i := range rows {
		fn, ok := rows[i].Lookup("filename")
		if !ok || fn == "" {
			continue
		}
		if fn == bundleName || fn == stem {
			match = &rows[i]
		}
	}
	return match
}
