// Command bookingest ingests digitized book bundles into the catalog.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/bookingest/internal/adapters/driven/config/file"
	"github.com/custodia-labs/bookingest/internal/adapters/driven/metrics"
	"github.com/custodia-labs/bookingest/internal/adapters/driven/notify"
	"github.com/custodia-labs/bookingest/internal/adapters/driven/objectstore"
	"github.com/custodia-labs/bookingest/internal/adapters/driven/ocrsource"
	"github.com/custodia-labs/bookingest/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/bookingest/internal/adapters/driving/cli"
	"github.com/custodia-labs/bookingest/internal/bundle"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
	"github.com/custodia-labs/bookingest/internal/core/services"
	"github.com/custodia-labs/bookingest/internal/logger"
	"github.com/custodia-labs/bookingest/internal/ocr"
)

// queueDepth bounds how many jobs wait for a worker.
const queueDepth = 64

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetBuilder(build)
	cli.SetConfigOpener(openConfig)
	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}

// build resolves settings and wires every adapter into the services.
func build(ctx context.Context) (*cli.Services, func() error, error) {
	home, err := file.DefaultDir()
	if err != nil {
		return nil, nil, err
	}
	if err := file.LoadEnvFiles(".env", filepath.Join(home, ".env")); err != nil {
		return nil, nil, err
	}
	store, err := file.NewConfigStore(home)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Config: %s", store.Path())
	cfg, err := file.LoadSettings(store, home, os.Getenv)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration in %s: %w", store.Path(), err)
	}

	catalog, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	objects, err := openObjectStore(cfg)
	if err != nil {
		catalog.Close() //nolint:errcheck
		return nil, nil, err
	}
	for _, bucket := range []string{cfg.StagingBucket, cfg.TriggerBucket} {
		if err := objects.EnsureBucket(ctx, bucket); err != nil {
			logger.Warn("Bucket %s unavailable: %v", bucket, err)
		}
	}

	prom := metrics.New()
	notifier, err := openNotifier(cfg)
	if err != nil {
		catalog.Close() //nolint:errcheck
		return nil, nil, err
	}

	var index driven.IndexTrigger
	if cfg.IndexWebhook != "" {
		index = notify.NewIndexWebhook(cfg.IndexWebhook, cfg.OCR.Timeout)
	}

	canvases := services.NewCanvasBuilder(catalog.Pages(),
		objectstore.NewTriggerPublisher(objects, cfg.TriggerBucket, cfg.TriggerPrefix), prom)

	ocrOpts := []services.OCROption{
		services.WithParallelism(cfg.OCR.Parallelism),
		services.WithOCRMetrics(prom),
		services.WithRemoteOCR(ocrsource.NewRemote(ocrsource.RemoteConfig{
			DatastreamPrefix:  cfg.OCR.DatastreamPrefix,
			DatastreamSuffix:  cfg.OCR.DatastreamSuffix,
			RequestsPerSecond: cfg.OCR.RequestsPerSecond,
			Timeout:           cfg.OCR.Timeout,
		})),
	}
	orchOpts := []services.OrchestratorOption{
		services.WithObjectStore(objects),
		services.WithNotifier(notifier),
		services.WithMetrics(prom),
	}
	if index != nil {
		ocrOpts = append(ocrOpts, services.WithIndexTrigger(index))
		orchOpts = append(orchOpts, services.WithVolumeIndex(index))
	}
	engine := services.NewOCREngine(catalog, ocr.Default(),
		ocrsource.NewSidecarReader(objects, cfg.StagingBucket), ocrOpts...)

	orch := services.NewOrchestrator(services.IngestConfig{
		Layout: bundle.Layout{
			TmpDir:        cfg.TmpDir,
			ProcessingDir: cfg.ProcessingDir,
			OCRDir:        cfg.OCRDir,
		},
		StagingBucket:  cfg.StagingBucket,
		StagingPrefix:  cfg.StagingPrefix,
		OCRPrefix:      cfg.OCRPrefix,
		AdminURL:       cfg.AdminURL(),
		ViewerURL:      cfg.ViewerURL(),
		Workers:        cfg.Workers,
		KeepFailedJobs: cfg.KeepFailedJobs,
		Retry: services.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Base:        cfg.Retry.Base,
			Max:         cfg.Retry.Max,
		},
	}, catalog, canvases, engine, orchOpts...)

	queue := services.NewDispatcher(orch, cfg.Workers, queueDepth)

	svc := &cli.Services{
		Ingest:    orch,
		OCR:       engine,
		Catalog:   services.NewCatalogService(catalog),
		Queue:     queue,
		Metrics:   prom.Handler(),
		InboxDir:  cfg.InboxDir,
		UploadDir: filepath.Join(cfg.TmpDir, "uploads"),
		HTTPAddr:  cfg.HTTPAddr,
	}
	release := func() error {
		return errors.Join(queue.Stop(), catalog.Close())
	}
	return svc, release, nil
}

func openConfig() (cli.ConfigEditor, error) {
	store, err := file.NewConfigStore("")
	if err != nil {
		return nil, err
	}
	return store, nil
}

// bucketStore is an object store that can create its buckets.
type bucketStore interface {
	driven.ObjectStore
	EnsureBucket(ctx context.Context, bucket string) error
}

func openObjectStore(cfg file.Settings) (bucketStore, error) {
	if cfg.Storage == file.StorageS3 {
		s3, err := objectstore.NewS3Store(objectstore.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKey,
			SecretAccessKey: cfg.S3.SecretKey,
			Region:          cfg.S3.Region,
			UseSSL:          cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	local, err := objectstore.NewLocalStore(cfg.ObjectsRoot)
	if err != nil {
		return nil, err
	}
	return local, nil
}

func openNotifier(cfg file.Settings) (driven.Notifier, error) {
	if cfg.Mail.Host == "" {
		return notify.LogNotifier{}, nil
	}
	mail, err := notify.NewMailNotifier(notify.MailConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})
	if err != nil {
		return nil, err
	}
	return mail, nil
}
