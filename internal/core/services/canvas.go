package services

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/custodia-labs/bookingest/internal/bundle"
	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
	"github.com/custodia-labs/bookingest/internal/logger"
)

// TriggerChunkSize is the number of image names per published trigger file.
const TriggerChunkSize = 10

// pageAttrs resolves the dimensions and sidecar of one image.
type pageAttrs func(image string) (width, height int, ocrPath *string)

// CanvasBuilder turns an ordered image list into pages.
type CanvasBuilder struct {
	pages     driven.PageStore
	publisher driven.TriggerPublisher
	metrics   driven.Metrics
}

// NewCanvasBuilder creates a canvas builder. The publisher may be nil,
// in which case trigger lists are not handed off.
func NewCanvasBuilder(pages driven.PageStore, publisher driven.TriggerPublisher, metrics driven.Metrics) *CanvasBuilder {
	return &CanvasBuilder{
		pages:     pages,
		publisher: publisher,
		metrics:   metricsOrNop(metrics),
	}
}

// Build creates one page per trigger-list line. Pixel sizes come from the
// processing directory and sidecars from ocrDir.
func (b *CanvasBuilder) Build(
	ctx context.Context,
	vol *domain.Volume,
	triggerList, ocrDir, processingDir string,
) ([]domain.Page, error) {
	images, err := ReadTriggerList(triggerList)
	if err != nil {
		return nil, err
	}
	return b.build(ctx, vol, images, func(image string) (int, int, *string) {
		stem := bundle.Stem(image)
		w, h := bundle.Dimensions(processingDir, stem)
		return w, h, bundle.FindSidecar(ocrDir, stem)
	})
}

// BuildFromKeys creates one page per image key. Sidecars are chosen among
// ocrKeys and stored as keys; dimensions are left at zero.
func (b *CanvasBuilder) BuildFromKeys(
	ctx context.Context,
	vol *domain.Volume,
	images, ocrKeys []string,
) ([]domain.Page, error) {
	return b.build(ctx, vol, images, func(image string) (int, int, *string) {
		key, ok := bundle.MatchSidecar(ocrKeys, bundle.Stem(image))
		if !ok {
			return 0, 0, nil
		}
		return 0, 0, &key
	})
}

func (b *CanvasBuilder) build(ctx context.Context, vol *domain.Volume, images []string, attrs pageAttrs) ([]domain.Page, error) {
	names := make([]string, 0, len(images))
	for _, img := range images {
		names = append(names, bundle.Base(img))
	}
	sort.Strings(names)

	pages := make([]domain.Page, 0, len(names))
	for i, name := range names {
		w, h, ocrPath := attrs(name)
		pages = append(pages, domain.Page{
			PID:        PagePID(name),
			VolumePID:  vol.PID,
			Position:   i + 1,
			Width:      w,
			Height:     h,
			OCRPath:    ocrPath,
			DefaultOCR: domain.OCRWord,
		})
	}

	if err := b.pages.SaveAll(ctx, pages); err != nil {
		return nil, fmt.Errorf("save pages for %s: %w", vol.PID, err)
	}
	b.metrics.PagesBuilt(len(pages))
	logger.Debug("Built %d pages for %s", len(pages), vol.PID)
	return pages, nil
}

// Publish hands the trigger list to the image-conversion process in chunks
// of TriggerChunkSize, named {pid}-{idx}.txt with idx from 0.
func (b *CanvasBuilder) Publish(ctx context.Context, pid string, images []string) error {
	if b.publisher == nil || len(images) == 0 {
		return nil
	}
	for idx, start := 0, 0; start < len(images); idx, start = idx+1, start+TriggerChunkSize {
		end := min(start+TriggerChunkSize, len(images))
		name := fmt.Sprintf("%s-%d.txt", pid, idx)
		if err := b.publisher.Publish(ctx, name, images[start:end]); err != nil {
			return fmt.Errorf("publish trigger %s: %w", name, err)
		}
	}
	return nil
}

// PagePID derives a page pid from an image name.
func PagePID(image string) string {
	return bundle.Stem(image) + domain.PageFormatSuffix
}

// ReadTriggerList reads image names, one per line, dropping blank lines.
func ReadTriggerList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trigger list: %w", err)
	}
	var images []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			images = append(images, line)
		}
	}
	return images, nil
}
