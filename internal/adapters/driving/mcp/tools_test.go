package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func strPtr(s string) *string { return &s }

func TestServer_handleGetVolume(t *testing.T) {
	ctx := context.Background()

	t.Run("returns volume with page count", func(t *testing.T) {
		catalog := &mockCatalogService{
			volume: &domain.Volume{
				PID:         "sqn75",
				Label:       "Book of Hours",
				Metadata:    []domain.MetadataEntry{{Label: "Date", Value: 1820}, {Label: "Notes", Value: nil}},
				Collections: []string{"rare"},
			},
			pages: []domain.Page{{PID: "sqn75_0001.tiff"}, {PID: "sqn75_0002.tiff"}},
		}
		server := newTestServer(t, &Ports{Catalog: catalog})

		_, out, err := server.handleGetVolume(ctx, nil, GetVolumeInput{PID: "sqn75"})

		require.NoError(t, err)
		assert.Equal(t, "sqn75", out.PID)
		assert.Equal(t, "Book of Hours", out.Label)
		assert.Equal(t, 2, out.Pages)
		assert.Equal(t, []string{"rare"}, out.Collections)
		assert.Equal(t, []MetadataOutput{{Label: "Date", Value: "1820"}, {Label: "Notes", Value: ""}}, out.Metadata)
	})

	t.Run("propagates not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Catalog: &mockCatalogService{err: domain.ErrNotFound}})

		_, _, err := server.handleGetVolume(ctx, nil, GetVolumeInput{PID: "nope"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_handleListPages(t *testing.T) {
	catalog := &mockCatalogService{
		pages: []domain.Page{
			{PID: "v_0001.tiff", Position: 1, Width: 100, Height: 200, OCRPath: strPtr("ocr/v/v_0001.xml")},
			{PID: "v_0002.tiff", Position: 2},
		},
	}
	server := newTestServer(t, &Ports{Catalog: catalog})

	_, out, err := server.handleListPages(context.Background(), nil, ListPagesInput{VolumePID: "v"})

	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, PageOutput{PID: "v_0001.tiff", Position: 1, Width: 100, Height: 200, OCRPath: "ocr/v/v_0001.xml"}, out.Pages[0])
	assert.Empty(t, out.Pages[1].OCRPath)
}

func TestServer_handleIngestBundle(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without ingest service", func(t *testing.T) {
		server := newTestServer(t, &Ports{Catalog: &mockCatalogService{}})

		_, _, err := server.handleIngestBundle(ctx, nil, IngestBundleInput{Path: "/in/v.zip"})

		assert.ErrorIs(t, err, ErrIngestDisabled)
	})

	t.Run("rejects relative path", func(t *testing.T) {
		ingest := &mockIngestService{}
		server := newTestServer(t, &Ports{Catalog: &mockCatalogService{}, Ingest: ingest})

		_, _, err := server.handleIngestBundle(ctx, nil, IngestBundleInput{Path: "v.zip"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, ingest.jobs)
	})

	t.Run("builds single job and reports success", func(t *testing.T) {
		ingest := &mockIngestService{result: domain.Ok(&domain.Volume{PID: "sqn75"}, 3, []string{"w"})}
		server := newTestServer(t, &Ports{Catalog: &mockCatalogService{}, Ingest: ingest})

		_, out, err := server.handleIngestBundle(ctx, nil, IngestBundleInput{
			Path:          "/in/sqn75.zip",
			ImageServerID: 2,
			Collections:   []string{"c"},
			Email:         "ada@example.test",
		})

		require.NoError(t, err)
		require.Len(t, ingest.jobs, 1)
		job := ingest.jobs[0]
		assert.Equal(t, domain.JobSingle, job.Kind)
		assert.Equal(t, "sqn75.zip", job.BundleName)
		assert.Equal(t, int64(2), job.ImageServerID)
		assert.Equal(t, "ada@example.test", job.Creator.Email)
		assert.Equal(t, IngestBundleOutput{JobID: "job-1", OK: true, PID: "sqn75", Pages: 3, Warnings: []string{"w"}}, out)
	})

	t.Run("reports failure in output", func(t *testing.T) {
		ingest := &mockIngestService{result: domain.Err(domain.ErrInvalidBundle)}
		server := newTestServer(t, &Ports{Catalog: &mockCatalogService{}, Ingest: ingest})

		_, out, err := server.handleIngestBundle(ctx, nil, IngestBundleInput{Path: "/in/bad.zip"})

		require.NoError(t, err)
		assert.False(t, out.OK)
		assert.Equal(t, "invalid_bundle", out.Kind)
		assert.Equal(t, "invalid bundle", out.Error)
	})
}

func TestServer_handleAddOCR(t *testing.T) {
	ctx := context.Background()
	report := &driving.OCRReport{Pages: 2, Persisted: 1, Skipped: 1, Words: 40}

	t.Run("page takes precedence", func(t *testing.T) {
		ocr := &mockOCRService{report: report}
		server := newTestServer(t, &Ports{Catalog: &mockCatalogService{}, OCR: ocr})

		_, out, err := server.handleAddOCR(ctx, nil, AddOCRInput{VolumePID: "v", PagePID: "v_0001.tiff"})

		require.NoError(t, err)
		assert.Equal(t, []string{"page:v_0001.tiff"}, ocr.calls)
		assert.Equal(t, AddOCROutput{Pages: 2, Persisted: 1, Skipped: 1, Words: 40}, out)
	})

	t.Run("volume", func(t *testing.T) {
		ocr := &mockOCRService{report: report}
		server := newTestServer(t, &Ports{Catalog: &mockCatalogService{}, OCR: ocr})

		_, _, err := server.handleAddOCR(ctx, nil, AddOCRInput{VolumePID: "v"})

		require.NoError(t, err)
		assert.Equal(t, []string{"volume:v"}, ocr.calls)
	})

	t.Run("requires a target", func(t *testing.T) {
		server := newTestServer(t, &Ports{Catalog: &mockCatalogService{}, OCR: &mockOCRService{}})

		_, _, err := server.handleAddOCR(ctx, nil, AddOCRInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("propagates errors", func(t *testing.T) {
		server := newTestServer(t, &Ports{Catalog: &mockCatalogService{}, OCR: &mockOCRService{err: errors.New("boom")}})

		_, _, err := server.handleAddOCR(ctx, nil, AddOCRInput{VolumePID: "v"})

		assert.EqualError(t, err, "boom")
	})
}
