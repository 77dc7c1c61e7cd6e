package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
	"github.com/custodia-labs/bookingest/internal/core/services"
)

// fakeSubmitter records submitted jobs.
type fakeSubmitter struct {
	jobs []*domain.IngestJob
	err  error
}

func (f *fakeSubmitter) Submit(job *domain.IngestJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

// fakeOCR returns a fixed report.
type fakeOCR struct {
	last string
	err  error
}

func (f *fakeOCR) AddOCR(_ context.Context, pid string) (*driving.OCRReport, error) {
	f.last = "volume:" + pid
	return &driving.OCRReport{Pages: 2, Persisted: 2, Words: 10}, f.err
}

func (f *fakeOCR) AddOCRToPage(_ context.Context, pid string) (*driving.OCRReport, error) {
	f.last = "page:" + pid
	return &driving.OCRReport{Pages: 1, Skipped: 1}, f.err
}

type testAPI struct {
	server    *Server
	catalog   *memory.Catalog
	jobs      *fakeSubmitter
	ocr       *fakeOCR
	uploadDir string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	catalog := memory.NewCatalog()
	api := &testAPI{
		catalog:   catalog,
		jobs:      &fakeSubmitter{},
		ocr:       &fakeOCR{},
		uploadDir: t.TempDir(),
	}
	srv, err := NewServer(Ports{
		Catalog: services.NewCatalogService(catalog),
		Jobs:    api.jobs,
		OCR:     api.ocr,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("bookingest_jobs_total 0\n")) //nolint:errcheck
		}),
	}, api.uploadDir)
	require.NoError(t, err)
	api.server = srv
	return api
}

func (a *testAPI) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) get(path string) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (a *testAPI) seedVolume(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, a.catalog.Volumes().Save(ctx, &domain.Volume{
		PID:      "sqn75",
		Label:    "Book of Hours",
		Metadata: []domain.MetadataEntry{{Label: "Date", Value: "1820"}},
	}))
	ocrPath := "ocr/sqn75/sqn75_0001.xml"
	require.NoError(t, a.catalog.Pages().SaveAll(ctx, []domain.Page{
		{PID: "sqn75_0001.tiff", VolumePID: "sqn75", Position: 1, Width: 10, Height: 20, OCRPath: &ocrPath, DefaultOCR: domain.OCRWord},
		{PID: "sqn75_0002.tiff", VolumePID: "sqn75", Position: 2, DefaultOCR: domain.OCRWord},
	}))
	require.NoError(t, a.catalog.Words().ReplaceForPage(ctx, "sqn75_0001.tiff", []domain.Word{
		{PagePID: "sqn75_0001.tiff", Content: "Anno", X: 1, Y: 2, W: 3, H: 4, Order: 1, ResourceType: domain.ResourceWord},
	}))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestNewServer_RequiresCatalog(t *testing.T) {
	_, err := NewServer(Ports{}, t.TempDir())
	assert.ErrorIs(t, err, ErrMissingCatalog)
}

func TestHealthzAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	rec := api.get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = api.get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bookingest_jobs_total")
}

func TestVolumeRoutes(t *testing.T) {
	api := newTestAPI(t)
	api.seedVolume(t)

	rec := api.get("/volumes")
	require.Equal(t, http.StatusOK, rec.Code)
	vols := decode[[]volumeView](t, rec)
	require.Len(t, vols, 1)
	assert.Equal(t, "sqn75", vols[0].PID)

	rec = api.get("/volumes/sqn75")
	require.Equal(t, http.StatusOK, rec.Code)
	vol := decode[map[string]any](t, rec)
	assert.Equal(t, "Book of Hours", vol["label"])
	assert.Equal(t, []any{}, vol["collections"])
	assert.Equal(t, []any{map[string]any{"label": "Date", "value": "1820"}}, vol["metadata"])

	rec = api.get("/volumes/sqn75/pages")
	require.Equal(t, http.StatusOK, rec.Code)
	pages := decode[[]pageView](t, rec)
	require.Len(t, pages, 2)
	assert.Equal(t, "ocr/sqn75/sqn75_0001.xml", pages[0].OCRPath)
	assert.Equal(t, 2, pages[1].Position)

	rec = api.get("/pages/sqn75_0001.tiff/words")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []wordView{{Content: "Anno", X: 1, Y: 2, W: 3, H: 4, Order: 1, Type: "word"}}, decode[[]wordView](t, rec))
}

func TestVolumeRoutes_NotFound(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/volumes/nope", "/volumes/nope/pages", "/pages/nope/words"} {
		rec := api.get(path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "not found", path)
	}
}

func TestListJobs(t *testing.T) {
	api := newTestAPI(t)
	require.NoError(t, api.catalog.Jobs().Save(context.Background(), &domain.IngestJob{
		ID: "j1", Kind: domain.JobSingle, State: domain.JobFailed, BundlePath: "/up/bad.zip", Error: "invalid bundle",
	}))

	rec := api.get("/jobs")

	require.Equal(t, http.StatusOK, rec.Code)
	jobs := decode[[]jobView](t, rec)
	require.Len(t, jobs, 1)
	assert.Equal(t, "bad.zip", jobs[0].Bundle)
	assert.Equal(t, "failed", jobs[0].State)
}

func TestOCRRoutes(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(httptest.NewRequest(http.MethodPost, "/volumes/sqn75/ocr", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "volume:sqn75", api.ocr.last)
	assert.Equal(t, reportView{Pages: 2, Persisted: 2, Words: 10, Warnings: []string{}}, decode[reportView](t, rec))

	rec = api.do(httptest.NewRequest(http.MethodPost, "/pages/sqn75_0001.tiff/ocr", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "page:sqn75_0001.tiff", api.ocr.last)

	api.ocr.err = domain.ErrNotFound
	rec = api.do(httptest.NewRequest(http.MethodPost, "/volumes/nope/ocr", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// multipartRequest builds a POST with the given files and fields.
func multipartRequest(t *testing.T, path string, files map[string][]string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, names := range files {
		for _, name := range names {
			part, err := mw.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = part.Write([]byte("content of " + name))
			require.NoError(t, err)
		}
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestIngest_SingleBundle(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(multipartRequest(t, "/ingest",
		map[string][]string{"files": {"sqn75.zip"}},
		map[string]string{"collections": "rare, maps", "image_server_id": "3", "email": "ada@example.test"},
	))

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, api.jobs.jobs, 1)
	job := api.jobs.jobs[0]
	assert.Equal(t, domain.JobSingle, job.Kind)
	assert.Equal(t, "sqn75.zip", job.BundleName)
	assert.Equal(t, []string{"rare", "maps"}, job.Collections)
	assert.Equal(t, int64(3), job.ImageServerID)
	assert.Equal(t, "ada@example.test", job.Creator.Email)
	assert.Equal(t, filepath.Join(api.uploadDir, job.ID, "sqn75.zip"), job.BundlePath)

	data, err := os.ReadFile(job.BundlePath)
	require.NoError(t, err)
	assert.Equal(t, "content of sqn75.zip", string(data))

	accepted := decode[acceptedView](t, rec)
	assert.Equal(t, job.ID, accepted.JobID)
	assert.Equal(t, "single", accepted.Kind)
}

func TestIngest_Batch(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(multipartRequest(t, "/ingest",
		map[string][]string{"files": {"metadata.csv", "a.zip", "b.zip"}}, nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	job := api.jobs.jobs[0]
	assert.Equal(t, domain.JobBatch, job.Kind)
	assert.Len(t, job.Files, 3)
}

func TestIngest_Cloud(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(multipartRequest(t, "/ingest/cloud",
		map[string][]string{"metadata": {"pids.xlsx"}},
		map[string]string{"bucket": "source"},
	))

	require.Equal(t, http.StatusAccepted, rec.Code)
	job := api.jobs.jobs[0]
	assert.Equal(t, domain.JobCloud, job.Kind)
	assert.Equal(t, "source", job.SourceBucket)
	assert.Equal(t, "pids.xlsx", filepath.Base(job.MetadataPath))

	rec = api.do(multipartRequest(t, "/ingest/cloud", map[string][]string{"metadata": {"pids.xlsx"}}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngest_Rejections(t *testing.T) {
	t.Run("no files", func(t *testing.T) {
		api := newTestAPI(t)
		rec := api.do(multipartRequest(t, "/ingest", nil, map[string]string{"email": "x@y.test"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad image server id", func(t *testing.T) {
		api := newTestAPI(t)
		rec := api.do(multipartRequest(t, "/ingest",
			map[string][]string{"files": {"a.zip"}}, map[string]string{"image_server_id": "x"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		api := newTestAPI(t)
		rec := api.do(httptest.NewRequest(http.MethodPost, "/ingest", bytes.NewReader([]byte("{}"))))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("queue full removes upload", func(t *testing.T) {
		api := newTestAPI(t)
		api.jobs.err = errors.New("ingest queue is full")

		rec := api.do(multipartRequest(t, "/ingest", map[string][]string{"files": {"a.zip"}}, nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		entries, err := os.ReadDir(api.uploadDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("too large", func(t *testing.T) {
		catalog := memory.NewCatalog()
		srv, err := NewServer(Ports{Catalog: services.NewCatalogService(catalog), Jobs: &fakeSubmitter{}},
			t.TempDir(), WithMaxUpload(16))
		require.NoError(t, err)
		api := &testAPI{server: srv}

		rec := api.do(multipartRequest(t, "/ingest", map[string][]string{"files": {"a.zip"}}, nil))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestIngest_Disabled(t *testing.T) {
	srv, err := NewServer(Ports{Catalog: services.NewCatalogService(memory.NewCatalog())}, t.TempDir())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/volumes/v/ocr", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
