package services

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/bookingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bookingest/internal/bundle"
	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
	"github.com/custodia-labs/bookingest/internal/ocr"
)

// noSleep skips backoff waits in tests.
func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// fastRetry is a small retry budget without waits.
func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, Base: time.Millisecond, Max: time.Second, sleep: noSleep}
}

// pngBytes encodes a blank PNG of the given size.
func pngBytes(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.String()
}

// writeZip builds a zip archive at dir/name from entries, preserving order.
func writeZip(t *testing.T, dir, name string, entries [][2]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(e[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

// xlsxBytes builds a one-sheet workbook from rows.
func xlsxBytes(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.String()
}

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// volumeBundle returns zip entries for n PNG pages named page_01.png...
func volumeBundle(t *testing.T, n int) [][2]string {
	t.Helper()
	img := pngBytes(t, 4, 3)
	entries := make([][2]string, 0, n)
	for i := n; i >= 1; i-- {
		entries = append(entries, [2]string{"images/" + pageName(i) + ".png", img})
	}
	return entries
}

func pageName(i int) string {
	return "page_" + string(rune('0'+i/10)) + string(rune('0'+i%10))
}

func newLayout(t *testing.T) bundle.Layout {
	t.Helper()
	root := t.TempDir()
	return bundle.Layout{
		TmpDir:        filepath.Join(root, "tmp"),
		ProcessingDir: filepath.Join(root, "processing"),
		OCRDir:        filepath.Join(root, "ocr"),
	}
}

// fakeSidecars reads sidecars from a key map, then from disk.
type fakeSidecars struct {
	objects map[string]string
}

func (f *fakeSidecars) ReadSidecar(_ context.Context, _ *domain.ImageServer, path string) ([]byte, error) {
	if content, ok := f.objects[path]; ok {
		return []byte(content), nil
	}
	return os.ReadFile(path)
}

// fakeRemote serves canned OCR per page pid.
type fakeRemote struct {
	lines      map[string]string
	positional map[string]string
	err        error
	calls      []string
	mu         sync.Mutex
}

func (f *fakeRemote) FetchLines(_ context.Context, page *domain.Page, _ *domain.ImageServer) ([]byte, error) {
	f.record("lines " + page.PID)
	if content, ok := f.lines[page.PID]; ok {
		return []byte(content), nil
	}
	return nil, domain.ErrNoOCR
}

func (f *fakeRemote) FetchPositional(_ context.Context, _ *domain.Volume, page *domain.Page, _ *domain.ImageServer) ([]byte, error) {
	f.record("positional " + page.PID)
	if f.err != nil {
		return nil, f.err
	}
	if content, ok := f.positional[page.PID]; ok {
		return []byte(content), nil
	}
	return nil, domain.ErrNoOCR
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

// recordingPublisher keeps published trigger chunks.
type recordingPublisher struct {
	mu     sync.Mutex
	chunks map[string][]string
	names  []string
	fails  int
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{chunks: make(map[string][]string)}
}

func (p *recordingPublisher) Publish(_ context.Context, name string, lines []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fails > 0 {
		p.fails--
		return transientErr{}
	}
	p.names = append(p.names, name)
	p.chunks[name] = append([]string(nil), lines...)
	return nil
}

// recordingNotifier keeps notices.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []driven.SuccessNotice
	failures  []driven.FailureNotice
}

func (n *recordingNotifier) NotifySuccess(_ context.Context, notice driven.SuccessNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, notice)
	return nil
}

func (n *recordingNotifier) NotifyFailure(_ context.Context, notice driven.FailureNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, notice)
	return nil
}

// recordingIndex keeps reindex requests.
type recordingIndex struct {
	mu      sync.Mutex
	volumes []string
	pages   []string
}

func (r *recordingIndex) ReindexVolume(_ context.Context, pid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volumes = append(r.volumes, pid)
	return nil
}

func (r *recordingIndex) ReindexPage(_ context.Context, pid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, pid)
	return nil
}

// transientErr is a retryable infrastructure failure.
type transientErr struct{}

func (transientErr) Error() string   { return "service unavailable" }
func (transientErr) Transient() bool { return true }

// memObjects is an in-memory bucketed object store.
type memObjects struct {
	mu         sync.Mutex
	buckets    map[string]map[string]string
	copyFails  map[string]int
	listFails  int
	copyCalled int
}

func newMemObjects() *memObjects {
	return &memObjects{buckets: make(map[string]map[string]string), copyFails: make(map[string]int)}
}

func (m *memObjects) put(bucket, key, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buckets[bucket] == nil {
		m.buckets[bucket] = make(map[string]string)
	}
	m.buckets[bucket][key] = content
}

func (m *memObjects) keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.buckets[bucket]))
	for k := range m.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *memObjects) Put(_ context.Context, bucket, key string, r io.Reader, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.put(bucket, key, string(data))
	return nil
}

func (m *memObjects) Get(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.buckets[bucket][key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (m *memObjects) List(_ context.Context, bucket, prefix string) ([]driven.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listFails > 0 {
		m.listFails--
		return nil, transientErr{}
	}
	var out []driven.ObjectInfo
	for k, v := range m.buckets[bucket] {
		if strings.HasPrefix(k, prefix) {
			out = append(out, driven.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memObjects) Copy(_ context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	m.mu.Lock()
	m.copyCalled++
	if m.copyFails[srcKey] > 0 {
		m.copyFails[srcKey]--
		m.mu.Unlock()
		return transientErr{}
	}
	content, ok := m.buckets[srcBucket][srcKey]
	m.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	m.put(dstBucket, dstKey, content)
	return nil
}

// harness wires an orchestrator over in-memory adapters.
type harness struct {
	catalog   *memory.Catalog
	layout    bundle.Layout
	sidecars  *fakeSidecars
	publisher *recordingPublisher
	notifier  *recordingNotifier
	index     *recordingIndex
	objects   *memObjects
	engine    *OCREngine
	orch      *Orchestrator
}

func newHarness(t *testing.T, mutate ...func(*IngestConfig)) *harness {
	t.Helper()
	h := &harness{
		catalog:   memory.NewCatalog(),
		layout:    newLayout(t),
		sidecars:  &fakeSidecars{objects: map[string]string{}},
		publisher: newRecordingPublisher(),
		notifier:  &recordingNotifier{},
		index:     &recordingIndex{},
		objects:   newMemObjects(),
	}
	cfg := IngestConfig{
		Layout:        h.layout,
		StagingBucket: "staging",
		StagingPrefix: "images",
		OCRPrefix:     "ocr",
		AdminURL:      "https://books.test/admin/volume/{pid}/change/",
		ViewerURL:     "https://books.test/volume/{pid}",
		Workers:       2,
		Retry:         fastRetry(3),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	h.engine = NewOCREngine(h.catalog, ocr.Default(), h.sidecars, WithIndexTrigger(h.index), WithParallelism(2))
	canvases := NewCanvasBuilder(h.catalog.Pages(), h.publisher, nil)
	h.orch = NewOrchestrator(cfg, h.catalog, canvases, h.engine,
		WithNotifier(h.notifier),
		WithVolumeIndex(h.index),
		WithObjectStore(h.objects),
	)
	return h
}

// record builds a normalised metadata record from key/value pairs.
func record(kv ...string) *domain.MetadataRecord {
	rec := &domain.MetadataRecord{Metadata: []domain.MetadataEntry{}}
	for i := 0; i+1 < len(kv); i += 2 {
		rec.Fields = append(rec.Fields, domain.Cell{Key: kv[i], Value: kv[i+1]})
	}
	return rec
}
