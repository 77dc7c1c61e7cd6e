package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

// createTestVolume creates a volume to satisfy foreign key constraints.
func createTestVolume(t *testing.T, store *Store, pid string) {
	t.Helper()
	_, _, err := store.Volumes().GetOrCreate(context.Background(), pid)
	require.NoError(t, err)
}

func createTestPages(t *testing.T, store *Store, pid string, n int) []domain.Page {
	t.Helper()
	pages := make([]domain.Page, n)
	for i := range pages {
		pages[i] = domain.Page{
			PID:        pid + "_" + string(rune('a'+i)) + ".tiff",
			VolumePID:  pid,
			Position:   i + 1,
			DefaultOCR: domain.OCRWord,
		}
	}
	require.NoError(t, store.Pages().SaveAll(context.Background(), pages))
	return pages
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(tempDir, "catalog.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	nestedDir := filepath.Join(t.TempDir(), "nested", "path", "to", "db")

	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nestedDir)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Volumes().Save(ctx, &domain.Volume{PID: "v1", Label: "First"}))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	vol, err := store.Volumes().Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "First", vol.Label)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)
}

func TestNewStore_ForeignKeysEnforced(t *testing.T) {
	store := setupTestStore(t)

	err := store.Pages().SaveAll(context.Background(), []domain.Page{{PID: "p", VolumePID: "missing", Position: 1}})

	assert.Error(t, err)
}

// ==================== Volume Store Tests ====================

func TestVolumeStore_GetNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Volumes().Get(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVolumeStore_GetOrCreate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	vol, created, err := store.Volumes().GetOrCreate(ctx, "sqn75")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "sqn75", vol.PID)
	assert.False(t, vol.CreatedAt.IsZero())

	vol.Label = "Hours"
	require.NoError(t, store.Volumes().Save(ctx, vol))

	vol, created, err = store.Volumes().GetOrCreate(ctx, "sqn75")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Hours", vol.Label)

	_, _, err = store.Volumes().GetOrCreate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVolumeStore_SaveRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	server := &domain.ImageServer{ServerBase: "https://iiif.test", StorageKind: domain.StorageS3, Bucket: "images"}
	require.NoError(t, store.ImageServers().Save(ctx, server))

	in := &domain.Volume{
		PID:           "sqn75",
		Label:         "Book of Hours",
		Fields:        map[string]string{"author": "Anon", "published_date": "1450"},
		Metadata:      []domain.MetadataEntry{{Label: "Shelfmark", Value: "MS 1"}},
		ImageServerID: server.ID,
	}
	require.NoError(t, store.Volumes().Save(ctx, in))

	out, err := store.Volumes().Get(ctx, "sqn75")
	require.NoError(t, err)
	assert.Equal(t, in.Label, out.Label)
	assert.Equal(t, in.Fields, out.Fields)
	assert.Equal(t, in.Metadata, out.Metadata)
	assert.Equal(t, server.ID, out.ImageServerID)
	assert.Empty(t, out.Collections)

	err = store.Volumes().Save(ctx, &domain.Volume{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVolumeStore_SaveKeepsCreatedAt(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	vol, _, err := store.Volumes().GetOrCreate(ctx, "v1")
	require.NoError(t, err)
	created := vol.CreatedAt

	require.NoError(t, store.Volumes().Save(ctx, &domain.Volume{PID: "v1", Label: "x"}))

	vol, err = store.Volumes().Get(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, created.Equal(vol.CreatedAt))
}

func TestVolumeStore_SetCollections(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestVolume(t, store, "v1")

	require.NoError(t, store.Volumes().SetCollections(ctx, "v1", []string{"b", "a", "a"}))
	vol, err := store.Volumes().Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, vol.Collections)

	require.NoError(t, store.Volumes().SetCollections(ctx, "v1", []string{"c"}))
	vol, err = store.Volumes().Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, vol.Collections)

	err = store.Volumes().SetCollections(ctx, "missing", []string{"c"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVolumeStore_List(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	for _, pid := range []string{"c", "a", "b"} {
		createTestVolume(t, store, pid)
	}
	require.NoError(t, store.Volumes().SetCollections(ctx, "b", []string{"x"}))

	vols, err := store.Volumes().List(ctx)

	require.NoError(t, err)
	require.Len(t, vols, 3)
	assert.Equal(t, "a", vols[0].PID)
	assert.Equal(t, "b", vols[1].PID)
	assert.Equal(t, []string{"x"}, vols[1].Collections)
	assert.Equal(t, "c", vols[2].PID)
}

// ==================== Page and Word Store Tests ====================

func TestPageStore_SaveAllAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestVolume(t, store, "v1")
	ocr := "/data/ocr/v1/v1_0002.tsv"

	pages := []domain.Page{
		{PID: "v1_0002.tiff", VolumePID: "v1", Position: 2, Width: 10, Height: 20, OCRPath: &ocr, DefaultOCR: domain.OCRWord},
		{PID: "v1_0001.tiff", VolumePID: "v1", Position: 1, OCROffset: 3, DefaultOCR: domain.OCRLine},
	}
	require.NoError(t, store.Pages().SaveAll(ctx, pages))

	got, err := store.Pages().ListByVolume(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, pages[1], got[0])
	assert.Equal(t, pages[0], got[1])

	page, err := store.Pages().Get(ctx, "v1_0002.tiff")
	require.NoError(t, err)
	require.NotNil(t, page.OCRPath)
	assert.Equal(t, ocr, *page.OCRPath)

	_, err = store.Pages().Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPageStore_ResaveKeepsWords(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestVolume(t, store, "v1")
	pages := createTestPages(t, store, "v1", 1)
	require.NoError(t, store.Words().ReplaceForPage(ctx, pages[0].PID, []domain.Word{
		{PagePID: pages[0].PID, Content: "a", Order: 1, ResourceType: domain.ResourceWord},
	}))

	pages[0].Width = 99
	require.NoError(t, store.Pages().SaveAll(ctx, pages))

	words, err := store.Words().ListByPage(ctx, pages[0].PID)
	require.NoError(t, err)
	assert.Len(t, words, 1)
}

func TestWordStore_ReplaceForPage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestVolume(t, store, "v1")
	pages := createTestPages(t, store, "v1", 2)
	pid := pages[0].PID

	first := []domain.Word{
		{PagePID: pid, Content: "b", X: 5, Y: 6, W: 7, H: 8, Order: 2, ResourceType: domain.ResourceWord},
		{PagePID: pid, Content: "a", X: 1, Y: 2, W: 3, H: 4, Order: 1, ResourceType: domain.ResourceWord},
	}
	require.NoError(t, store.Words().ReplaceForPage(ctx, pid, first))
	require.NoError(t, store.Words().ReplaceForPage(ctx, pages[1].PID, first[:1]))

	words, err := store.Words().ListByPage(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, []domain.Word{first[1], first[0]}, words)

	require.NoError(t, store.Words().ReplaceForPage(ctx, pid, []domain.Word{
		{PagePID: pid, Content: "line", Order: 1, ResourceType: domain.ResourceLine},
	}))
	words, err = store.Words().ListByPage(ctx, pid)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, domain.ResourceLine, words[0].ResourceType)

	require.NoError(t, store.Words().ReplaceForPage(ctx, pid, nil))
	words, err = store.Words().ListByPage(ctx, pid)
	require.NoError(t, err)
	assert.Empty(t, words)

	other, err := store.Words().ListByPage(ctx, pages[1].PID)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

// ==================== Related Link and Image Server Tests ====================

func TestRelatedLinkStore(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestVolume(t, store, "v1")

	a := &domain.RelatedLink{VolumePID: "v1", Link: "https://x.test/a.json", Format: "application/json"}
	b := &domain.RelatedLink{VolumePID: "v1", Link: "https://x.test/a.json", Format: "application/json", IsStructuredData: true}
	require.NoError(t, store.RelatedLinks().Add(ctx, a))
	require.NoError(t, store.RelatedLinks().Add(ctx, b))
	assert.NotZero(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)

	links, err := store.RelatedLinks().ListByVolume(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []domain.RelatedLink{*a, *b}, links)

	assert.ErrorIs(t, store.RelatedLinks().Add(ctx, &domain.RelatedLink{}), domain.ErrInvalidInput)
}

func TestImageServerStore(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	srv := &domain.ImageServer{ServerBase: "https://iiif.test"}
	require.NoError(t, store.ImageServers().Save(ctx, srv))
	assert.NotZero(t, srv.ID)
	assert.Equal(t, domain.StorageLocal, srv.StorageKind)

	srv.StorageKind = domain.StorageS3
	srv.Bucket = "sidecars"
	require.NoError(t, store.ImageServers().Save(ctx, srv))

	got, err := store.ImageServers().Get(ctx, srv.ID)
	require.NoError(t, err)
	assert.Equal(t, srv, got)

	all, err := store.ImageServers().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = store.ImageServers().Get(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Job Store Tests ====================

func TestJobStore_Lifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	job := &domain.IngestJob{
		ID:          "job1",
		Kind:        domain.JobBatch,
		State:       domain.JobCreated,
		Files:       []string{"/up/a.zip", "/up/metadata.csv"},
		Collections: []string{"c"},
		Creator:     domain.Creator{Name: "Ada", Email: "ada@example.test"},
		Metadata: &domain.MetadataRecord{
			Fields:   []domain.Cell{{Key: "pid", Value: "sqn75"}},
			Metadata: []domain.MetadataEntry{},
		},
	}
	require.NoError(t, store.Jobs().Save(ctx, job))

	got, err := store.Jobs().Get(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, job.Files, got.Files)
	assert.Equal(t, job.Collections, got.Collections)
	assert.Equal(t, job.Creator, got.Creator)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, "sqn75", got.Metadata.GetString("pid"))

	require.NoError(t, store.Jobs().UpdateState(ctx, "job1", domain.JobFailed, "boom"))
	got, err = store.Jobs().Get(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, got.State)
	assert.Equal(t, "boom", got.Error)

	assert.ErrorIs(t, store.Jobs().UpdateState(ctx, "missing", domain.JobFailed, ""), domain.ErrNotFound)

	require.NoError(t, store.Jobs().Delete(ctx, "job1"))
	_, err = store.Jobs().Get(ctx, "job1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobStore_List(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"b", "a"} {
		require.NoError(t, store.Jobs().Save(ctx, &domain.IngestJob{ID: id, Kind: domain.JobSingle, State: domain.JobCreated}))
	}

	jobs, err := store.Jobs().List(ctx)

	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "b", jobs[0].ID)
	assert.Nil(t, jobs[0].Metadata)
	assert.Nil(t, jobs[0].Files)

	assert.ErrorIs(t, store.Jobs().Save(ctx, &domain.IngestJob{}), domain.ErrInvalidInput)
}
