package cli

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

func TestIngest_NotConfigured(t *testing.T) {
	_, err := run(t, &Services{}, "ingest", "book.zip")

	assert.EqualError(t, err, "ingest service not configured")
}

func TestIngest_Single(t *testing.T) {
	ingest := &fakeIngest{results: []domain.Result{
		{Bundle: "book.zip", Volume: &domain.Volume{PID: "sqn75"}, Pages: 12, Warnings: []string{"Canvas p3 - no words"}},
	}}

	out, err := run(t, &Services{Ingest: ingest}, "ingest", "book.zip", "-c", "maps", "-c", "atlases", "--image-server", "3", "--email", "a@example.org")

	require.NoError(t, err)
	require.Len(t, ingest.jobs, 1)
	job := ingest.jobs[0]
	assert.Equal(t, domain.JobSingle, job.Kind)
	assert.True(t, filepath.IsAbs(job.BundlePath))
	assert.Equal(t, "book.zip", job.BundleName)
	assert.Equal(t, []string{"maps", "atlases"}, job.Collections)
	assert.Equal(t, int64(3), job.ImageServerID)
	assert.Equal(t, "a@example.org", job.Creator.Email)

	assert.Contains(t, out, "ok      book.zip -> sqn75 (12 pages)")
	assert.Contains(t, out, "warning: Canvas p3 - no words")
}

func TestIngest_Failure(t *testing.T) {
	ingest := &fakeIngest{results: []domain.Result{
		{Bundle: "bad.zip", Kind: domain.KindInvalidBundle, Err: errors.New("no images")},
	}}

	out, err := run(t, &Services{Ingest: ingest}, "ingest", "bad.zip")

	assert.EqualError(t, err, "1 of 1 ingests failed")
	assert.Contains(t, out, "failed  bad.zip: no images")
}

func TestBatch_JSON(t *testing.T) {
	ingest := &fakeIngest{results: []domain.Result{
		{Bundle: "a.zip", Volume: &domain.Volume{PID: "a"}, Pages: 2},
		{Bundle: "b.zip", Kind: domain.KindTransient, Err: errors.New("timeout")},
	}}

	out, err := run(t, &Services{Ingest: ingest}, "batch", "a.zip", "b.zip", "metadata.csv", "--json")

	assert.EqualError(t, err, "1 of 2 ingests failed")
	require.Len(t, ingest.jobs, 1)
	assert.Equal(t, domain.JobBatch, ingest.jobs[0].Kind)
	assert.Len(t, ingest.jobs[0].Files, 3)

	var got []resultOutput
	require.NoError(t, json.Unmarshal([]byte(out[strings.Index(out, "["):strings.LastIndex(out, "]")+1]), &got))
	require.Len(t, got, 2)
	assert.True(t, got[0].OK)
	assert.Equal(t, "a", got[0].PID)
	assert.False(t, got[1].OK)
	assert.Equal(t, "transient", got[1].Kind)
}

func TestCloud_RequiresBucket(t *testing.T) {
	ingest := &fakeIngest{}

	_, err := run(t, &Services{Ingest: ingest}, "cloud", "pids.xlsx")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
	assert.Empty(t, ingest.jobs)
}

func TestCloud(t *testing.T) {
	ingest := &fakeIngest{results: []domain.Result{
		{Bundle: "sqn75", Volume: &domain.Volume{PID: "sqn75"}, Pages: 4},
	}}

	_, err := run(t, &Services{Ingest: ingest}, "cloud", "pids.xlsx", "--bucket", "scans")

	require.NoError(t, err)
	require.Len(t, ingest.jobs, 1)
	job := ingest.jobs[0]
	assert.Equal(t, domain.JobCloud, job.Kind)
	assert.Equal(t, "scans", job.SourceBucket)
	assert.Equal(t, "pids.xlsx", filepath.Base(job.MetadataPath))
}
