package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

// fakeIngest records the jobs it receives and returns canned results.
type fakeIngest struct {
	jobs    []*domain.IngestJob
	results []domain.Result
}

func (f *fakeIngest) IngestSingle(_ context.Context, job *domain.IngestJob) domain.Result {
	f.jobs = append(f.jobs, job)
	if len(f.results) == 0 {
		return domain.Result{}
	}
	return f.results[0]
}

func (f *fakeIngest) IngestBatch(_ context.Context, job *domain.IngestJob) []domain.Result {
	f.jobs = append(f.jobs, job)
	return f.results
}

func (f *fakeIngest) IngestCloud(_ context.Context, job *domain.IngestJob) []domain.Result {
	f.jobs = append(f.jobs, job)
	return f.results
}

func (f *fakeIngest) Run(ctx context.Context, job *domain.IngestJob) []domain.Result {
	return f.IngestBatch(ctx, job)
}

type fakeOCR struct {
	volumePID string
	pagePID   string
	report    *driving.OCRReport
	err       error
}

func (f *fakeOCR) AddOCR(_ context.Context, pid string) (*driving.OCRReport, error) {
	f.volumePID = pid
	return f.report, f.err
}

func (f *fakeOCR) AddOCRToPage(_ context.Context, pid string) (*driving.OCRReport, error) {
	f.pagePID = pid
	return f.report, f.err
}

type fakeCatalog struct {
	volume  *domain.Volume
	volumes []domain.Volume
	pages   []domain.Page
	jobs    []domain.IngestJob
	err     error
}

func (f *fakeCatalog) GetVolume(context.Context, string) (*domain.Volume, error) {
	return f.volume, f.err
}

func (f *fakeCatalog) ListVolumes(context.Context) ([]domain.Volume, error) {
	return f.volumes, f.err
}

func (f *fakeCatalog) ListPages(context.Context, string) ([]domain.Page, error) {
	return f.pages, f.err
}

func (f *fakeCatalog) ListWords(context.Context, string) ([]domain.Word, error) {
	return nil, f.err
}

func (f *fakeCatalog) ListJobs(context.Context) ([]domain.IngestJob, error) {
	return f.jobs, f.err
}

// fakeQueue blocks in Start until ctx ends or Stop is called.
type fakeQueue struct {
	mu        sync.Mutex
	submitted []*domain.IngestJob
	callbacks int
	stop      chan struct{}
	once      sync.Once
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{stop: make(chan struct{})}
}

func (q *fakeQueue) Submit(job *domain.IngestJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.submitted = append(q.submitted, job)
	return nil
}

func (q *fakeQueue) OnResult(func(*domain.IngestJob, []domain.Result)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.callbacks++
}

func (q *fakeQueue) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-q.stop:
		return nil
	}
}

func (q *fakeQueue) Stop() error {
	q.once.Do(func() { close(q.stop) })
	return nil
}

// run executes the root command with the given services and returns its output.
func run(t *testing.T, s *Services, args ...string) (string, error) {
	t.Helper()

	SetServices(s)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		SetServices(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	err := Execute(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag to its default so tests do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil) //nolint:errcheck
		} else {
			f.Value.Set(f.DefValue) //nolint:errcheck
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
