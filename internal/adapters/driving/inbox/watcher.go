// Package inbox turns zip bundles dropped into a directory into ingest jobs.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/logger"
)

// DefaultSettle is how long a bundle must go without writes before it is submitted.
const DefaultSettle = 2 * time.Second

// Subdirectories finished bundles are moved to.
const (
	DoneDir   = "done"
	FailedDir = "failed"
)

// Submitter queues jobs for background execution.
type Submitter interface {
	Submit(job *domain.IngestJob) error
}

// Watcher watches one directory for *.zip bundles.
type Watcher struct {
	dir      string
	submit   Submitter
	settle   time.Duration
	template domain.IngestJob

	mu        sync.Mutex
	timers    map[string]*time.Timer
	submitted map[string]bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle overrides DefaultSettle.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) { w.settle = d }
}

// WithJobTemplate sets the image server, collections and creator applied to every job.
func WithJobTemplate(job domain.IngestJob) Option {
	return func(w *Watcher) { w.template = job }
}

// New creates a watcher for dir.
func New(dir string, submit Submitter, opts ...Option) *Watcher {
	w := &Watcher{
		dir:       dir,
		submit:    submit,
		settle:    DefaultSettle,
		timers:    make(map[string]*time.Timer),
		submitted: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run submits bundles already present, then watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating inbox: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	if err := w.Scan(); err != nil {
		return err
	}
	logger.Info("Watching %s for bundles", w.dir)

	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Inbox watcher: %v", err)
		}
	}
}

// Scan submits every bundle currently in the directory.
func (w *Watcher) Scan() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading inbox: %w", err)
	}
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if !e.IsDir() && isBundle(path) {
			w.submitBundle(path)
		}
	}
	return nil
}

// handleEvent arms the settle timer on create and write, and forgets removed files.
// It reports whether the event concerned a bundle.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if !isBundle(event.Name) {
		return false
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
			return false
		}
		w.arm(event.Name)
		return true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.forget(event.Name)
		return true
	}
	return false
}

func (w *Watcher) arm(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitted[path] {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.submitBundle(path)
	})
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
	delete(w.submitted, path)
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) submitBundle(path string) {
	w.mu.Lock()
	if w.submitted[path] {
		w.mu.Unlock()
		return
	}
	w.submitted[path] = true
	w.mu.Unlock()

	job := w.template
	job.Kind = domain.JobSingle
	job.BundlePath = path
	job.BundleName = filepath.Base(path)
	job.Collections = append([]string(nil), w.template.Collections...)

	if err := w.submit.Submit(&job); err != nil {
		logger.Warn("Inbox: submitting %s: %v", job.BundleName, err)
		w.mu.Lock()
		delete(w.submitted, path)
		w.mu.Unlock()
		return
	}
	logger.Info("Inbox: submitted %s", job.BundleName)
}

// Finish moves a processed bundle into done/ or failed/ so it is not picked up again.
func (w *Watcher) Finish(job *domain.IngestJob, results []domain.Result) error {
	if job.BundlePath == "" || filepath.Dir(job.BundlePath) != filepath.Clean(w.dir) {
		return nil
	}

	sub := DoneDir
	for _, r := range results {
		if !r.IsOk() {
			sub = FailedDir
			break
		}
	}

	destDir := filepath.Join(w.dir, sub)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", destDir, err)
	}
	err := os.Rename(job.BundlePath, filepath.Join(destDir, filepath.Base(job.BundlePath)))
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	w.forget(job.BundlePath)
	return err
}

func isBundle(path string) bool {
	name := filepath.Base(path)
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), ".zip")
}
