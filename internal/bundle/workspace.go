package bundle

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout is the set of directories ingest writes to.
type Layout struct {
	// TmpDir holds per-job scratch arenas.
	TmpDir string

	// ProcessingDir is where page images wait for image conversion.
	// Shared across jobs; file names carry the volume pid.
	ProcessingDir string

	// OCRDir holds one sidecar directory per volume pid.
	OCRDir string
}

// Workspace is the filesystem arena of one job.
// The scratch directory is created on Open and removed by Remove;
// processing and OCR areas outlive the job because pages reference them.
type Workspace struct {
	id     string
	layout Layout
}

// Open creates the job's arena and ensures the shared areas exist.
func (l Layout) Open(id string) (*Workspace, error) {
	if id == "" {
		return nil, fmt.Errorf("open workspace: empty id")
	}
	w := &Workspace{id: id, layout: l}
	for _, dir := range []string{w.Scratch(), l.ProcessingDir, l.OCRDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open workspace: %w", err)
		}
	}
	return w, nil
}

// ID returns the key the workspace was opened with.
func (w *Workspace) ID() string {
	return w.id
}

// Scratch returns the job-private directory.
func (w *Workspace) Scratch() string {
	return filepath.Join(w.layout.TmpDir, w.id)
}

// ProcessingDir returns the shared image processing area.
func (w *Workspace) ProcessingDir() string {
	return w.layout.ProcessingDir
}

// OCRDir returns, creating if needed, the sidecar directory for pid.
func (w *Workspace) OCRDir(pid string) (string, error) {
	dir := filepath.Join(w.layout.OCRDir, pid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create ocr dir: %w", err)
	}
	return dir, nil
}

// TriggerList returns the path of the trigger-list file for pid.
func (w *Workspace) TriggerList(pid string) string {
	return filepath.Join(w.Scratch(), pid+".txt")
}

// Remove deletes the scratch directory.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.Scratch())
}
