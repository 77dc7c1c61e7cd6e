package bundle

import (
	"archive/zip"
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/logger"
)

// UnpackResult describes what an unpack pass produced.
type UnpackResult struct {
	// TriggerList is the file listing extracted images, one per line.
	TriggerList string

	// OCRDir is the volume's sidecar directory.
	OCRDir string

	// Images are the extracted image names in archive order.
	Images []string

	// OCRFiles are the extracted sidecar names in archive order.
	OCRFiles []string

	// Skipped counts entries that could not be extracted.
	Skipped int
}

// ExtractMetadata finds the first metadata entry in the archive and extracts
// it into the workspace scratch area. Returns "" when the bundle has none.
func ExtractMetadata(archive string, ws *Workspace) (string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrInvalidBundle, filepath.Base(archive), err)
	}
	defer r.Close()

	for _, f := range r.File {
		if IsJunk(f.Name) || Classify(f.Name) == KindImage || !IsMetadata(f.Name) {
			continue
		}
		dst := filepath.Join(ws.Scratch(), Base(f.Name))
		if err := extract(f, dst); err != nil {
			return "", fmt.Errorf("extract metadata: %w", err)
		}
		return dst, nil
	}
	return "", nil
}

// Unpack streams the archive entry by entry. Images go to the processing area
// and are appended to the trigger list; sidecars go to the volume's OCR directory.
// Both are renamed to carry the pid. Junk and unrecognised entries are skipped,
// as are entries that fail to extract. Only an unreadable archive is an error.
func Unpack(ctx context.Context, archive, pid string, ws *Workspace) (*UnpackResult, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidBundle, filepath.Base(archive), err)
	}
	defer r.Close()

	ocrDir, err := ws.OCRDir(pid)
	if err != nil {
		return nil, err
	}

	result := &UnpackResult{
		TriggerList: ws.TriggerList(pid),
		OCRDir:      ocrDir,
	}

	trigger, err := os.OpenFile(result.TriggerList, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trigger list: %w", err)
	}
	defer trigger.Close()
	tw := bufio.NewWriter(trigger)

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch Classify(f.Name) {
		case KindImage:
			name := PrefixPID(pid, Base(f.Name))
			if err := extract(f, filepath.Join(ws.ProcessingDir(), name)); err != nil {
				logger.Warn("Skipping image entry %s in %s: %v", f.Name, pid, err)
				result.Skipped++
				continue
			}
			if _, err := fmt.Fprintln(tw, name); err != nil {
				return nil, fmt.Errorf("write trigger list: %w", err)
			}
			result.Images = append(result.Images, name)
		case KindOCR:
			name := PrefixPID(pid, Base(f.Name))
			if err := extract(f, filepath.Join(ocrDir, name)); err != nil {
				logger.Warn("Skipping OCR entry %s in %s: %v", f.Name, pid, err)
				result.Skipped++
				continue
			}
			result.OCRFiles = append(result.OCRFiles, name)
		}
	}

	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("write trigger list: %w", err)
	}

	logger.Debug("Unpacked %s: %d images, %d OCR files", pid, len(result.Images), len(result.OCRFiles))
	return result, nil
}

func extract(f *zip.File, dst string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
