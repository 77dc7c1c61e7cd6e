package bundle

import (
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder
)

// Dimensions returns the pixel size of the first file in dir whose name
// starts with stem, preferring an exact stem match. It returns 0, 0 when no such file exists or none
// can be decoded.
func Dimensions(dir, stem string) (width, height int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), stem) {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		ei, ej := Stem(names[i]) == stem, Stem(names[j]) == stem
		if ei != ej {
			return ei
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		if w, h, ok := decodeSize(filepath.Join(dir, name)); ok {
			return w, h
		}
	}
	return 0, 0
}

func decodeSize(path string) (int, int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// FindSidecar picks the OCR file for an image stem from dir using
// MatchSidecar. Returns the absolute path, or nil when nothing matches.
func FindSidecar(dir, stem string) *string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	best, ok := MatchSidecar(names, stem)
	if !ok {
		return nil
	}
	abs, err := filepath.Abs(filepath.Join(dir, best))
	if err != nil {
		return nil
	}
	return &abs
}

// MatchSidecar chooses among candidate sidecar names (or keys) for an image
// stem. A name whose stem equals the image stem wins. Otherwise, among names
// whose base contains the stem, the shortest wins, with ties broken
// lexicographically.
func MatchSidecar(names []string, stem string) (string, bool) {
	best, bestBase := "", ""
	exact := false
	for _, name := range names {
		base := Base(name)
		if !strings.Contains(base, stem) {
			continue
		}
		isExact := Stem(base) == stem
		switch {
		case best == "":
		case isExact && !exact:
		case isExact == exact && (len(base) < len(bestBase) || (len(base) == len(bestBase) && base < bestBase)):
		default:
			continue
		}
		best, bestBase, exact = name, base, isExact
	}
	return best, best != ""
}
