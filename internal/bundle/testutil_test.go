package bundle

import (
	"archive/zip"
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// pngBytes encodes a blank PNG of the given size.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// writeZip builds a zip archive from name -> content, preserving order.
func writeZip(t *testing.T, dir string, entries [][2]string) string {
	t.Helper()
	path := filepath.Join(dir, "bundle.zip")
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

func newLayout(t *testing.T) Layout {
	t.Helper()
	root := t.TempDir()
	return Layout{
		TmpDir:        filepath.Join(root, "tmp"),
		ProcessingDir: filepath.Join(root, "processing"),
		OCRDir:        filepath.Join(root, "ocr"),
	}
}
