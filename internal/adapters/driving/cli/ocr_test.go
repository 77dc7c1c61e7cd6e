package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

func TestOCR_Volume(t *testing.T) {
	ocr := &fakeOCR{report: &driving.OCRReport{
		Pages: 3, Persisted: 2, Skipped: 1, Words: 40,
		Warnings: []string{"Canvas p2 - unreadable OCR"},
	}}

	out, err := run(t, &Services{OCR: ocr}, "ocr", "--volume", "sqn75")

	require.NoError(t, err)
	assert.Equal(t, "sqn75", ocr.volumePID)
	assert.Empty(t, ocr.pagePID)
	assert.Contains(t, out, "Pages: 3  with OCR: 2  skipped: 1  words: 40")
	assert.Contains(t, out, "warning: Canvas p2 - unreadable OCR")
}

func TestOCR_Canvas(t *testing.T) {
	ocr := &fakeOCR{report: &driving.OCRReport{Pages: 1, Persisted: 1, Words: 5}}

	_, err := run(t, &Services{OCR: ocr}, "ocr", "--canvas", "p1")

	require.NoError(t, err)
	assert.Equal(t, "p1", ocr.pagePID)
	assert.Empty(t, ocr.volumePID)
}

func TestOCR_FlagRules(t *testing.T) {
	ocr := &fakeOCR{report: &driving.OCRReport{}}

	_, err := run(t, &Services{OCR: ocr}, "ocr")
	assert.Error(t, err)

	resetFlags(rootCmd)
	_, err = run(t, &Services{OCR: ocr}, "ocr", "--volume", "v", "--canvas", "p")
	assert.Error(t, err)
}

func TestOCR_Error(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("volume not found")}

	_, err := run(t, &Services{OCR: ocr}, "ocr", "--volume", "nope")

	assert.EqualError(t, err, "ocr failed: volume not found")
}
