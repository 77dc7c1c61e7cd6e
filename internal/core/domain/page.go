package domain

// PageFormatSuffix is appended to an image stem to form a page pid.
const PageFormatSuffix = ".tiff"

// OCRGranularity selects which kind of OCR a page is fetched with.
type OCRGranularity string

const (
	// OCRWord fetches positional word-level OCR.
	OCRWord OCRGranularity = "word"

	// OCRLine fetches TEI line-level OCR.
	OCRLine OCRGranularity = "line"
)

// Page is one digitized page (canvas) of a volume.
// Position is dense 1..N per volume, following sorted image filenames.
type Page struct {
	// PID is derived from the image filename.
	PID string

	// VolumePID is the owning volume.
	VolumePID string

	// Position is the 1-based order within the volume.
	Position int

	// Width and Height are pixel dimensions, 0 when unknown.
	Width  int
	Height int

	// OCRPath is the absolute path or object key of the OCR sidecar.
	OCRPath *string

	// OCROffset adjusts remote page numbers for archive.org scans.
	OCROffset int

	// DefaultOCR is the OCR granularity for this page.
	DefaultOCR OCRGranularity
}

// HasSidecar reports whether the page has a recorded OCR sidecar.
func (p *Page) HasSidecar() bool {
	return p.OCRPath != nil && *p.OCRPath != ""
}
