// Package messages defines Bubbletea message types for the catalog browser.
package messages

import (
	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewVolumes lists every volume.
	ViewVolumes ViewType = iota
	// ViewPages lists the pages of one volume.
	ViewPages
	// ViewPageText shows the OCR text of one page.
	ViewPageText
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// VolumesLoaded carries the volume list.
type VolumesLoaded struct {
	Volumes []domain.Volume
	Err     error
}

// VolumeSelected opens a volume's pages.
type VolumeSelected struct {
	Volume domain.Volume
}

// PagesLoaded carries a volume's pages in reading order.
type PagesLoaded struct {
	VolumePID string
	Pages     []domain.Page
	Err       error
}

// PageSelected opens a page's text.
type PageSelected struct {
	Page domain.Page
}

// WordsLoaded carries a page's OCR words.
type WordsLoaded struct {
	PagePID string
	Words   []domain.Word
	Err     error
}

// OCRFinished reports a rebuild started from the browser.
type OCRFinished struct {
	// Target is the volume or page pid the pass ran on.
	Target string
	Report *driving.OCRReport
	Err    error
}

// Quit exits the browser.
type Quit struct{}
