package domain

// ResourceType marks the granularity of an OCR annotation.
type ResourceType string

const (
	// ResourceWord is a word-level box.
	ResourceWord ResourceType = "word"

	// ResourceLine is a line-level box (TEI).
	ResourceLine ResourceType = "line"
)

// Word is a positioned OCR annotation owned by exactly one page.
// Content is never empty and Order is 1-based within the page.
type Word struct {
	PagePID      string
	Content      string
	X            int
	Y            int
	W            int
	H            int
	Order        int
	ResourceType ResourceType
}
