package driven

import (
	"context"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

// OCRParser parses one OCR dialect into positioned words.
// Returned words carry coordinates, content and resource type;
// ordering and blank-content substitution are applied by the engine.
type OCRParser interface {
	// Name identifies the dialect (e.g. "alto", "hocr").
	Name() string

	// Parse converts raw OCR bytes into words.
	Parse(content []byte) ([]domain.Word, error)
}

// OCRPayload is fetched OCR data awaiting parsing.
type OCRPayload struct {
	// Content is the raw OCR data.
	Content []byte

	// Path is the sidecar path or key. Empty for fetched data, which is content-sniffed.
	Path string

	// Line marks TEI line-service data.
	Line bool
}

// OCRRegistry selects a parser for a payload and runs it.
type OCRRegistry interface {
	Parse(payload *OCRPayload) ([]domain.Word, error)
}

// SidecarReader reads an OCR sidecar from the storage backend an image server uses.
type SidecarReader interface {
	ReadSidecar(ctx context.Context, server *domain.ImageServer, path string) ([]byte, error)
}

// RemoteOCR fetches OCR from external services.
// Both methods return domain.ErrNoOCR when no service applies to the page.
type RemoteOCR interface {
	// FetchLines fetches TEI line-level OCR for a page.
	FetchLines(ctx context.Context, page *domain.Page, server *domain.ImageServer) ([]byte, error)

	// FetchPositional fetches positional word OCR for a page.
	FetchPositional(ctx context.Context, vol *domain.Volume, page *domain.Page, server *domain.ImageServer) ([]byte, error)
}
