package mcp

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

// GetVolumeInput is the input schema for the get_volume tool.
type GetVolumeInput struct {
	PID string `json:"pid" jsonschema:"the volume pid"`
}

// VolumeOutput describes a volume.
type VolumeOutput struct {
	PID           string            `json:"pid"`
	Label         string            `json:"label"`
	Fields        map[string]string `json:"fields,omitempty"`
	Metadata      []MetadataOutput  `json:"metadata"`
	ImageServerID int64             `json:"image_server_id,omitempty"`
	Collections   []string          `json:"collections,omitempty"`
	Pages         int               `json:"pages"`
}

// MetadataOutput is one label/value metadata entry.
type MetadataOutput struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ListPagesInput is the input schema for the list_pages tool.
type ListPagesInput struct {
	VolumePID string `json:"volume_pid" jsonschema:"the pid of the volume whose pages to list"`
}

// ListPagesOutput is the output schema for the list_pages tool.
type ListPagesOutput struct {
	Pages []PageOutput `json:"pages"`
	Count int          `json:"count"`
}

// PageOutput describes a page.
type PageOutput struct {
	PID      string `json:"pid"`
	Position int    `json:"position"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	OCRPath  string `json:"ocr_path,omitempty"`
}

// IngestBundleInput is the input schema for the ingest_bundle tool.
type IngestBundleInput struct {
	Path          string   `json:"path" jsonschema:"absolute path of a zip bundle on the server"`
	ImageServerID int64    `json:"image_server_id,omitempty" jsonschema:"image server the volume uses"`
	Collections   []string `json:"collections,omitempty" jsonschema:"collections to add the volume to"`
	Email         string   `json:"email,omitempty" jsonschema:"address notified when the job finishes"`
}

// IngestBundleOutput is the output schema for the ingest_bundle tool.
type IngestBundleOutput struct {
	JobID    string   `json:"job_id"`
	OK       bool     `json:"ok"`
	PID      string   `json:"pid,omitempty"`
	Pages    int      `json:"pages"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
	Kind     string   `json:"kind,omitempty"`
}

// AddOCRInput is the input schema for the add_ocr tool.
type AddOCRInput struct {
	VolumePID string `json:"volume_pid,omitempty" jsonschema:"rebuild OCR for every page of this volume"`
	PagePID   string `json:"page_pid,omitempty" jsonschema:"rebuild OCR for this page only"`
}

// AddOCROutput is the output schema for the add_ocr tool.
type AddOCROutput struct {
	Pages     int      `json:"pages"`
	Persisted int      `json:"persisted"`
	Skipped   int      `json:"skipped"`
	Words     int      `json:"words"`
	Warnings  []string `json:"warnings,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_volume",
		Description: "Get a volume's label, metadata and collections",
	}, s.handleGetVolume)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_pages",
		Description: "List a volume's pages in reading order",
	}, s.handleListPages)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_bundle",
			Description: "Ingest a zip bundle of page images, OCR and metadata as a volume",
		}, s.handleIngestBundle)
	}

	if s.ports.OCR != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "add_ocr",
			Description: "Rebuild OCR words for a volume or a single page",
		}, s.handleAddOCR)
	}
}

func (s *Server) handleGetVolume(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetVolumeInput,
) (*mcp.CallToolResult, VolumeOutput, error) {
	vol, err := s.ports.Catalog.GetVolume(ctx, input.PID)
	if err != nil {
		return nil, VolumeOutput{}, err
	}
	pages, err := s.ports.Catalog.ListPages(ctx, vol.PID)
	if err != nil {
		return nil, VolumeOutput{}, err
	}
	return nil, volumeOutput(vol, len(pages)), nil
}

func (s *Server) handleListPages(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListPagesInput,
) (*mcp.CallToolResult, ListPagesOutput, error) {
	pages, err := s.ports.Catalog.ListPages(ctx, input.VolumePID)
	if err != nil {
		return nil, ListPagesOutput{}, err
	}

	output := ListPagesOutput{
		Pages: make([]PageOutput, len(pages)),
		Count: len(pages),
	}
	for i := range pages {
		output.Pages[i] = pageOutput(&pages[i])
	}
	return nil, output, nil
}

func (s *Server) handleIngestBundle(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestBundleInput,
) (*mcp.CallToolResult, IngestBundleOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestBundleOutput{}, ErrIngestDisabled
	}
	if input.Path == "" || !filepath.IsAbs(input.Path) {
		return nil, IngestBundleOutput{}, fmt.Errorf("%w: path must be absolute", domain.ErrInvalidInput)
	}

	job := &domain.IngestJob{
		Kind:          domain.JobSingle,
		BundlePath:    input.Path,
		BundleName:    filepath.Base(input.Path),
		ImageServerID: input.ImageServerID,
		Collections:   input.Collections,
		Creator:       domain.Creator{Email: input.Email},
	}
	res := s.ports.Ingest.IngestSingle(ctx, job)

	output := IngestBundleOutput{
		JobID:    job.ID,
		OK:       res.IsOk(),
		Pages:    res.Pages,
		Warnings: res.Warnings,
	}
	if res.Volume != nil {
		output.PID = res.Volume.PID
	}
	if res.Err != nil {
		output.Error = res.Err.Error()
		output.Kind = string(res.Kind)
	}
	return nil, output, nil
}

func (s *Server) handleAddOCR(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddOCRInput,
) (*mcp.CallToolResult, AddOCROutput, error) {
	if s.ports.OCR == nil {
		return nil, AddOCROutput{}, ErrIngestDisabled
	}

	var err error
	var output AddOCROutput
	switch {
	case input.PagePID != "":
		output, err = reportOutput(s.ports.OCR.AddOCRToPage(ctx, input.PagePID))
	case input.VolumePID != "":
		output, err = reportOutput(s.ports.OCR.AddOCR(ctx, input.VolumePID))
	default:
		err = fmt.Errorf("%w: volume_pid or page_pid is required", domain.ErrInvalidInput)
	}
	return nil, output, err
}
