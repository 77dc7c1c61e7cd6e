package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for bookingest resources.
	uriScheme = "bookingest://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "volumes",
		Name:        "volumes",
		Description: "All volumes in the catalog",
		MIMEType:    "application/json",
	}, s.handleVolumesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "jobs",
		Name:        "jobs",
		Description: "Ingest jobs still in flight or retained after failure",
		MIMEType:    "application/json",
	}, s.handleJobsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "pages/{pagePid}/text",
		Name:        "page-text",
		Description: "OCR text of a page, one word or line per row",
		MIMEType:    "text/plain",
	}, s.handlePageTextResource)
}

func (s *Server) handleVolumesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	vols, err := s.ports.Catalog.ListVolumes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing volumes: %w", err)
	}

	type volumeInfo struct {
		PID         string   `json:"pid"`
		Label       string   `json:"label"`
		Collections []string `json:"collections,omitempty"`
	}

	infos := make([]volumeInfo, len(vols))
	for i := range vols {
		infos[i] = volumeInfo{
			PID:         vols[i].PID,
			Label:       vols[i].Label,
			Collections: vols[i].Collections,
		}
	}
	return jsonResult(req.Params.URI, infos)
}

func (s *Server) handleJobsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	jobs, err := s.ports.Catalog.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}

	type jobInfo struct {
		ID     string `json:"id"`
		Kind   string `json:"kind"`
		State  string `json:"state"`
		Bundle string `json:"bundle"`
		Error  string `json:"error,omitempty"`
	}

	infos := make([]jobInfo, len(jobs))
	for i := range jobs {
		infos[i] = jobInfo{
			ID:     jobs[i].ID,
			Kind:   string(jobs[i].Kind),
			State:  string(jobs[i].State),
			Bundle: jobs[i].DisplayName(),
			Error:  jobs[i].Error,
		}
	}
	return jsonResult(req.Params.URI, infos)
}

func (s *Server) handlePageTextResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// bookingest://pages/{pagePid}/text
	pid := extractPagePID(req.Params.URI)
	if pid == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	words, err := s.ports.Catalog.ListWords(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("listing words: %w", err)
	}

	lines := make([]string, len(words))
	for i := range words {
		lines[i] = words[i].Content
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     strings.Join(lines, "\n"),
		}},
	}, nil
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractPagePID extracts the page pid from bookingest://pages/{pagePid}/text.
func extractPagePID(uri string) string {
	const prefix = uriScheme + "pages/"
	const suffix = "/text"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
}
