// Package mcp provides an MCP (Model Context Protocol) server adapter for bookingest.
// It lets AI assistants inspect the catalog and submit bundles for ingest.
package mcp

import "errors"

// ErrMissingCatalogService is returned when the catalog service is not provided.
var ErrMissingCatalogService = errors.New("mcp: catalog service is required")

// ErrIngestDisabled is returned by ingest tools when no ingest service is wired.
var ErrIngestDisabled = errors.New("mcp: ingest is not enabled")
