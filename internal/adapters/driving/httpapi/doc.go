// Package httpapi exposes bookingest over HTTP with a chi router.
//
// Routes:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /volumes
//	GET  /volumes/{pid}
//	GET  /volumes/{pid}/pages
//	POST /volumes/{pid}/ocr
//	GET  /pages/{pid}/words
//	POST /pages/{pid}/ocr
//	GET  /jobs
//	POST /ingest          multipart upload of one bundle, or a batch
//	POST /ingest/cloud    multipart spreadsheet of pids plus a source bucket
//	     /mcp             MCP streamable HTTP, when enabled
package httpapi
