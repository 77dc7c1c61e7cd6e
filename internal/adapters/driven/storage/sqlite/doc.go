// Package sqlite provides the SQLite-backed catalog.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One Store implements driven.Catalog and
// hands out wrapper stores sharing its connection:
//
//   - VolumeStore: volumes and their collection memberships
//   - PageStore: pages (canvases) of a volume
//   - WordStore: positioned OCR words of a page
//   - RelatedLinkStore: related links of a volume
//   - ImageServerStore: IIIF image servers and their sidecar storage
//   - JobStore: in-flight ingest jobs
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.bookingest/data/catalog.db
//
// # Thread Safety
//
// All operations are thread-safe. Multi-row writes run in a transaction, and
// SQLite in WAL mode serialises writers.
package sqlite
