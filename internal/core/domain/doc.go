// Package domain defines the core catalog entities for bookingest.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Volume: A digitized book (manifest) identified by its pid
//   - Page: One canvas of a volume with position and pixel dimensions
//   - Word: A positioned OCR annotation owned by a page
//   - MetadataRecord: A normalised metadata row
//   - IngestJob: An ephemeral unit of ingest work
//   - Result: The outcome of a job, Ok or Err
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
