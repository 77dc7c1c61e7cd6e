// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Catalog: Volume, page, word, related link, image server and job persistence
//   - OCRRegistry: Selects an OCR dialect parser
//   - SidecarReader: Reads OCR sidecars from local disk or object storage
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - ObjectStore: Required only for cloud bucket batches
//   - RemoteOCR: Without it, pages with no sidecar are skipped
//   - Notifier: Without it, outcomes are only logged
//   - IndexTrigger: Without it, no index refresh is requested
//   - TriggerPublisher: Without it, trigger lists stay in the workspace
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or parser package
package driven
