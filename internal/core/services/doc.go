// Package services implements the driving port interfaces.
// Services contain the ingest pipeline and orchestrate
// calls to driven ports (adapters).
//
// The pipeline stages, leaves first:
//
//   - Reconciler: metadata record to catalog volume
//   - CanvasBuilder: ordered image list to pages, trigger-list hand-off
//   - OCREngine: per-page fetch, parse and store, failures become warnings
//   - Orchestrator: single, batch and cloud jobs with retry and per-pid locking
package services
