// Package ocrsource fetches raw OCR for pages: sidecar files from local
// disk or an object store bucket, and remote OCR from the line (TEI),
// archive.org, ecds bucket and datastream services.
package ocrsource
