// Package bundle handles the on-disk side of an ingest: classifying archive
// entries and object keys, unpacking zip bundles entry by entry into a job
// workspace, and probing extracted images for their pixel dimensions.
//
// Expected bundle layout:
//
//	images/<name>.<ext>    page images, zero-padded names sort in page order
//	ocr/<name>.<ext>       OCR sidecars (txt, xml, json, html, hocr, tsv)
//	metadata.<csv|tsv|xlsx> optional volume metadata
package bundle
