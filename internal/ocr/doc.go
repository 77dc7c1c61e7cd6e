// Package ocr provides the OCR dialect strategy table. Each dialect parser
// lives in its own sub-package and implements driven.OCRParser; the Registry
// selects one by sidecar extension or, for fetched data, by content sniffing,
// in a fixed precedence order:
//
//  1. TEI line-service payloads     -> tei
//  2. .json                         -> dict
//  3. .tsv, .tab                    -> tsv
//  4. .xml                          -> XML dispatch (alto | tei | hocr)
//  5. .hocr, .html                  -> hocr
//  6. .txt or no extension, sniffed:
//     JSON object                   -> dict
//     several lines with tabs, no BOM -> tsv
//     anything else                 -> fedora
//
// Parsers are registered with the Registry at startup.
package ocr
