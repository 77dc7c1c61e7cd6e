package metadata

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

// Format is a supported metadata table format.
type Format int

const (
	FormatCSV Format = iota + 1
	FormatTSV
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatXLSX:
		return "xlsx"
	}
	return "unknown"
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFormat picks the table format from the file's extension and MIME type.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}

	t := mime.TypeByExtension(ext)
	switch {
	case strings.Contains(t, "csv"):
		return FormatCSV, nil
	case strings.Contains(t, "tab-separated"):
		return FormatTSV, nil
	case strings.Contains(t, "officedocument.spreadsheetml"):
		return FormatXLSX, nil
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrUnsupportedMetadataFormat, filepath.Base(path))
}

// ReadFile reads and normalises every row of a metadata file.
func ReadFile(path string, schema *domain.Schema) ([]domain.MetadataRecord, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	defer f.Close()

	rows, err := ReadRows(f, format)
	if err != nil {
		return nil, fmt.Errorf("read %s metadata: %w", format, err)
	}
	return NormalizeAll(rows, schema), nil
}

// ReadRows reads a table into ordered rows keyed by header.
// The first row is the header. A "filename" header is always lower-cased.
// Rows with no non-empty cell are dropped.
func ReadRows(r io.Reader, format Format) ([]domain.Row, error) {
	var (
		table [][]string
		err   error
	)
	switch format {
	case FormatCSV:
		table, err = readDelimited(r, ',')
	case FormatTSV:
		table, err = readDelimited(r, '\t')
	case FormatXLSX:
		table, err = readXLSX(r)
	default:
		return nil, domain.ErrUnsupportedMetadataFormat
	}
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, nil
	}

	headers := make([]string, len(table[0]))
	for i, h := range table[0] {
		h = strings.TrimSpace(h)
		if strings.EqualFold(h, "filename") {
			h = "filename"
		}
		headers[i] = h
	}

	rows := make([]domain.Row, 0, len(table)-1)
	for _, record := range table[1:] {
		if blank(record) {
			continue
		}
		row := make(domain.Row, 0, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			value := ""
			if i < len(record) {
				value = record[i]
			}
			row = append(row, domain.Cell{Key: h, Value: value})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readDelimited(r io.Reader, comma rune) ([][]string, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
