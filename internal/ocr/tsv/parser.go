// Package tsv parses tab-separated OCR with a header row naming the
// content, x, y, w and h columns in any order.
package tsv

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.OCRParser = (*Parser)(nil)

var columns = []string{"content", "x", "y", "w", "h"}

// Parser handles TSV OCR.
type Parser struct{}

// New creates a new TSV parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the dialect name.
func (p *Parser) Name() string {
	return "tsv"
}

// Looks reports whether content has more than one line and contains a tab.
func Looks(content []byte) bool {
	return bytes.Contains(content, []byte("\t")) && len(Lines(content)) > 1
}

// Lines splits content on any line ending and trims surrounding whitespace
// from each line. A line left with exactly three tabs lost its empty content
// column to the trim and gets a single-space content restored.
func Lines(content []byte) []string {
	raw := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	if n := len(raw); n > 0 && raw[n-1] == "" {
		raw = raw[:n-1]
	}
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(strings.TrimSuffix(l, "\r"))
		if strings.Count(l, "\t") == 3 {
			l = " \t" + l
		}
		lines = append(lines, l)
	}
	return lines
}

// Parse reads the header then one word per non-empty row. Quote characters
// are literal. Repeated header rows are skipped.
func (p *Parser) Parse(content []byte) ([]domain.Word, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	lines := Lines(content)

	idx := -1
	var header map[string]int
	for i, l := range lines {
		if l == "" {
			continue
		}
		header = make(map[string]int)
		for j, name := range strings.Split(l, "\t") {
			header[strings.TrimSpace(name)] = j
		}
		idx = i
		break
	}
	if idx < 0 {
		return nil, nil
	}
	for _, c := range columns {
		if _, ok := header[c]; !ok {
			return nil, fmt.Errorf("%w: header missing %q column", domain.ErrOCRParse, c)
		}
	}

	var words []domain.Word
	for n, l := range lines[idx+1:] {
		if l == "" {
			continue
		}
		fields := strings.Split(l, "\t")
		get := func(name string) string {
			if j := header[name]; j < len(fields) {
				return fields[j]
			}
			return ""
		}
		if get("x") == "x" {
			continue
		}

		var coords [4]int
		for i, name := range []string{"x", "y", "w", "h"} {
			v, err := strconv.Atoi(strings.TrimSpace(get(name)))
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: column %s: %v", domain.ErrOCRParse, idx+n+2, name, err)
			}
			coords[i] = v
		}
		words = append(words, domain.Word{
			Content:      get("content"),
			X:            coords[0],
			Y:            coords[1],
			W:            coords[2],
			H:            coords[3],
			ResourceType: domain.ResourceWord,
		})
	}
	return words, nil
}
