// Package fedora parses the legacy fixed-column OCR datastream served by
// Fedora repositories: UTF-8 with a byte-order mark, CRLF line endings and
// five tab-separated fields per line (x, y, w, h, content).
package fedora

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

// BOM is the UTF-8 byte-order mark.
var BOM = []byte("\xef\xbb\xbf")

// Parser handles Fedora OCR.
type Parser struct{}

// New creates a new Fedora OCR parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the dialect name.
func (p *Parser) Name() string {
	return "fedora"
}

// Parse reads every five-field line; other lines are ignored.
func (p *Parser) Parse(content []byte) ([]domain.Word, error) {
	text := strings.TrimSpace(string(bytes.TrimPrefix(content, BOM)))
	if text == "" {
		return nil, nil
	}

	var words []domain.Word
	for n, line := range strings.Split(text, "\r\n") {
		fields := strings.Split(line, "\t")
		if len(fields) != 5 || fields[0] == "x" {
			continue
		}
		var coords [4]int
		for i := range coords {
			v, err := strconv.Atoi(strings.TrimSpace(fields[i]))
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", domain.ErrOCRParse, n+1, err)
			}
			coords[i] = v
		}
		words = append(words, domain.Word{
			Content:      fields[4],
			X:            coords[0],
			Y:            coords[1],
			W:            coords[2],
			H:            coords[3],
			ResourceType: domain.ResourceWord,
		})
	}
	return words, nil
}
