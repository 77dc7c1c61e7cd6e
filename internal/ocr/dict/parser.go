// Package dict parses the JSON OCR shape served by archive.org's word API:
//
//	{"ocr": [[["word", [x0, y1, x1, y0]], ...], ...]}
//
// Boxes are bottom-origin, so height is b[1]-b[3] and the top is b[3].
package dict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.OCRParser = (*Parser)(nil)

type document struct {
	OCR [][]json.RawMessage `json:"ocr"`
}

// Parser handles JSON OCR.
type Parser struct{}

// New creates a new JSON OCR parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the dialect name.
func (p *Parser) Name() string {
	return "dict"
}

// IsObject reports whether content is a JSON object.
func IsObject(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

// Parse extracts words from every non-empty group of the "ocr" key. A missing
// or null key yields no words.
func (p *Parser) Parse(content []byte) ([]domain.Word, error) {
	var doc document
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOCRParse, err)
	}

	var words []domain.Word
	for g, group := range doc.OCR {
		for i, raw := range group {
			w, err := decodeWord(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: group %d word %d: %v", domain.ErrOCRParse, g, i, err)
			}
			words = append(words, w)
		}
	}
	return words, nil
}

func decodeWord(raw json.RawMessage) (domain.Word, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil {
		return domain.Word{}, err
	}
	if len(pair) < 2 {
		return domain.Word{}, fmt.Errorf("expected [content, box], got %d elements", len(pair))
	}

	var content any
	if err := json.Unmarshal(pair[0], &content); err != nil {
		return domain.Word{}, err
	}
	var box []float64
	if err := json.Unmarshal(pair[1], &box); err != nil {
		return domain.Word{}, fmt.Errorf("box: %w", err)
	}
	if len(box) != 4 {
		return domain.Word{}, fmt.Errorf("box has %d coordinates", len(box))
	}

	w := domain.Word{
		X:            round(box[0]),
		Y:            round(box[3]),
		W:            round(box[2] - box[0]),
		H:            round(box[1] - box[3]),
		ResourceType: domain.ResourceWord,
	}
	switch c := content.(type) {
	case string:
		w.Content = c
	case nil:
	default:
		w.Content = fmt.Sprint(c)
	}
	return w, nil
}

func round(f float64) int {
	return int(math.Round(f))
}
