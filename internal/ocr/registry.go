package ocr

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
	"github.com/custodia-labs/bookingest/internal/ocr/alto"
	"github.com/custodia-labs/bookingest/internal/ocr/dict"
	"github.com/custodia-labs/bookingest/internal/ocr/fedora"
	"github.com/custodia-labs/bookingest/internal/ocr/hocr"
	"github.com/custodia-labs/bookingest/internal/ocr/tei"
	"github.com/custodia-labs/bookingest/internal/ocr/tsv"
)

// Ensure Registry implements the interface.
var _ driven.OCRRegistry = (*Registry)(nil)

// Rule pairs a payload predicate with the parser used when it matches.
type Rule struct {
	Name   string
	Match  func(p *driven.OCRPayload) bool
	Parser driven.OCRParser
}

// Registry is an ordered strategy table. The first matching rule wins.
type Registry struct {
	rules []Rule
}

// NewRegistry creates a registry from rules in precedence order.
func NewRegistry(rules ...Rule) *Registry {
	return &Registry{rules: rules}
}

// Register appends a rule with the lowest precedence.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Rules returns the rule names in precedence order.
func (r *Registry) Rules() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name
	}
	return names
}

// Select returns the parser the payload dispatches to.
func (r *Registry) Select(p *driven.OCRPayload) (driven.OCRParser, error) {
	for _, rule := range r.rules {
		if rule.Match(p) {
			return rule.Parser, nil
		}
	}
	return nil, fmt.Errorf("%w: no OCR parser for %q", domain.ErrUnsupportedType, p.Path)
}

// Parse dispatches the payload and parses it.
func (r *Registry) Parse(p *driven.OCRPayload) ([]domain.Word, error) {
	if p == nil || len(p.Content) == 0 {
		return nil, nil
	}
	parser, err := r.Select(p)
	if err != nil {
		return nil, err
	}
	words, err := parser.Parse(p.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", parser.Name(), err)
	}
	return words, nil
}

// Default returns the registry with every built-in dialect.
func Default() *Registry {
	altoParser := alto.New()
	teiParser := tei.New()
	hocrParser := hocr.New()
	dictParser := dict.New()
	tsvParser := tsv.New()
	fedoraParser := fedora.New()

	return NewRegistry(
		Rule{Name: "line", Match: func(p *driven.OCRPayload) bool { return p.Line }, Parser: teiParser},
		Rule{Name: "json", Match: ext(".json"), Parser: dictParser},
		Rule{Name: "tsv", Match: ext(".tsv", ".tab"), Parser: tsvParser},
		Rule{Name: "xml", Match: ext(".xml"), Parser: NewXMLParser(altoParser, teiParser, hocrParser)},
		Rule{Name: "hocr", Match: ext(".hocr", ".html"), Parser: hocrParser},
		Rule{Name: "sniff-json", Match: sniffed(dict.IsObject), Parser: dictParser},
		Rule{Name: "sniff-tsv", Match: sniffed(func(c []byte) bool {
			return tsv.Looks(c) && !bytes.HasPrefix(c, fedora.BOM)
		}), Parser: tsvParser},
		Rule{Name: "fedora", Match: sniffed(func([]byte) bool { return true }), Parser: fedoraParser},
	)
}

func ext(exts ...string) func(*driven.OCRPayload) bool {
	return func(p *driven.OCRPayload) bool {
		e := strings.ToLower(filepath.Ext(p.Path))
		for _, want := range exts {
			if e == want {
				return true
			}
		}
		return false
	}
}

// sniffed matches fetched payloads (no path) and .txt sidecars whose
// content satisfies fn.
func sniffed(fn func([]byte) bool) func(*driven.OCRPayload) bool {
	return func(p *driven.OCRPayload) bool {
		e := strings.ToLower(filepath.Ext(p.Path))
		if p.Path != "" && e != ".txt" {
			return false
		}
		return fn(p.Content)
	}
}
