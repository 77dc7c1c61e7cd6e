// Package hocr parses hOCR, the HTML/XHTML OCR microformat produced by
// tesseract and most open-source OCR engines.
package hocr

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.OCRParser = (*Parser)(nil)

// tesseract emits font-metric properties that fail validation
// (tesseract-ocr/tesseract#3303); they carry nothing we store.
var fontMetrics = regexp.MustCompile(`([ ;]+)(x_size [0-9\.\-;]+)|( x_descenders [0-9\.\-;]+)|( x_ascenders [0-9\.\-;]+)`)

// maxProblems caps the validation report.
const maxProblems = 10

// Parser handles hOCR documents.
type Parser struct{}

// New creates a new hOCR parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the dialect name.
func (p *Parser) Name() string {
	return "hocr"
}

// Strip removes the tesseract font-metric properties from a document.
func Strip(content []byte) []byte {
	return fontMetrics.ReplaceAll(content, nil)
}

// Parse validates the document under the relaxed profile and extracts one
// word per ocrx_word element.
func (p *Parser) Parse(content []byte) ([]domain.Word, error) {
	doc, err := html.Parse(bytes.NewReader(Strip(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOCRParse, err)
	}

	if problems := Validate(doc); len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrOCRValidation, strings.Join(problems, "; "))
	}

	var words []domain.Word
	walk(doc, func(n *html.Node) {
		if !hasClass(n, "ocrx_word") {
			return
		}
		box, ok := bbox(attr(n, "title"))
		if !ok {
			return
		}
		words = append(words, domain.Word{
			Content:      strings.TrimSpace(text(n)),
			X:            box[0],
			Y:            box[1],
			W:            box[2] - box[0],
			H:            box[3] - box[1],
			ResourceType: domain.ResourceWord,
		})
	})
	return words, nil
}

// Validate applies the relaxed hOCR profile: the document must contain an
// ocr_page, every ocr_/ocrx_ element's title must be well-formed properties,
// bboxes must be four ordered non-negative integers, and every ocrx_word must
// carry a bbox and sit inside an ocr_page.
func Validate(doc *html.Node) []string {
	var problems []string
	report := func(format string, args ...any) {
		if len(problems) < maxProblems {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	pages := 0
	var visit func(n *html.Node, inPage bool)
	visit = func(n *html.Node, inPage bool) {
		if n.Type == html.ElementNode {
			class := ocrClass(n)
			if class == "ocr_page" {
				pages++
				inPage = true
			}
			if class != "" {
				title := attr(n, "title")
				if err := checkProperties(title); err != nil {
					report("%s: %v", class, err)
				}
				if class == "ocrx_word" {
					if !inPage {
						report("ocrx_word outside ocr_page")
					}
					if _, ok := bbox(title); !ok {
						report("ocrx_word without valid bbox")
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c, inPage)
		}
	}
	visit(doc, false)

	if pages == 0 {
		report("no ocr_page element")
	}
	return problems
}

// checkProperties validates "name value...; name value..." title syntax.
func checkProperties(title string) error {
	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(prop)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "bbox" {
			if _, ok := bbox(prop); !ok {
				return fmt.Errorf("malformed bbox %q", strings.TrimSpace(prop))
			}
		}
	}
	return nil
}

// bbox reads "bbox x0 y0 x1 y1" from a title.
func bbox(title string) ([4]int, bool) {
	var box [4]int
	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(prop)
		if len(fields) == 0 || fields[0] != "bbox" {
			continue
		}
		if len(fields) != 5 {
			return box, false
		}
		for i, f := range fields[1:] {
			v, err := strconv.Atoi(f)
			if err != nil || v < 0 {
				return box, false
			}
			box[i] = v
		}
		return box, box[0] <= box[2] && box[1] <= box[3]
	}
	return box, false
}

func ocrClass(n *html.Node) string {
	for _, c := range strings.Fields(attr(n, "class")) {
		if strings.HasPrefix(c, "ocr_") || strings.HasPrefix(c, "ocrx_") {
			return c
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
