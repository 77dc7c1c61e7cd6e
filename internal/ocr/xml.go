package ocr

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure XMLParser implements the interface.
var _ driven.OCRParser = (*XMLParser)(nil)

const altoNamespace = "www.loc.gov/standards/alto"

// XMLParser routes an .xml sidecar to the ALTO, TEI or hOCR parser by
// inspecting the document.
type XMLParser struct {
	alto driven.OCRParser
	tei  driven.OCRParser
	hocr driven.OCRParser
}

// NewXMLParser creates an XML dispatcher over the given dialect parsers.
func NewXMLParser(altoParser, teiParser, hocrParser driven.OCRParser) *XMLParser {
	return &XMLParser{alto: altoParser, tei: teiParser, hocr: hocrParser}
}

// Name returns the dialect name.
func (p *XMLParser) Name() string {
	return "xml"
}

// Parse sniffs the flavour: an alto root (or an ALTO-namespaced first child)
// is ALTO; a teiHeader anywhere is TEI; a div anywhere is hOCR. Malformed XML
// is an ErrOCRParse. Well-formed XML of any other flavour yields no words.
func (p *XMLParser) Parse(content []byte) ([]domain.Word, error) {
	flavour, err := sniffXML(content)
	if err != nil {
		return nil, err
	}
	switch flavour {
	case "alto":
		return p.alto.Parse(content)
	case "tei":
		return p.tei.Parse(content)
	case "hocr":
		return p.hocr.Parse(content)
	}
	return nil, nil
}

func sniffXML(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.Entity = xml.HTMLEntity

	depth := 0
	flavour := ""
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrOCRParse, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			if _, end := tok.(xml.EndElement); end {
				depth--
			}
			continue
		}
		depth++

		switch {
		case depth == 1 && strings.EqualFold(start.Name.Local, "alto"):
			return "alto", nil
		case depth == 2 && strings.Contains(start.Name.Space, altoNamespace) && flavour == "":
			return "alto", nil
		case start.Name.Local == "teiHeader":
			return "tei", nil
		case start.Name.Local == "div":
			flavour = "hocr"
		}
	}
	return flavour, nil
}
