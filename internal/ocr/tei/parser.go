// Package tei parses TEI facsimile documents. The line service returns TEI
// whose facsimile surface holds zones of lines; each line carries its box as
// ulx/uly/lrx/lry and its text in its last child.
package tei

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.OCRParser = (*Parser)(nil)

type document struct {
	XMLName   xml.Name    `xml:"TEI"`
	Header    *struct{}   `xml:"teiHeader"`
	Facsimile []facsimile `xml:"facsimile"`
}

type facsimile struct {
	Surfaces []surface `xml:"surface"`
}

type surface struct {
	Zones []zone `xml:"zone"`
}

type zone struct {
	Lines []line `xml:",any"`
}

type line struct {
	XMLName  xml.Name
	ULX      string  `xml:"ulx,attr"`
	ULY      string  `xml:"uly,attr"`
	LRX      string  `xml:"lrx,attr"`
	LRY      string  `xml:"lry,attr"`
	Children []child `xml:",any"`
}

type child struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

// Parser handles TEI.
type Parser struct{}

// New creates a new TEI parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the dialect name.
func (p *Parser) Name() string {
	return "tei"
}

// Parse extracts one line-granularity word per line element.
func (p *Parser) Parse(content []byte) ([]domain.Word, error) {
	var doc document
	if err := xml.NewDecoder(bytes.NewReader(content)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOCRParse, err)
	}
	if doc.Header == nil {
		return nil, fmt.Errorf("%w: TEI without teiHeader", domain.ErrOCRParse)
	}
	if len(doc.Facsimile) == 0 {
		return nil, fmt.Errorf("%w: TEI without facsimile", domain.ErrOCRParse)
	}

	var words []domain.Word
	for _, f := range doc.Facsimile {
		for _, s := range f.Surfaces {
			for _, z := range s.Zones {
				for i, l := range z.Lines {
					w, err := l.word()
					if err != nil {
						return nil, fmt.Errorf("%w: line %d: %v", domain.ErrOCRParse, i+1, err)
					}
					words = append(words, w)
				}
			}
		}
	}
	return words, nil
}

func (l line) word() (domain.Word, error) {
	var coords [4]int
	for i, v := range []string{l.ULX, l.ULY, l.LRX, l.LRY} {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return domain.Word{}, fmt.Errorf("bad coordinate %q on <%s>", v, l.XMLName.Local)
		}
		coords[i] = n
	}
	var content string
	if len(l.Children) > 0 {
		content = strings.TrimSpace(l.Children[len(l.Children)-1].Text)
	}
	return domain.Word{
		Content:      content,
		X:            coords[0],
		Y:            coords[1],
		W:            coords[2] - coords[0],
		H:            coords[3] - coords[1],
		ResourceType: domain.ResourceLine,
	}, nil
}
