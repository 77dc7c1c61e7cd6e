// Package alto parses ALTO XML OCR (versions 1.4, 2.1, 3.1 and 4.2).
package alto

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.OCRParser = (*Parser)(nil)

// Version is an ALTO schema version.
type Version string

const (
	V1_4 Version = "1.4"
	V2_1 Version = "2.1"
	V3_1 Version = "3.1"
	V4_2 Version = "4.2"
)

// schema is the subset of each ALTO schema checked before extraction.
type schema struct {
	// stringAttrs are attributes required on every String element.
	stringAttrs []string
}

var schemas = map[Version]schema{
	V1_4: {stringAttrs: []string{"CONTENT", "HEIGHT", "WIDTH", "HPOS", "VPOS"}},
	V2_1: {stringAttrs: []string{"CONTENT", "HEIGHT", "WIDTH"}},
	V3_1: {stringAttrs: []string{"CONTENT"}},
	V4_2: {stringAttrs: []string{"CONTENT"}},
}

// numericAttrs must be xsd:float when present.
var numericAttrs = []string{"HPOS", "VPOS", "WIDTH", "HEIGHT", "WC"}

// Parser handles ALTO XML.
type Parser struct{}

// New creates a new ALTO parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the dialect name.
func (p *Parser) Name() string {
	return "alto"
}

// DetectVersion selects the schema from the namespace marker of the root tag.
func DetectVersion(namespace string) Version {
	switch {
	case strings.Contains(namespace, "ns-v2"):
		return V2_1
	case strings.Contains(namespace, "ns-v3"):
		return V3_1
	case strings.Contains(namespace, "ns-v4"):
		return V4_2
	}
	return V1_4
}

// Parse validates the document against its version's schema and extracts
// one word per String element.
func (p *Parser) Parse(content []byte) ([]domain.Word, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		version   Version
		rootSeen  bool
		hasLayout bool
		hasPage   bool
		strs      []map[string]string
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrOCRParse, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if !rootSeen {
			rootSeen = true
			if !strings.EqualFold(start.Name.Local, "alto") {
				return nil, fmt.Errorf("%w: root element %q is not alto", domain.ErrOCRParse, start.Name.Local)
			}
			version = DetectVersion(start.Name.Space)
			continue
		}

		switch start.Name.Local {
		case "Layout":
			hasLayout = true
		case "Page":
			hasPage = hasLayout
		case "String":
			strs = append(strs, upperAttrs(start.Attr))
		}
	}

	if !rootSeen {
		return nil, fmt.Errorf("%w: empty document", domain.ErrOCRParse)
	}
	if err := validate(version, hasLayout, hasPage, strs); err != nil {
		return nil, err
	}

	words := make([]domain.Word, 0, len(strs))
	for i, attrs := range strs {
		x, errX := toInt(attrs["HPOS"])
		y, errY := toInt(attrs["VPOS"])
		w, errW := toInt(attrs["WIDTH"])
		h, errH := toInt(attrs["HEIGHT"])
		if err := errors.Join(errX, errY, errW, errH); err != nil {
			return nil, fmt.Errorf("%w: String %d: %v", domain.ErrOCRParse, i+1, err)
		}
		words = append(words, domain.Word{
			Content:      attrs["CONTENT"],
			X:            x,
			Y:            y,
			W:            w,
			H:            h,
			ResourceType: domain.ResourceWord,
		})
	}
	return words, nil
}

func validate(version Version, hasLayout, hasPage bool, strs []map[string]string) error {
	if !hasLayout {
		return fmt.Errorf("%w: alto %s: missing Layout", domain.ErrOCRParse, version)
	}
	if !hasPage {
		return fmt.Errorf("%w: alto %s: Layout has no Page", domain.ErrOCRParse, version)
	}
	sc := schemas[version]
	for i, attrs := range strs {
		for _, name := range sc.stringAttrs {
			if _, ok := attrs[name]; !ok {
				return fmt.Errorf("%w: alto %s: String %d missing required attribute %s",
					domain.ErrOCRParse, version, i+1, name)
			}
		}
		for _, name := range numericAttrs {
			v, ok := attrs[name]
			if !ok {
				continue
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
				return fmt.Errorf("%w: alto %s: String %d attribute %s=%q is not a number",
					domain.ErrOCRParse, version, i+1, name, v)
			}
		}
	}
	return nil
}

// upperAttrs keys attributes by upper-cased local name.
func upperAttrs(attrs []xml.Attr) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[strings.ToUpper(a.Name.Local)] = a.Value
	}
	return out
}

func toInt(v string) (int, error) {
	if v == "" {
		return 0, errors.New("missing coordinate")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f)), nil
}
