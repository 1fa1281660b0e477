package fedexcsp

import (
	"encoding/xml"
	"io"
	"strings"
)

// xmlToMap decodes an XML document into a generic nested mapping.
// Element text becomes a string, nested elements become
// map[string]any, and repeated sibling elements collapse into []any.
// This is the raw-params escape hatch: callers can reach carrier
// fields the typed responses do not model.
func xmlToMap(raw string) (map[string]any, error) {
	dec := xml.NewDecoder(strings.NewReader(raw))
	result := map[string]any{}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			value, err := decodeElement(dec, start)
			if err != nil {
				return nil, err
			}
			insertChild(result, start.Name.Local, value)
		}
	}
}

func decodeElement(dec *xml.Decoder, start xml.StartElement) (any, error) {
	children := map[string]any{}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			value, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			insertChild(children, t.Name.Local, value)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(children) > 0 {
				return children, nil
			}
			return strings.TrimSpace(text.String()), nil
		}
	}
}

func insertChild(parent map[string]any, name string, value any) {
	existing, ok := parent[name]
	if !ok {
		parent[name] = value
		return
	}
	if list, ok := existing.([]any); ok {
		parent[name] = append(list, value)
		return
	}
	parent[name] = []any{existing, value}
}
