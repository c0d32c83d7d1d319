// Package xmlfmt adapts generic, schema-free XML to and from the UV
// model using the standard library's token stream (encoding/xml's
// Decoder.Token), the conventional approach when there is no known
// target struct to unmarshal into. An element with only text content
// becomes a String; an element with only child elements becomes a Map
// keyed by child tag name (repeated tags collapse into an Array);
// attributes are exposed under a "@attr" key.
package xmlfmt

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/morph-lang/morph/internal/format"
	"github.com/morph-lang/morph/internal/uv"
)

const attrPrefix = "@"
const textKey = "#text"

// Parse decodes the first top-level XML element in r into a UV.
func Parse(r io.Reader) (uv.Value, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return uv.Null, nil
		}
		if err != nil {
			return uv.Null, format.ReadErr("%v", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return decodeElement(dec, start)
		}
	}
}

func decodeElement(dec *xml.Decoder, start xml.StartElement) (uv.Value, error) {
	m := uv.NewOrderedMap()
	for _, a := range start.Attr {
		m.Set(attrPrefix+a.Name.Local, uv.NewString(a.Value))
	}

	var text strings.Builder
	childOrder := []string{}
	children := map[string][]uv.Value{}

	for {
		tok, err := dec.Token()
		if err != nil {
			return uv.Null, format.ReadErr("%v", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return uv.Null, err
			}
			if _, ok := children[t.Name.Local]; !ok {
				childOrder = append(childOrder, t.Name.Local)
			}
			children[t.Name.Local] = append(children[t.Name.Local], child)
		case xml.EndElement:
			return finishElement(m, childOrder, children, strings.TrimSpace(text.String())), nil
		}
	}
}

func finishElement(m *uv.Map, order []string, children map[string][]uv.Value, text string) uv.Value {
	if len(order) == 0 {
		if m.Len() == 0 {
			return uv.NewString(text)
		}
		if text != "" {
			m.Set(textKey, uv.NewString(text))
		}
		return uv.NewMap(m)
	}
	for _, name := range order {
		vals := children[name]
		if len(vals) == 1 {
			m.Set(name, vals[0])
		} else {
			m.Set(name, uv.NewArray(vals))
		}
	}
	if text != "" {
		m.Set(textKey, uv.NewString(text))
	}
	return uv.NewMap(m)
}

// Serialize writes v to w as a single XML document rooted at "root",
// since UV carries no document element name of its own.
func Serialize(w io.Writer, v uv.Value) error {
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, xml.Header)
	if err := encodeElement(bw, "root", v); err != nil {
		return format.WriteErr("%v", err)
	}
	fmt.Fprintln(bw)
	return bw.Flush()
}

func encodeElement(w *bufio.Writer, name string, v uv.Value) error {
	switch v.Kind {
	case uv.KindMap:
		var attrs []string
		var textVal string
		fmt.Fprintf(w, "<%s", name)
		for _, k := range v.Map.Keys() {
			if strings.HasPrefix(k, attrPrefix) {
				child, _ := v.Map.Get(k)
				s, _, err := uv.Cast(child, uv.KindString)
				if err != nil {
					return err
				}
				attrs = append(attrs, fmt.Sprintf(` %s=%q`, k[len(attrPrefix):], s.Str))
			}
		}
		for _, a := range attrs {
			w.WriteString(a)
		}
		w.WriteByte('>')
		for _, k := range v.Map.Keys() {
			if strings.HasPrefix(k, attrPrefix) {
				continue
			}
			child, _ := v.Map.Get(k)
			if k == textKey {
				s, _, err := uv.Cast(child, uv.KindString)
				if err != nil {
					return err
				}
				textVal = s.Str
				continue
			}
			if child.Kind == uv.KindArray {
				for _, el := range child.Array {
					if err := encodeElement(w, k, el); err != nil {
						return err
					}
				}
				continue
			}
			if err := encodeElement(w, k, child); err != nil {
				return err
			}
		}
		xml.EscapeText(w, []byte(textVal))
		fmt.Fprintf(w, "</%s>", name)
	case uv.KindArray:
		for _, el := range v.Array {
			if err := encodeElement(w, name, el); err != nil {
				return err
			}
		}
	default:
		s, _, err := uv.Cast(v, uv.KindString)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "<%s>", name)
		xml.EscapeText(w, []byte(s.Str))
		fmt.Fprintf(w, "</%s>", name)
	}
	return nil
}
