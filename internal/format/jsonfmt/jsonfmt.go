// Package jsonfmt adapts JSON to and from the UV model using the
// standard library decoder/encoder in token-stream mode so that
// integers and floats stay distinct (§8 "Int/Float distinctness") and
// Map keys keep document order, neither of which encoding/json's
// struct/interface{} decoding gives you for free.
package jsonfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/morph-lang/morph/internal/format"
	"github.com/morph-lang/morph/internal/uv"
)

// Parse decodes a single JSON value from r into a UV.
func Parse(r io.Reader) (uv.Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return uv.Null, format.ReadErr("%v", err)
	}
	return v, nil
}

// ParseValue decodes a single JSON value already buffered in src,
// exposed for the JSON-Lines adapter which splits input line by line
// itself.
func ParseValue(src []byte) (uv.Value, error) {
	return Parse(bytes.NewReader(src))
}

func decodeValue(dec *json.Decoder) (uv.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return uv.Null, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (uv.Value, error) {
	switch t := tok.(type) {
	case nil:
		return uv.Null, nil
	case bool:
		return uv.NewBool(t), nil
	case json.Number:
		return numberToValue(t)
	case string:
		return uv.NewString(t), nil
	case json.Delim:
		switch t {
		case '[':
			return decodeArray(dec)
		case '{':
			return decodeObject(dec)
		default:
			return uv.Null, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return uv.Null, fmt.Errorf("unexpected JSON token %v", tok)
	}
}

func numberToValue(n json.Number) (uv.Value, error) {
	s := string(n)
	if !looksLikeFloat(s) {
		if i, err := n.Int64(); err == nil {
			return uv.NewInt(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return uv.Null, err
	}
	return uv.NewFloat(f), nil
}

func looksLikeFloat(s string) bool {
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			return true
		}
	}
	return false
}

func decodeArray(dec *json.Decoder) (uv.Value, error) {
	var out []uv.Value
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return uv.Null, err
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil { // closing ]
		return uv.Null, err
	}
	return uv.NewArray(out), nil
}

func decodeObject(dec *json.Decoder) (uv.Value, error) {
	m := uv.NewOrderedMap()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return uv.Null, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return uv.Null, fmt.Errorf("expected object key, found %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return uv.Null, err
		}
		m.Set(key, val)
	}
	if _, err := dec.Token(); err != nil { // closing }
		return uv.Null, err
	}
	return uv.NewMap(m), nil
}

// Serialize writes v to w as JSON, preserving Map insertion order and
// emitting integers without a decimal point.
func Serialize(w io.Writer, v uv.Value) error {
	b, err := encodeValue(v)
	if err != nil {
		return format.WriteErr("%v", err)
	}
	_, err = w.Write(b)
	return err
}

func encodeValue(v uv.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v uv.Value) error {
	switch v.Kind {
	case uv.KindNull:
		buf.WriteString("null")
	case uv.KindBool:
		if v.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case uv.KindInt:
		fmt.Fprintf(buf, "%d", v.Int)
	case uv.KindFloat:
		b, err := json.Marshal(v.Float)
		if err != nil {
			return err
		}
		buf.Write(b)
	case uv.KindString:
		b, err := json.Marshal(v.Str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case uv.KindBytes:
		b, err := json.Marshal(v.Bytes) // base64, per encoding/json convention
		if err != nil {
			return err
		}
		buf.Write(b)
	case uv.KindArray:
		buf.WriteByte('[')
		for i, el := range v.Array {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, el); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case uv.KindMap:
		buf.WriteByte('{')
		for i, k := range v.Map.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			child, _ := v.Map.Get(k)
			if err := writeValue(buf, child); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

