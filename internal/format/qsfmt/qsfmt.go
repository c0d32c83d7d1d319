// Package qsfmt adapts URL query strings to and from the UV model. A
// query string has a natural left-to-right key order, so both
// directions are hand-rolled (split on `&`/`=`, percent-decode/encode
// via net/url's escaping helpers) rather than net/url.ParseQuery/
// url.Values.Encode, which store pairs in a Go map and, on write,
// stdlib documents as re-sorting keys before encoding — either would
// silently discard the order a query string actually has.
// The result is a UV Map whose values are either a single String (one
// occurrence) or an Array of String (repeated key), in first-seen
// order.
package qsfmt

import (
	"bufio"
	"io"
	"net/url"
	"strings"

	"github.com/morph-lang/morph/internal/format"
	"github.com/morph-lang/morph/internal/uv"
)

// Parse decodes a query string (without a leading "?") from r into a
// UV Map, preserving the pairs' left-to-right order.
func Parse(r io.Reader) (uv.Value, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return uv.Null, format.ReadErr("%v", err)
	}
	text := strings.TrimSuffix(string(src), "\n")
	m := uv.NewOrderedMap()
	if text == "" {
		return uv.NewMap(m), nil
	}
	for _, pair := range strings.Split(text, "&") {
		if pair == "" {
			continue
		}
		var rawKey, rawVal string
		if i := strings.IndexByte(pair, '='); i >= 0 {
			rawKey, rawVal = pair[:i], pair[i+1:]
		} else {
			rawKey = pair
		}
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return uv.Null, format.ReadErr("%v", err)
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			return uv.Null, format.ReadErr("%v", err)
		}
		existing, ok := m.Get(key)
		switch {
		case !ok:
			m.Set(key, uv.NewString(val))
		case existing.Kind == uv.KindArray:
			m.Set(key, uv.NewArray(append(existing.Array, uv.NewString(val))))
		default:
			m.Set(key, uv.NewArray([]uv.Value{existing, uv.NewString(val)}))
		}
	}
	return uv.NewMap(m), nil
}

// Serialize writes v (expected to be a flat Map) as a query string in
// v.Map.Keys() order. An Array value becomes repeated `key=`
// occurrences in array order.
func Serialize(w io.Writer, v uv.Value) error {
	if v.Kind != uv.KindMap {
		return format.WriteErr("query-string output requires a map, found %s", v.TypeOf())
	}
	bw := bufio.NewWriter(w)
	first := true
	writePair := func(key, val string) {
		if !first {
			bw.WriteByte('&')
		}
		first = false
		bw.WriteString(url.QueryEscape(key))
		bw.WriteByte('=')
		bw.WriteString(url.QueryEscape(val))
	}
	for _, k := range v.Map.Keys() {
		child, _ := v.Map.Get(k)
		if child.Kind == uv.KindArray {
			for _, el := range child.Array {
				s, _, err := uv.Cast(el, uv.KindString)
				if err != nil {
					return format.WriteErr("%v", err)
				}
				writePair(k, s.Str)
			}
			continue
		}
		s, _, err := uv.Cast(child, uv.KindString)
		if err != nil {
			return format.WriteErr("%v", err)
		}
		writePair(k, s.Str)
	}
	return bw.Flush()
}
