// Package csvfmt adapts CSV and TSV to and from the UV model using
// the standard library's encoding/csv — the ecosystem itself has no
// dominant third-party alternative, so stdlib is the idiomatic choice
// here (§6.6). The header row becomes each record Map's keys, in
// column order; every cell is read back as a String, since CSV has no
// native type system to recover Int/Float/Bool from.
package csvfmt

import (
	"bufio"
	"encoding/csv"
	"io"

	"github.com/morph-lang/morph/internal/format"
	"github.com/morph-lang/morph/internal/uv"
)

// Options configures the delimiter so TSV can share this adapter.
type Options struct {
	Comma rune
}

// Parse decodes a CSV document into an Array of row Maps, keyed by the
// header row.
func Parse(opts Options) format.Parser {
	return func(r io.Reader) (uv.Value, error) {
		cr := csv.NewReader(r)
		cr.Comma = opts.Comma
		cr.FieldsPerRecord = -1

		header, err := cr.Read()
		if err == io.EOF {
			return uv.NewArray(nil), nil
		}
		if err != nil {
			return uv.Null, format.ReadErr("%v", err)
		}

		var out []uv.Value
		for {
			row, err := cr.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return uv.Null, format.ReadErr("%v", err)
			}
			m := uv.NewOrderedMap()
			for i, h := range header {
				if i < len(row) {
					m.Set(h, uv.NewString(row[i]))
				} else {
					m.Set(h, uv.NewString(""))
				}
			}
			out = append(out, uv.NewMap(m))
		}
		return uv.NewArray(out), nil
	}
}

// Serialize writes v (expected to be an Array of Maps sharing a key
// set) as CSV/TSV: the union of keys across every row, in first-seen
// order, becomes the header.
func Serialize(opts Options) format.Serializer {
	return func(w io.Writer, v uv.Value) error {
		if v.Kind != uv.KindArray {
			return format.WriteErr("CSV output requires an array of records, found %s", v.TypeOf())
		}
		var header []string
		seen := map[string]bool{}
		for _, rec := range v.Array {
			if rec.Kind != uv.KindMap {
				return format.WriteErr("CSV output requires an array of maps, found %s", rec.TypeOf())
			}
			for _, k := range rec.Map.Keys() {
				if !seen[k] {
					seen[k] = true
					header = append(header, k)
				}
			}
		}

		bw := bufio.NewWriter(w)
		cw := csv.NewWriter(bw)
		cw.Comma = opts.Comma
		if err := cw.Write(header); err != nil {
			return format.WriteErr("%v", err)
		}
		for _, rec := range v.Array {
			row := make([]string, len(header))
			for i, h := range header {
				cell, ok := rec.Map.Get(h)
				if !ok {
					continue
				}
				s, _, err := uv.Cast(cell, uv.KindString)
				if err != nil {
					return format.WriteErr("%v", err)
				}
				row[i] = s.Str
			}
			if err := cw.Write(row); err != nil {
				return format.WriteErr("%v", err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return format.WriteErr("%v", err)
		}
		return bw.Flush()
	}
}
