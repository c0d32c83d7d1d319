// Package jsonlfmt adapts JSON-Lines (one JSON value per line) to and
// from the UV model, reusing jsonfmt for each line's decoding and
// reserving the line-by-line split for true record-at-a-time
// streaming (§9 "streaming vs materializing").
package jsonlfmt

import (
	"bufio"
	"io"
	"strings"

	"github.com/morph-lang/morph/internal/format"
	"github.com/morph-lang/morph/internal/format/jsonfmt"
	"github.com/morph-lang/morph/internal/uv"
)

// Parse reads every non-blank line of r as a JSON value and returns
// them as an Array, in file order.
func Parse(r io.Reader) (uv.Value, error) {
	var out []uv.Value
	sc := NewLineScanner(r)
	for sc.Scan() {
		v, err := jsonfmt.ParseValue(sc.Bytes())
		if err != nil {
			return uv.Null, format.ReadErr("line %d: %v", sc.LineNum(), err)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return uv.Null, format.ReadErr("%v", err)
	}
	return uv.NewArray(out), nil
}

// Serialize writes v (expected to be an Array) one JSON value per
// line. A non-Array v is written as a single line.
func Serialize(w io.Writer, v uv.Value) error {
	records := []uv.Value{v}
	if v.Kind == uv.KindArray {
		records = v.Array
	}
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if err := jsonfmt.Serialize(bw, rec); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LineScanner walks a JSON-Lines stream one non-blank line at a time,
// tracking a 1-based line number for diagnostics. Parse reads through
// it; the streaming driver does not call it directly.
type LineScanner struct {
	sc      *bufio.Scanner
	lineNum int
	cur     []byte
}

func NewLineScanner(r io.Reader) *LineScanner {
	return &LineScanner{sc: bufio.NewScanner(r)}
}

func (s *LineScanner) Scan() bool {
	for s.sc.Scan() {
		s.lineNum++
		line := strings.TrimSpace(s.sc.Text())
		if line == "" {
			continue
		}
		s.cur = []byte(line)
		return true
	}
	return false
}

func (s *LineScanner) Bytes() []byte { return s.cur }
func (s *LineScanner) LineNum() int  { return s.lineNum }
func (s *LineScanner) Err() error    { return s.sc.Err() }
