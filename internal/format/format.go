// Package format holds the reader/writer registry for every structured
// data format morph understands (§6.1-§6.3, §9 "dynamic dispatch for
// reader/writer adapters"). Each adapter lives in its own subpackage
// and is wired in here as a pair of function values rather than
// through a class hierarchy.
package format

import (
	"fmt"
	"io"

	"github.com/morph-lang/morph/internal/diag"
	"github.com/morph-lang/morph/internal/uv"
)

// ReadErr and WriteErr build the diagnostics format adapters return on
// malformed input or unrepresentable output (§6.1, §6.2).
func ReadErr(format string, args ...interface{}) error {
	return &diag.Diagnostic{Severity: diag.SeverityError, Kind: "ReadError", Message: fmt.Sprintf(format, args...)}
}

func WriteErr(format string, args ...interface{}) error {
	return &diag.Diagnostic{Severity: diag.SeverityError, Kind: "WriteError", Message: fmt.Sprintf(format, args...)}
}

// Parser consumes a full byte stream and yields one UV. Record-oriented
// formats (JSON-Lines, CSV/TSV) return an Array of per-record UVs; the
// streaming driver walks that Array and calls no other entry point of a
// format.
type Parser func(r io.Reader) (uv.Value, error)

// Serializer writes a UV to w in the target format.
type Serializer func(w io.Writer, v uv.Value) error

// Format bundles a format's parse/serialize pair with the file
// extensions that select it (§6.3).
type Format struct {
	Tag        string
	Extensions []string
	Parse      Parser
	Serialize  Serializer
}

// Registry maps a format tag to its adapter.
type Registry struct {
	byTag  map[string]Format
	byExt  map[string]string
	order  []string
}

// NewRegistry builds an empty registry. Use formatreg.Default for the registry
// pre-populated with every format adapter morph ships.
func NewRegistry() *Registry {
	return &Registry{byTag: make(map[string]Format), byExt: make(map[string]string)}
}

// Register adds a format adapter, indexing it by tag and extension.
func (r *Registry) Register(f Format) {
	if _, exists := r.byTag[f.Tag]; !exists {
		r.order = append(r.order, f.Tag)
	}
	r.byTag[f.Tag] = f
	for _, ext := range f.Extensions {
		r.byExt[ext] = f.Tag
	}
}

// Lookup resolves a format tag to its adapter.
func (r *Registry) Lookup(tag string) (Format, bool) {
	f, ok := r.byTag[tag]
	return f, ok
}

// ByExtension resolves a file extension (including the leading dot,
// e.g. ".json") to a format tag.
func (r *Registry) ByExtension(ext string) (string, bool) {
	tag, ok := r.byExt[ext]
	return tag, ok
}

// Tags lists every registered format tag in registration order.
func (r *Registry) Tags() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
