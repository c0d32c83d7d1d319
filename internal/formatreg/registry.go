// Package formatreg wires every format adapter into a format.Registry.
// It lives outside package format so that the adapter subpackages can
// import format (for the Parser/Serializer types and ReadErr/WriteErr)
// without creating an import cycle back through this wiring.
package formatreg

import (
	"github.com/morph-lang/morph/internal/format"
	"github.com/morph-lang/morph/internal/format/csvfmt"
	"github.com/morph-lang/morph/internal/format/ednfmt"
	"github.com/morph-lang/morph/internal/format/jsonfmt"
	"github.com/morph-lang/morph/internal/format/jsonlfmt"
	"github.com/morph-lang/morph/internal/format/msgpackfmt"
	"github.com/morph-lang/morph/internal/format/qsfmt"
	"github.com/morph-lang/morph/internal/format/sexpfmt"
	"github.com/morph-lang/morph/internal/format/tomlfmt"
	"github.com/morph-lang/morph/internal/format/xmlfmt"
	"github.com/morph-lang/morph/internal/format/yamlfmt"
)

// Default returns the registry pre-populated with every format adapter
// morph ships, indexed by tag and by file extension (§6.3).
func Default() *format.Registry {
	r := format.NewRegistry()
	r.Register(format.Format{Tag: "json", Extensions: []string{".json"}, Parse: jsonfmt.Parse, Serialize: jsonfmt.Serialize})
	r.Register(format.Format{Tag: "jsonl", Extensions: []string{".jsonl", ".ndjson"}, Parse: jsonlfmt.Parse, Serialize: jsonlfmt.Serialize})
	r.Register(format.Format{Tag: "yaml", Extensions: []string{".yaml", ".yml"}, Parse: yamlfmt.Parse, Serialize: yamlfmt.Serialize})
	r.Register(format.Format{Tag: "toml", Extensions: []string{".toml"}, Parse: tomlfmt.Parse, Serialize: tomlfmt.Serialize})
	r.Register(format.Format{Tag: "csv", Extensions: []string{".csv"}, Parse: csvfmt.Parse(csvfmt.Options{Comma: ','}), Serialize: csvfmt.Serialize(csvfmt.Options{Comma: ','})})
	r.Register(format.Format{Tag: "tsv", Extensions: []string{".tsv"}, Parse: csvfmt.Parse(csvfmt.Options{Comma: '\t'}), Serialize: csvfmt.Serialize(csvfmt.Options{Comma: '\t'})})
	r.Register(format.Format{Tag: "xml", Extensions: []string{".xml"}, Parse: xmlfmt.Parse, Serialize: xmlfmt.Serialize})
	r.Register(format.Format{Tag: "msgpack", Extensions: []string{".msgpack"}, Parse: msgpackfmt.Parse, Serialize: msgpackfmt.Serialize})
	r.Register(format.Format{Tag: "sexp", Extensions: []string{".sexp"}, Parse: sexpfmt.Parse, Serialize: sexpfmt.Serialize})
	r.Register(format.Format{Tag: "qs", Extensions: []string{".qs"}, Parse: qsfmt.Parse, Serialize: qsfmt.Serialize})
	r.Register(format.Format{Tag: "edn", Extensions: []string{".edn"}, Parse: ednfmt.Parse, Serialize: ednfmt.Serialize})
	return r
}
