// Command morph converts structured data between serialization formats,
// optionally reshaping it through a small mapping-language program in
// between (spec.md §1-§2). Flag parsing follows the teacher's
// cmd/datalog/main.go style: a bare flag.FlagSet and an explicit
// flag.Usage override rather than a flag-parsing framework; positional
// arguments are not read.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/morph-lang/morph/internal/ast"
	"github.com/morph-lang/morph/internal/diag"
	"github.com/morph-lang/morph/internal/eval"
	"github.com/morph-lang/morph/internal/format"
	"github.com/morph-lang/morph/internal/formatreg"
	"github.com/morph-lang/morph/internal/parser"
	"github.com/morph-lang/morph/internal/runtimeenv"
	"github.com/morph-lang/morph/internal/stream"
	"github.com/morph-lang/morph/internal/uv"
)

// usageError marks an error that should exit 2 rather than 1 (§6.4, §7).
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type cliFlags struct {
	inputPath   string
	outputPath  string
	fromFmt     string
	toFmt       string
	mappingFile string
	exprs       multiFlag
	dryRun      bool
	skipErrors  bool
	pretty      bool
	compact     bool
	indent      int
	showFormats bool
}

type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ";") }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("morph", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var f cliFlags
	fs.StringVar(&f.inputPath, "i", "", "input file (default: stdin)")
	fs.StringVar(&f.outputPath, "o", "", "output file (default: stdout)")
	fs.StringVar(&f.fromFmt, "f", "", "input format tag")
	fs.StringVar(&f.toFmt, "t", "", "output format tag")
	fs.StringVar(&f.mappingFile, "m", "", "mapping-language program file")
	fs.StringVar(&f.mappingFile, "mapping", "", "mapping-language program file")
	fs.Var(&f.exprs, "e", "mapping-language program text (repeatable, concatenated after -m)")
	fs.Var(&f.exprs, "expr", "mapping-language program text (repeatable, concatenated after -m)")
	fs.BoolVar(&f.dryRun, "dry-run", false, "parse and validate the mapping without touching input data")
	fs.BoolVar(&f.skipErrors, "skip-errors", false, "downgrade per-record evaluation failures to warnings and continue")
	fs.BoolVar(&f.pretty, "pretty", false, "force pretty (indented) output")
	fs.BoolVar(&f.compact, "compact", false, "force compact output")
	fs.IntVar(&f.indent, "indent", 2, "indent width for writers that support it")
	fs.BoolVar(&f.showFormats, "formats", false, "list every registered format and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [options]\n\n", "morph")
		fmt.Fprintf(stderr, "Convert structured data between formats, reshaping it with a mapping program.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  morph -i in.json -o out.yaml\n")
		fmt.Fprintf(stderr, "  morph -f json -t csv -e 'select .name, .age' < in.json > out.csv\n")
		fmt.Fprintf(stderr, "  morph --formats\n")
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	registry := formatreg.Default()

	if f.showFormats {
		printFormats(stdout, registry)
		return 0
	}

	if f.pretty && f.compact {
		fmt.Fprintln(stderr, (&usageError{"--pretty and --compact are mutually exclusive"}).Error())
		return 2
	}

	code, err := execute(f, registry, stdin, stdout, stderr)
	if err == nil {
		return code
	}
	var d *diag.Diagnostic
	if asDiagnostic(err, &d) {
		d.Render(stderr)
		if d.Kind == "UsageError" {
			return 2
		}
		return 1
	}
	var ue *usageError
	if errorsAs(err, &ue) {
		fmt.Fprintln(stderr, ue.Error())
		return 2
	}
	fmt.Fprintln(stderr, err.Error())
	return 1
}

func asDiagnostic(err error, out **diag.Diagnostic) bool {
	d, ok := err.(*diag.Diagnostic)
	if ok {
		*out = d
	}
	return ok
}

func errorsAs(err error, out **usageError) bool {
	u, ok := err.(*usageError)
	if ok {
		*out = u
	}
	return ok
}

func execute(f cliFlags, registry *format.Registry, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	fromFmt, err := resolveFormat(registry, f.fromFmt, f.inputPath)
	if err != nil {
		return 2, err
	}
	toFmt, err := resolveFormat(registry, f.toFmt, f.outputPath)
	if err != nil {
		return 2, err
	}

	source, err := buildMappingSource(f.mappingFile, f.exprs)
	if err != nil {
		return 2, err
	}

	prog := &ast.Program{}
	if strings.TrimSpace(source) != "" {
		reg := eval.New(runtimeenv.SystemClock{}, runtimeenv.SystemEnv{}, nil).Registry
		p, err := parser.ParseSource(source, reg)
		if err != nil {
			return 1, err
		}
		prog = p
	}

	if f.dryRun {
		return 0, nil
	}

	in := stdin
	if f.inputPath != "" {
		file, err := os.Open(f.inputPath)
		if err != nil {
			return 1, &diag.Diagnostic{Severity: diag.SeverityError, Kind: "ReadError", Message: err.Error()}
		}
		defer file.Close()
		in = file
	}

	var outW io.Writer = stdout
	var outFile *os.File
	if f.outputPath != "" {
		file, err := os.Create(f.outputPath)
		if err != nil {
			return 1, &diag.Diagnostic{Severity: diag.SeverityError, Kind: "WriteError", Message: err.Error()}
		}
		outFile = file
		outW = file
	}
	if outFile != nil {
		defer outFile.Close()
	}

	sink := diag.WriterSink{W: stderr}
	ev := eval.New(runtimeenv.SystemClock{}, runtimeenv.SystemEnv{}, sink)

	root, err := fromFmt.Parse(in)
	if err != nil {
		return 1, err
	}

	var out uv.Value
	if root.Kind == uv.KindArray {
		materialize := stream.RequiresMaterialization(prog)
		if materialize {
			fmt.Fprintf(stderr, "info: mapping program requires a global view of the data; materializing before conversion\n")
		}
		src := stream.NewSliceSource(root.Array)
		cw := &collectingWriter{}
		_, err := stream.Drive(ev, prog, src, cw, materialize, f.skipErrors, func(idx int, skipErr error) {
			sink.Emit(&diag.Diagnostic{Severity: diag.SeverityWarning, Kind: "SkippedRecord", Message: fmt.Sprintf("record %d skipped: %v", idx, skipErr)})
		})
		if err != nil {
			return 1, err
		}
		out = cw.result()
	} else {
		o, err := ev.Run(prog, root)
		if err != nil {
			return 1, err
		}
		out = o
	}

	var buf bytes.Buffer
	if err := toFmt.Serialize(&buf, out); err != nil {
		return 1, err
	}

	payload := buf.Bytes()
	if toFmt.Tag == "json" && ttyAware(f, outW) {
		var indented bytes.Buffer
		if err := json.Indent(&indented, payload, "", strings.Repeat(" ", f.indent)); err == nil {
			payload = indented.Bytes()
		}
	}

	bw := bufio.NewWriter(outW)
	if _, err := bw.Write(payload); err != nil {
		return 1, &diag.Diagnostic{Severity: diag.SeverityError, Kind: "WriteError", Message: err.Error()}
	}
	if err := bw.Flush(); err != nil {
		return 1, &diag.Diagnostic{Severity: diag.SeverityError, Kind: "WriteError", Message: err.Error()}
	}
	return 0, nil
}

// collectingWriter adapts stream.RecordWriter to the whole-document
// format.Serializer contract: every format here serializes one
// complete uv.Value, so per-record writes are accumulated into an
// array rather than flushed to the underlying writer immediately.
type collectingWriter struct {
	records []uv.Value
	all     uv.Value
	hasAll  bool
}

func (c *collectingWriter) WriteRecord(v uv.Value) error {
	c.records = append(c.records, v)
	return nil
}

func (c *collectingWriter) WriteAll(v uv.Value) error {
	c.all = v
	c.hasAll = true
	return nil
}

func (c *collectingWriter) result() uv.Value {
	if c.hasAll {
		return c.all
	}
	return uv.NewArray(c.records)
}

// resolveFormat applies §6.3's selection order: explicit tag first,
// then file extension, then a usage error when stdin/stdout leaves
// neither available.
func resolveFormat(registry *format.Registry, explicit, path string) (format.Format, error) {
	if explicit != "" {
		f, ok := registry.Lookup(explicit)
		if !ok {
			return format.Format{}, &diag.Diagnostic{Severity: diag.SeverityError, Kind: "UsageError", Message: fmt.Sprintf("unknown format %q", explicit)}
		}
		return f, nil
	}
	if path != "" {
		ext := filepath.Ext(path)
		if tag, ok := registry.ByExtension(ext); ok {
			f, _ := registry.Lookup(tag)
			return f, nil
		}
		return format.Format{}, &diag.Diagnostic{Severity: diag.SeverityError, Kind: "UsageError", Message: fmt.Sprintf("cannot infer format from extension %q; pass -f/-t explicitly", ext)}
	}
	return format.Format{}, &diag.Diagnostic{Severity: diag.SeverityError, Kind: "UsageError", Message: "stdin/stdout requires an explicit -f/-t format"}
}

// buildMappingSource concatenates -m's file contents (if any) with
// every -e value in argument order, newline-separated — the source
// accepts both newline- and ;-separated statements identically (§9
// open question), so simple concatenation is sufficient.
func buildMappingSource(mappingFile string, exprs []string) (string, error) {
	var parts []string
	if mappingFile != "" {
		b, err := os.ReadFile(mappingFile)
		if err != nil {
			return "", &usageError{fmt.Sprintf("cannot read mapping file %q: %v", mappingFile, err)}
		}
		parts = append(parts, string(b))
	}
	parts = append(parts, exprs...)
	return strings.Join(parts, "\n"), nil
}

func printFormats(w io.Writer, registry *format.Registry) {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Format", "Extensions", "Produces Bytes"})
	bytesCapable := map[string]bool{"msgpack": true}
	for _, tag := range registry.Tags() {
		f, _ := registry.Lookup(tag)
		yn := "no"
		if bytesCapable[tag] {
			yn = "yes"
		}
		table.Append([]string{f.Tag, strings.Join(f.Extensions, ", "), yn})
	}
	table.Render()
}

// ttyAware decides the default pretty/compact behavior: pretty for a
// file or a TTY, compact for a pipe, unless overridden by --pretty or
// --compact (§6.8).
func ttyAware(f cliFlags, w io.Writer) bool {
	if f.pretty {
		return true
	}
	if f.compact {
		return false
	}
	if f.outputPath != "" {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd())
}
