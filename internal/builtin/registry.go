// Package builtin holds the canonical v1 function table (§4.6): every
// name the mapping language can call, its arity range, and a short
// description. Function names resolve against this table at parse
// time; arity is checked only at evaluation, when the call is made.
package builtin

import "fmt"

// Metadata describes one registered function.
type Metadata struct {
	Name        string
	MinArgs     int
	MaxArgs     int // -1 for unbounded
	Description string
}

// Registry is a name -> Metadata table. The zero value is not usable;
// construct with NewRegistry.
type Registry struct {
	functions map[string]Metadata
}

// Default is the canonical v1 function table, populated at package
// load.
var Default = NewRegistry()

func NewRegistry() *Registry {
	r := &Registry{functions: make(map[string]Metadata)}

	str := []Metadata{
		{"join", 1, 2, "join an array of strings with a separator"},
		{"split", 2, 2, "split a string on a separator"},
		{"lower", 1, 1, "lowercase a string"},
		{"upper", 1, 1, "uppercase a string"},
		{"trim", 1, 1, "trim leading and trailing whitespace"},
		{"replace", 3, 3, "replace all occurrences of a substring"},
		{"starts_with", 2, 2, "test whether a string starts with a prefix"},
		{"ends_with", 2, 2, "test whether a string ends with a suffix"},
		{"contains", 2, 2, "test whether a string contains a substring"},
		{"substring", 3, 3, "extract a substring by start and length"},
		{"pad_left", 3, 3, "left-pad a string to a width"},
		{"pad_right", 3, 3, "right-pad a string to a width"},
		{"regex_match", 2, 2, "test a string against a regular expression"},
		{"regex_replace", 3, 3, "replace regex matches in a string"},
	}

	math := []Metadata{
		{"round", 1, 1, "round to the nearest integer"},
		{"ceil", 1, 1, "round up to the nearest integer"},
		{"floor", 1, 1, "round down to the nearest integer"},
		{"abs", 1, 1, "absolute value"},
		{"min", 1, -1, "minimum of its arguments, or of an array argument"},
		{"max", 1, -1, "maximum of its arguments, or of an array argument"},
		{"sum", 1, 1, "sum of an array of numbers"},
	}

	collection := []Metadata{
		{"len", 1, 1, "length of a string, array, or map"},
		{"keys", 1, 1, "keys of a map, in insertion order"},
		{"values", 1, 1, "values of a map, in key order"},
		{"unique", 1, 1, "stable de-duplication of an array"},
		{"reverse", 1, 1, "reverse an array"},
		{"first", 1, 1, "first element of an array"},
		{"last", 1, 1, "last element of an array"},
		{"count", 2, 2, "count elements satisfying a predicate expression"},
		{"group_by", 2, 2, "group array elements by a key expression"},
		{"flatten", 1, 1, "flatten an array one level deep"},
	}

	typ := []Metadata{
		{"type_of", 1, 1, "the variant name of a value"},
		{"is_null", 1, 1, "test whether a value is null"},
		{"is_array", 1, 1, "test whether a value is an array"},
		{"is_object", 1, 1, "test whether a value is a map"},
		{"is_string", 1, 1, "test whether a value is a string"},
		{"is_number", 1, 1, "test whether a value is an int or float"},
	}

	util := []Metadata{
		{"coalesce", 1, -1, "first non-null argument"},
		{"if", 3, 3, "lazy conditional over two branch expressions"},
		{"now", 0, 0, "current time as an ISO-8601 UTC string"},
		{"env", 1, 1, "read a process environment variable"},
		{"parse_date", 2, 2, "parse a string into a UV date string using a strftime layout"},
		{"format_date", 2, 2, "format a date value using a strftime layout"},
	}

	for _, group := range [][]Metadata{str, math, collection, typ, util} {
		for _, m := range group {
			r.Register(m)
		}
	}
	return r
}

// Register adds a function to the registry, overwriting any prior entry
// with the same name.
func (r *Registry) Register(m Metadata) {
	r.functions[m.Name] = m
}

// Lookup returns a function's metadata and whether it is registered.
func (r *Registry) Lookup(name string) (Metadata, bool) {
	m, ok := r.functions[name]
	return m, ok
}

// Validate checks that name is registered and that argCount is within its
// declared arity range, returning an error when either check fails.
func (r *Registry) Validate(name string, argCount int) error {
	m, ok := r.functions[name]
	if !ok {
		return fmt.Errorf("unknown function %q", name)
	}
	if argCount < m.MinArgs {
		return fmt.Errorf("function %q requires at least %d argument(s), got %d", name, m.MinArgs, argCount)
	}
	if m.MaxArgs != -1 && argCount > m.MaxArgs {
		return fmt.Errorf("function %q accepts at most %d argument(s), got %d", name, m.MaxArgs, argCount)
	}
	return nil
}

// Names returns every registered function name, used to seed Levenshtein
// "did you mean?" suggestions when the parser encounters an unknown call.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	return names
}
