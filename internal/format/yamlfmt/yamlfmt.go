// Package yamlfmt adapts YAML to and from the UV model using
// gopkg.in/yaml.v3's Node tree, which is the only API in that library
// that preserves mapping key order and the literal scalar tag (so an
// Int written as "3" and a Float written as "3.0" don't collapse into
// the same Go type before they reach UV).
package yamlfmt

import (
	"io"
	"strconv"

	"github.com/morph-lang/morph/internal/format"
	"github.com/morph-lang/morph/internal/uv"
	"gopkg.in/yaml.v3"
)

// Parse decodes a single YAML document from r into a UV.
func Parse(r io.Reader) (uv.Value, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return uv.Null, nil
		}
		return uv.Null, format.ReadErr("%v", err)
	}
	if len(doc.Content) == 0 {
		return uv.Null, nil
	}
	v, err := nodeToValue(doc.Content[0])
	if err != nil {
		return uv.Null, format.ReadErr("%v", err)
	}
	return v, nil
}

func nodeToValue(n *yaml.Node) (uv.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return uv.Null, nil
		}
		return nodeToValue(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == n {
			return uv.Null, format.ReadErr("self-referential YAML alias")
		}
		return nodeToValue(n.Alias)
	case yaml.ScalarNode:
		return scalarToValue(n)
	case yaml.SequenceNode:
		out := make([]uv.Value, len(n.Content))
		for i, c := range n.Content {
			v, err := nodeToValue(c)
			if err != nil {
				return uv.Null, err
			}
			out[i] = v
		}
		return uv.NewArray(out), nil
	case yaml.MappingNode:
		m := uv.NewOrderedMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			val := n.Content[i+1]
			kv, err := nodeToValue(key)
			if err != nil {
				return uv.Null, err
			}
			ks, _, err := uv.Cast(kv, uv.KindString)
			if err != nil {
				return uv.Null, err
			}
			v, err := nodeToValue(val)
			if err != nil {
				return uv.Null, err
			}
			m.Set(ks.Str, v)
		}
		return uv.NewMap(m), nil
	default:
		return uv.Null, format.ReadErr("unsupported YAML node kind %d", n.Kind)
	}
}

func scalarToValue(n *yaml.Node) (uv.Value, error) {
	switch n.Tag {
	case "!!null":
		return uv.Null, nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return uv.Null, err
		}
		return uv.NewBool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return uv.Null, err
		}
		return uv.NewInt(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return uv.Null, err
		}
		return uv.NewFloat(f), nil
	default:
		return uv.NewString(n.Value), nil
	}
}

// Serialize writes v to w as a single YAML document.
func Serialize(w io.Writer, v uv.Value) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	node := valueToNode(v)
	if err := enc.Encode(node); err != nil {
		return format.WriteErr("%v", err)
	}
	return enc.Close()
}

func valueToNode(v uv.Value) *yaml.Node {
	switch v.Kind {
	case uv.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case uv.KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool)}
	case uv.KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.Int, 10)}
	case uv.KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v.Float, 'g', -1, 64)}
	case uv.KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str}
	case uv.KindBytes:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: string(v.Bytes)}
	case uv.KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, el := range v.Array {
			n.Content = append(n.Content, valueToNode(el))
		}
		return n
	case uv.KindMap:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range v.Map.Keys() {
			child, _ := v.Map.Get(k)
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, valueToNode(child))
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
