// Package msgpackfmt adapts MessagePack to and from the UV model using
// vmihailenco/msgpack/v5 — no example repo in the corpus touches
// MessagePack, so this is named per the out-of-pack rule as the
// ecosystem's standard choice. It is also the only format that
// produces the UV Bytes variant, via msgpack's bin8/16/32 family.
//
// Both directions walk the tree via the decoder/encoder's low-level
// primitives (PeekCode plus DecodeMapLen/DecodeArrayLen on read,
// EncodeMapLen/EncodeArrayLen on write) instead of the generic
// Decoder.DecodeInterface/Encode, since those round-trip through a
// plain Go map and lose UV's Map insertion order.
package msgpackfmt

import (
	"io"

	"github.com/morph-lang/morph/internal/format"
	"github.com/morph-lang/morph/internal/uv"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Parse decodes a single MessagePack value from r into a UV.
func Parse(r io.Reader) (uv.Value, error) {
	dec := msgpack.NewDecoder(r)
	v, err := decodeValue(dec)
	if err != nil {
		return uv.Null, format.ReadErr("%v", err)
	}
	return v, nil
}

// decodeValue dispatches on the next value's leading code byte instead
// of decoding into interface{}, so a map decodes straight into a UV
// ordered Map instead of passing through a native Go map that would
// discard key order.
func decodeValue(dec *msgpack.Decoder) (uv.Value, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return uv.Null, err
	}
	switch {
	case code == msgpcode.Nil:
		if err := dec.DecodeNil(); err != nil {
			return uv.Null, err
		}
		return uv.Null, nil
	case code == msgpcode.False || code == msgpcode.True:
		b, err := dec.DecodeBool()
		if err != nil {
			return uv.Null, err
		}
		return uv.NewBool(b), nil
	case msgpcode.IsFixedMap(code) || code == msgpcode.Map16 || code == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return uv.Null, err
		}
		m := uv.NewOrderedMap()
		for i := 0; i < n; i++ {
			k, err := dec.DecodeString()
			if err != nil {
				return uv.Null, err
			}
			child, err := decodeValue(dec)
			if err != nil {
				return uv.Null, err
			}
			m.Set(k, child)
		}
		return uv.NewMap(m), nil
	case msgpcode.IsFixedArray(code) || code == msgpcode.Array16 || code == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return uv.Null, err
		}
		out := make([]uv.Value, n)
		for i := 0; i < n; i++ {
			el, err := decodeValue(dec)
			if err != nil {
				return uv.Null, err
			}
			out[i] = el
		}
		return uv.NewArray(out), nil
	case msgpcode.IsBin(code):
		b, err := dec.DecodeBytes()
		if err != nil {
			return uv.Null, err
		}
		return uv.NewBytes(b), nil
	case msgpcode.IsString(code):
		s, err := dec.DecodeString()
		if err != nil {
			return uv.Null, err
		}
		return uv.NewString(s), nil
	case code == msgpcode.Float || code == msgpcode.Double:
		f, err := dec.DecodeFloat64()
		if err != nil {
			return uv.Null, err
		}
		return uv.NewFloat(f), nil
	default:
		i, err := dec.DecodeInt64()
		if err != nil {
			return uv.Null, err
		}
		return uv.NewInt(i), nil
	}
}

// Serialize writes v to w as MessagePack, preserving Map insertion
// order exactly via EncodeMapLen plus per-entry encodes.
func Serialize(w io.Writer, v uv.Value) error {
	enc := msgpack.NewEncoder(w)
	if err := encodeValue(enc, v); err != nil {
		return format.WriteErr("%v", err)
	}
	return nil
}

func encodeValue(enc *msgpack.Encoder, v uv.Value) error {
	switch v.Kind {
	case uv.KindNull:
		return enc.EncodeNil()
	case uv.KindBool:
		return enc.EncodeBool(v.Bool)
	case uv.KindInt:
		return enc.EncodeInt64(v.Int)
	case uv.KindFloat:
		return enc.EncodeFloat64(v.Float)
	case uv.KindString:
		return enc.EncodeString(v.Str)
	case uv.KindBytes:
		return enc.EncodeBytes(v.Bytes)
	case uv.KindArray:
		if err := enc.EncodeArrayLen(len(v.Array)); err != nil {
			return err
		}
		for _, el := range v.Array {
			if err := encodeValue(enc, el); err != nil {
				return err
			}
		}
		return nil
	case uv.KindMap:
		if err := enc.EncodeMapLen(v.Map.Len()); err != nil {
			return err
		}
		for _, k := range v.Map.Keys() {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			child, _ := v.Map.Get(k)
			if err := encodeValue(enc, child); err != nil {
				return err
			}
		}
		return nil
	default:
		return enc.EncodeNil()
	}
}
