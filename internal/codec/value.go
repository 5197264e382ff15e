// Package codec implements the positional little-endian wire format used by
// the simulated bike units. A payload is nothing but the concatenation of its
// fields: no framing, no length prefix, no checksum. The layout of every
// field is carried by its key, written as "<name>_<width>".
package codec

import (
	"fmt"
	"strconv"
)

// Kind identifies which of the supported value shapes a Value holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float32"
	case KindText:
		return "text"
	default:
		return "invalid"
	}
}

// Value is a tagged union of the three value shapes the wire format knows
// about. The zero Value has KindInvalid and fails to encode.
type Value struct {
	kind Kind
	i    int64
	f    float32
	s    string
}

// Int returns a signed integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a single-precision float value. It can only be encoded into
// a 4 byte field.
func Float(v float32) Value { return Value{kind: KindFloat, f: v} }

// Text returns an ASCII string value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Zero returns the zero value for kind k.
func Zero(k Kind) Value {
	switch k {
	case KindInt:
		return Int(0)
	case KindFloat:
		return Float(0)
	case KindText:
		return Text("")
	default:
		return Value{}
	}
}

func (v Value) Kind() Kind { return v.kind }

// AsInt returns the integer held by v. ok is false for other kinds.
func (v Value) AsInt() (n int64, ok bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float held by v. ok is false for other kinds.
func (v Value) AsFloat() (f float32, ok bool) { return v.f, v.kind == KindFloat }

// AsText returns the string held by v. ok is false for other kinds.
func (v Value) AsText() (s string, ok bool) { return v.s, v.kind == KindText }

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case KindText:
		return strconv.Quote(v.s)
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}
