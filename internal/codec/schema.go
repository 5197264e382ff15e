package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Schema is the ordered field layout of one message type. It is validated
// once, when defined, so encoding a bound record only has to deal with bad
// values.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
	size   int
}

// NewSchema validates fields and returns the schema. Field names must be
// unique.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	s := &Schema{
		name:   name,
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %q", name, f.Name)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
		s.size += f.Width
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Meant for package level
// schema tables.
func MustSchema(name string, fields ...Field) *Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns a copy of the field list in wire order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Size is the payload length when every field encodes.
func (s *Schema) Size() int { return s.size }

// Offset returns the byte offset of the named field in a complete payload.
func (s *Schema) Offset(name string) (int, bool) {
	i, ok := s.index[name]
	if !ok {
		return 0, false
	}
	off := 0
	for _, f := range s.fields[:i] {
		off += f.Width
	}
	return off, true
}

// Bind lays values out in schema order. Fields missing from values get the
// zero value of their kind; names the schema does not know are ignored.
func (s *Schema) Bind(values map[string]Value) []Entry {
	entries := make([]Entry, 0, len(s.fields))
	for _, f := range s.fields {
		v, ok := values[f.Name]
		if !ok {
			v = Zero(f.Kind)
		}
		entries = append(entries, f.Entry(v))
	}
	return entries
}

// Encode binds values and encodes them.
func (s *Schema) Encode(values map[string]Value) ([]byte, []*FieldError) {
	return Encode(s.Bind(values))
}

// Decode reads a complete payload laid out by s. Integers are read as signed,
// text has its trailing NUL padding removed.
func (s *Schema) Decode(payload []byte) (map[string]Value, error) {
	if len(payload) < s.size {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortPayload, s.name, s.size, len(payload))
	}
	out := make(map[string]Value, len(s.fields))
	off := 0
	for _, f := range s.fields {
		b := payload[off : off+f.Width]
		switch f.Kind {
		case KindInt:
			out[f.Name] = Int(decodeInt(b))
		case KindFloat:
			out[f.Name] = Float(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		case KindText:
			out[f.Name] = Text(string(bytes.TrimRight(b, "\x00")))
		}
		off += f.Width
	}
	return out, nil
}
