package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode concatenates the wire form of every entry, in order.
//
// A field that cannot be encoded contributes no bytes and is reported in
// errs; the remaining fields are still encoded. Callers decide whether a
// degraded payload is worth sending.
func Encode(entries []Entry) (payload []byte, errs []*FieldError) {
	for _, e := range entries {
		var err error
		payload, err = appendEntry(payload, e)
		if err != nil {
			errs = append(errs, &FieldError{Key: e.Key, Err: err})
		}
	}
	return payload, errs
}

// appendEntry appends e to buf. On error buf is returned unchanged.
func appendEntry(buf []byte, e Entry) ([]byte, error) {
	_, width, err := ParseKey(e.Key)
	if err != nil {
		return buf, err
	}

	switch e.Value.kind {
	case KindInt:
		return appendInt(buf, e.Value.i, width)
	case KindFloat:
		if width != 4 {
			return buf, fmt.Errorf("%w: got width %d", ErrFloatWidth, width)
		}
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(e.Value.f)), nil
	case KindText:
		return appendText(buf, e.Value.s, width)
	default:
		return buf, fmt.Errorf("%w: %s", ErrUnsupportedKind, e.Value.kind)
	}
}

func appendInt(buf []byte, v int64, width int) ([]byte, error) {
	if width < 8 {
		limit := int64(1) << (uint(width)*8 - 1)
		if v < -limit || v >= limit {
			return buf, fmt.Errorf("%w: %d does not fit in %d byte(s)", ErrOutOfRange, v, width)
		}
	}

	u := uint64(v)
	for i := 0; i < width && i < 8; i++ {
		buf = append(buf, byte(u>>(8*i)))
	}
	// Wider than int64: sign-extend.
	ext := byte(0x00)
	if v < 0 {
		ext = 0xff
	}
	for i := 8; i < width; i++ {
		buf = append(buf, ext)
	}
	return buf, nil
}

func appendText(buf []byte, s string, width int) ([]byte, error) {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return buf, fmt.Errorf("%w: %q", ErrNonASCII, s)
		}
	}
	if len(s) >= width {
		return append(buf, s[:width]...), nil
	}
	buf = append(buf, s...)
	for i := len(s); i < width; i++ {
		buf = append(buf, 0)
	}
	return buf, nil
}
