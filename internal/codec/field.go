package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// Field describes one slot of a payload: its name, how many bytes it takes on
// the wire and what kind of value normally goes there.
type Field struct {
	Name  string
	Width int
	Kind  Kind
}

// Key renders the field in the "<name>_<width>" form used on the wire side.
func (f Field) Key() string {
	return f.Name + "_" + strconv.Itoa(f.Width)
}

// Entry binds f to v.
func (f Field) Entry(v Value) Entry {
	return Entry{Key: f.Key(), Value: v}
}

func (f Field) validate() error {
	if f.Name == "" {
		return fmt.Errorf("%w: empty name", ErrMalformedKey)
	}
	if f.Width <= 0 {
		return fmt.Errorf("%w: %s has non-positive width %d", ErrMalformedKey, f.Name, f.Width)
	}
	switch f.Kind {
	case KindInt, KindText:
	case KindFloat:
		if f.Width != 4 {
			return fmt.Errorf("%s: %w", f.Name, ErrFloatWidth)
		}
	default:
		return fmt.Errorf("%s: %w %s", f.Name, ErrUnsupportedKind, f.Kind)
	}
	return nil
}

// Entry is one (key, value) pair of a payload. Payloads are ordered slices
// of entries because the layout is positional.
type Entry struct {
	Key   string
	Value Value
}

// ParseKey splits a "<name>_<width>" key on its last underscore. Names may
// contain underscores themselves ("trunk_locked_1").
func ParseKey(key string) (name string, width int, err error) {
	i := strings.LastIndexByte(key, '_')
	if i <= 0 || i == len(key)-1 {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	suffix := key[i+1:]
	if strings.TrimLeft(suffix, "0123456789") != "" {
		return "", 0, fmt.Errorf("%w: %q has a non-numeric width", ErrMalformedKey, key)
	}
	width, err = strconv.Atoi(suffix)
	if err != nil || width <= 0 {
		return "", 0, fmt.Errorf("%w: %q has no positive width", ErrMalformedKey, key)
	}
	return key[:i], width, nil
}
