package codec

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedKey    = errors.New("malformed field key")
	ErrOutOfRange      = errors.New("integer out of range for field width")
	ErrFloatWidth      = errors.New("float fields must be 4 bytes wide")
	ErrUnsupportedKind = errors.New("unsupported value kind")
	ErrNonASCII        = errors.New("text is not ASCII")
	ErrShortPayload    = errors.New("payload too short")
)

// FieldError reports why a single field was left out of an encoded payload.
type FieldError struct {
	Key string
	Err error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Key, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
