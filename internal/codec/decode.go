package codec

import (
	"encoding/binary"
	"fmt"
)

// CommandSize is the length of an inbound command payload: a 2 byte field
// identifier followed by a 2 byte value, both little-endian unsigned.
const CommandSize = 4

// Command is a decoded inbound command.
type Command struct {
	FieldID uint16
	Value   uint16
}

// DecodeCommand reads the field identifier from bytes [0,2) and the value
// from bytes [2,4). Trailing bytes are ignored.
func DecodeCommand(payload []byte) (Command, error) {
	if len(payload) < CommandSize {
		return Command{}, fmt.Errorf("%w: command needs %d bytes, got %d", ErrShortPayload, CommandSize, len(payload))
	}
	return Command{
		FieldID: binary.LittleEndian.Uint16(payload[0:2]),
		Value:   binary.LittleEndian.Uint16(payload[2:4]),
	}, nil
}

// EncodeCommand is the inverse of DecodeCommand.
func EncodeCommand(c Command) []byte {
	b := make([]byte, 0, CommandSize)
	b = binary.LittleEndian.AppendUint16(b, c.FieldID)
	return binary.LittleEndian.AppendUint16(b, c.Value)
}

// decodeInt reads a little-endian two's-complement integer of any width.
// Widths beyond 8 bytes keep the low 8 bytes.
func decodeInt(b []byte) int64 {
	var u uint64
	n := len(b)
	if n > 8 {
		n = 8
	}
	for i := 0; i < n; i++ {
		u |= uint64(b[i]) << (8 * i)
	}
	if n < 8 && b[n-1]&0x80 != 0 {
		u |= ^uint64(0) << (8 * n)
	}
	return int64(u)
}
