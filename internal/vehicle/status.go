// Package vehicle keeps the in-memory status record of every simulated unit.
package vehicle

import (
	"github.com/jkaberg/ebike-sim/internal/codec"
	"github.com/jkaberg/ebike-sim/internal/protocol"
)

// Status is the control record of one vehicle: mode plus the 13 control
// flags. Flags never set read as 0.
type Status map[protocol.Flag]int

// DefaultStatus returns a record with every slot present and zero.
func DefaultStatus() Status {
	s := make(Status, len(protocol.StatusFlags()))
	for _, f := range protocol.StatusFlags() {
		s[f] = 0
	}
	return s
}

// Clone returns an independent copy of s.
func (s Status) Clone() Status {
	out := make(Status, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge copies the known slots of values into s and returns how many were
// taken. Unknown names are ignored.
func (s Status) Merge(values map[string]int) int {
	n := 0
	for name, v := range values {
		if !protocol.IsStatusFlag(name) {
			continue
		}
		s[protocol.Flag(name)] = v
		n++
	}
	return n
}

// Values renders s for protocol.StatusSchema.
func (s Status) Values() map[string]codec.Value {
	out := make(map[string]codec.Value, len(s))
	for k, v := range s {
		out[string(k)] = codec.Int(int64(v))
	}
	return out
}

// Map returns s keyed by plain strings, for JSON.
func (s Status) Map() map[string]int {
	out := make(map[string]int, len(s))
	for k, v := range s {
		out[string(k)] = v
	}
	return out
}
