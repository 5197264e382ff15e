package protocol

import "github.com/jkaberg/ebike-sim/internal/codec"

func intField(name string, width int) codec.Field {
	return codec.Field{Name: name, Width: width, Kind: codec.KindInt}
}

// StatusSchema is the status record layout: mode as 2 bytes, then every
// control flag as 1 byte in identifier order. 15 bytes total.
var StatusSchema = func() *codec.Schema {
	fields := []codec.Field{intField(string(FlagMode), 2)}
	for _, f := range controlFlags {
		fields = append(fields, intField(string(f), 1))
	}
	return codec.MustSchema("status", fields...)
}()

// TelemetrySchema is the periodic telemetry layout.
var TelemetrySchema = codec.MustSchema("telemetry",
	intField("speed", 2),
	intField("odo", 4),
	intField("trip", 4),
	intField("rangeleft", 2),
	intField("voltage", 2),
	intField("current", 2),
	intField("soc", 2),
	intField("temperature", 2),
	intField("tiltangle", 2),
	intField("hillassistance", 1),
)

// LocationSchema carries coordinates as degrees scaled by CoordScale.
var LocationSchema = codec.MustSchema("location",
	intField("lat", 4),
	intField("lon", 4),
	intField("heading", 2),
)

// EventSchema is the event layout. eventvalue is ASCII text.
var EventSchema = codec.MustSchema("event",
	intField("eventname", 4),
	intField("eventtype", 2),
	codec.Field{Name: "eventvalue", Width: 10, Kind: codec.KindText},
)

// CoordScale converts degrees to the fixed point integers on the wire.
const CoordScale = 1e7

// Event severities carried in eventtype.
const (
	SeverityInfo    = 0
	SeverityWarning = 1
	SeverityError   = 2
)

// SchemaFor returns the layout published on ch. cmd has no schema; commands
// use codec.DecodeCommand.
func SchemaFor(ch Channel) (*codec.Schema, bool) {
	switch ch {
	case ChannelStatus:
		return StatusSchema, true
	case ChannelTelemetry:
		return TelemetrySchema, true
	case ChannelLocation:
		return LocationSchema, true
	case ChannelEvent:
		return EventSchema, true
	default:
		return nil, false
	}
}

// EventNames labels the eventname codes the backend knows about.
var EventNames = map[int]string{
	0:  "none",
	1:  "theft",
	2:  "crash",
	3:  "overtemp",
	11: "low_soc",
	12: "dtc",
	21: "lock_on",
	22: "lock_off",
	23: "trunk_lock",
	24: "horn",
	25: "vehicle_parked",
	26: "vehicle_stand",
	27: "vehicle_reverse",
}

// EventSeverity classifies an eventname code: 1..9 are errors, 11 and 12
// warnings, anything else informational.
func EventSeverity(name int) int {
	switch {
	case name >= 1 && name <= 9:
		return SeverityError
	case name == 11 || name == 12:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
