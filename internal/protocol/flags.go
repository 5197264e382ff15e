// Package protocol holds the fixed tables shared by the device and the
// backend: control flag identifiers, message layouts, topics and QoS.
package protocol

import (
	"errors"
	"fmt"
)

// ErrUnknownField is returned for command field identifiers outside the
// table.
var ErrUnknownField = errors.New("unknown field id")

// Flag names one slot of the vehicle status record.
type Flag string

// FlagMode is the operating mode. It is not addressable by commands; the
// unit picks a new one every time it applies a command.
const FlagMode Flag = "mode"

// Control flags, in field identifier order.
const (
	FlagLocked          Flag = "locked"
	FlagTrunkLocked     Flag = "trunk_locked"
	FlagHorn            Flag = "horn"
	FlagAnswerBack      Flag = "answareback" // spelled as on the wire
	FlagHeadlight       Flag = "headlight"
	FlagRearLight       Flag = "rear_light"
	FlagTurnLight       Flag = "turn_light"
	FlagPushNotify      Flag = "push_notify"
	FlagBattAlerts      Flag = "batt_alerts"
	FlagSecurityAlerts  Flag = "security_alerts"
	FlagAutoLock        Flag = "auto_lock"
	FlagBluetoothUnlock Flag = "bluetooth_unlock"
	FlagRemoteAccess    Flag = "remote_access"
)

// fieldIDs maps command field identifiers to the flag they set. The table
// is closed: identifiers outside it are rejected.
var fieldIDs = map[uint16]Flag{
	1:  FlagLocked,
	2:  FlagTrunkLocked,
	3:  FlagHorn,
	4:  FlagAnswerBack,
	5:  FlagHeadlight,
	6:  FlagRearLight,
	7:  FlagTurnLight,
	8:  FlagPushNotify,
	9:  FlagBattAlerts,
	10: FlagSecurityAlerts,
	11: FlagAutoLock,
	12: FlagBluetoothUnlock,
	13: FlagRemoteAccess,
}

var controlFlags = []Flag{
	FlagLocked,
	FlagTrunkLocked,
	FlagHorn,
	FlagAnswerBack,
	FlagHeadlight,
	FlagRearLight,
	FlagTurnLight,
	FlagPushNotify,
	FlagBattAlerts,
	FlagSecurityAlerts,
	FlagAutoLock,
	FlagBluetoothUnlock,
	FlagRemoteAccess,
}

// ControlFlags returns the command addressable flags in identifier order.
func ControlFlags() []Flag {
	return append([]Flag(nil), controlFlags...)
}

// StatusFlags is every slot of the status record: mode first, then the
// control flags.
func StatusFlags() []Flag {
	return append([]Flag{FlagMode}, controlFlags...)
}

// LookupField resolves a command field identifier.
func LookupField(id uint16) (Flag, error) {
	f, ok := fieldIDs[id]
	if !ok {
		return "", fmt.Errorf("%w %d", ErrUnknownField, id)
	}
	return f, nil
}

// IsStatusFlag reports whether name is a slot of the status record.
func IsStatusFlag(name string) bool {
	if Flag(name) == FlagMode {
		return true
	}
	for _, f := range controlFlags {
		if string(f) == name {
			return true
		}
	}
	return false
}
