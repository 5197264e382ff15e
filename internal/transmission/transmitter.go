package transmission

import (
	"context"

	"github.com/jkaberg/ebike-sim/internal/codec"
	"github.com/jkaberg/ebike-sim/internal/protocol"
)

// Publisher is the part of the MQTT client a transmitter needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	IsConnected() bool
}

// Transmitter sends one encoded message for one vehicle.
type Transmitter interface {
	Send(ctx context.Context, vehicleID string, ch protocol.Channel, entries []codec.Entry) error
	IsConnected() bool
}
