package protocol

import (
	"fmt"
	"strings"
)

// DefaultBaseTopic is the first topic segment for every vehicle.
const DefaultBaseTopic = "bike"

// Channel is the last topic segment and selects the message type.
type Channel string

const (
	ChannelCmd       Channel = "cmd"
	ChannelStatus    Channel = "status"
	ChannelTelemetry Channel = "telemetry"
	ChannelLocation  Channel = "location"
	ChannelEvent     Channel = "event"
)

// Channels lists every channel, inbound first.
var Channels = []Channel{ChannelCmd, ChannelStatus, ChannelTelemetry, ChannelLocation, ChannelEvent}

// QoS returns the delivery level used on ch. Events are sent exactly once,
// everything else at most once.
func (ch Channel) QoS() byte {
	if ch == ChannelEvent {
		return 2
	}
	return 0
}

// ParseChannel validates a channel name.
func ParseChannel(s string) (Channel, error) {
	for _, ch := range Channels {
		if string(ch) == s {
			return ch, nil
		}
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

// Topic builds "<base>/<vehicleID>/<channel>".
func Topic(base, vehicleID string, ch Channel) string {
	return base + "/" + vehicleID + "/" + string(ch)
}

// ParseTopic splits a topic built by Topic. It requires exactly three
// non-empty segments.
func ParseTopic(topic string) (base, vehicleID string, ch Channel, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("topic %q is not <base>/<id>/<channel>", topic)
	}
	ch, err = ParseChannel(parts[2])
	if err != nil {
		return "", "", "", err
	}
	return parts[0], parts[1], ch, nil
}
