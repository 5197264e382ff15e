// Package broker runs an in-process MQTT broker so the simulator can be used
// without external infrastructure.
package broker

import (
	"fmt"
	"log/slog"

	mqttbroker "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/sirupsen/logrus"
)

// Broker is an embedded MQTT broker with a single TCP listener and no
// authentication.
type Broker struct {
	server *mqttbroker.Server
	addr   string
	logger *logrus.Logger
}

// New prepares a broker listening on addr (host:port).
func New(addr string, logger *logrus.Logger) (*Broker, error) {
	// mochi logs through slog; route it into our logger's output.
	sl := slog.New(slog.NewTextHandler(logger.WriterLevel(logrus.WarnLevel), &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})).With(slog.String("component", "mqtt-broker"))

	server := mqttbroker.New(&mqttbroker.Options{
		Logger:       sl,
		InlineClient: true,
	})

	tcp := listeners.NewTCP(listeners.Config{ID: "tcp", Address: addr})
	if err := server.AddListener(tcp); err != nil {
		return nil, fmt.Errorf("failed to add broker listener: %w", err)
	}
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("failed to add broker auth hook: %w", err)
	}

	return &Broker{server: server, addr: addr, logger: logger}, nil
}

// Start begins accepting connections. It returns once the listener is up.
func (b *Broker) Start() error {
	if err := b.server.Serve(); err != nil {
		return fmt.Errorf("failed to start embedded broker: %w", err)
	}
	b.logger.WithField("addr", b.addr).Info("Embedded MQTT broker listening")
	return nil
}

// URL is the address clients should connect to.
func (b *Broker) URL() string {
	return "mqtt://" + b.addr
}

// Subscribe attaches fn to filter through the broker's inline client.
func (b *Broker) Subscribe(filter string, id int, fn func(topic string, payload []byte)) error {
	return b.server.Subscribe(filter, id, func(_ *mqttbroker.Client, _ packets.Subscription, pk packets.Packet) {
		fn(pk.TopicName, pk.Payload)
	})
}

// Publish injects a message through the broker's inline client.
func (b *Broker) Publish(topic string, payload []byte, qos byte) error {
	return b.server.Publish(topic, payload, false, qos)
}

func (b *Broker) Close() error {
	return b.server.Close()
}
