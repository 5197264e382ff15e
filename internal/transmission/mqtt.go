package transmission

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jkaberg/ebike-sim/internal/codec"
	"github.com/jkaberg/ebike-sim/internal/metrics"
	"github.com/jkaberg/ebike-sim/internal/protocol"
)

// MQTTTransmitter encodes entries with the field codec and publishes them on
// the vehicle's channel topic.
type MQTTTransmitter struct {
	client    Publisher
	baseTopic string
	logger    *logrus.Logger
	metrics   *metrics.Metrics
}

// NewMQTTTransmitter creates a new MQTT transmitter. m may be nil.
func NewMQTTTransmitter(client Publisher, baseTopic string, logger *logrus.Logger, m *metrics.Metrics) *MQTTTransmitter {
	return &MQTTTransmitter{
		client:    client,
		baseTopic: baseTopic,
		logger:    logger,
		metrics:   m,
	}
}

// Send encodes entries and publishes the result. Fields the codec rejects are
// logged and left out; whatever did encode is still published.
func (t *MQTTTransmitter) Send(ctx context.Context, vehicleID string, ch protocol.Channel, entries []codec.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, fieldErrs := codec.Encode(entries)
	for _, fe := range fieldErrs {
		t.logger.WithFields(logrus.Fields{
			"vehicle": vehicleID,
			"channel": ch,
			"field":   fe.Key,
		}).WithError(fe.Err).Warn("Field left out of payload")
	}
	t.metrics.AddFieldErrors(string(ch), len(fieldErrs))

	topic := protocol.Topic(t.baseTopic, vehicleID, ch)
	start := time.Now()
	err := t.client.Publish(topic, ch.QoS(), false, payload)
	t.metrics.ObservePublish(string(ch), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("publish %s for vehicle %s: %w", ch, vehicleID, err)
	}

	t.logger.WithFields(logrus.Fields{
		"vehicle": vehicleID,
		"channel": ch,
		"bytes":   len(payload),
	}).Debug("Sent message")
	return nil
}

// IsConnected reports whether the underlying client is connected.
func (t *MQTTTransmitter) IsConnected() bool {
	return t.client.IsConnected()
}

// BaseTopic returns the first topic segment used for every vehicle.
func (t *MQTTTransmitter) BaseTopic() string { return t.baseTopic }
