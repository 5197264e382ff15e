// Package command applies inbound control commands to the vehicle status
// store and republishes the resulting status record.
package command

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/jkaberg/ebike-sim/internal/codec"
	"github.com/jkaberg/ebike-sim/internal/metrics"
	"github.com/jkaberg/ebike-sim/internal/protocol"
	"github.com/jkaberg/ebike-sim/internal/transmission"
	"github.com/jkaberg/ebike-sim/internal/vehicle"
)

var (
	ErrUnknownField = protocol.ErrUnknownField
	ErrBadTopic     = errors.New("not a command topic")
)

// Outcome labels for the commands counter.
const (
	OutcomeApplied      = "applied"
	OutcomeUnknownField = "unknown_field"
	OutcomeShortPayload = "short_payload"
	OutcomeBadTopic     = "bad_topic"
	OutcomeFailed       = "failed"
)

// ModeSource picks the operating mode reported after a command.
type ModeSource func() int

// RandomMode returns a mode in [0,2] from the global generator.
func RandomMode() int { return rand.IntN(3) }

type Handler struct {
	store   *vehicle.Store
	tx      transmission.Transmitter
	logger  *logrus.Logger
	metrics *metrics.Metrics
	mode    ModeSource
}

// NewHandler wires a handler. m may be nil; a nil mode uses RandomMode.
func NewHandler(store *vehicle.Store, tx transmission.Transmitter, logger *logrus.Logger, m *metrics.Metrics, mode ModeSource) *Handler {
	if mode == nil {
		mode = RandomMode
	}
	return &Handler{
		store:   store,
		tx:      tx,
		logger:  logger,
		metrics: m,
		mode:    mode,
	}
}

// Apply decodes payload, sets the addressed flag on the vehicle's record,
// rolls a new mode and publishes the full record on the status channel.
// The vehicle's record stays locked until the publish returns.
func (h *Handler) Apply(ctx context.Context, vehicleID string, payload []byte) error {
	cmd, err := codec.DecodeCommand(payload)
	if err != nil {
		return err
	}
	flag, err := protocol.LookupField(cmd.FieldID)
	if err != nil {
		return err
	}

	return h.store.Update(vehicleID, func(s vehicle.Status) error {
		s[flag] = int(cmd.Value)
		s[protocol.FlagMode] = h.mode()

		h.logger.WithFields(logrus.Fields{
			"vehicle": vehicleID,
			"flag":    flag,
			"value":   cmd.Value,
			"mode":    s[protocol.FlagMode],
		}).Info("Applied command")

		entries := protocol.StatusSchema.Bind(s.Values())
		return h.tx.Send(ctx, vehicleID, protocol.ChannelStatus, entries)
	})
}

// HandleMessage is the transport callback for "<base>/<id>/cmd". Failures
// are logged and counted, never returned.
func (h *Handler) HandleMessage(topic string, payload []byte) {
	log := h.logger.WithField("topic", topic)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Command handler panicked")
			h.metrics.ObserveCommand(OutcomeFailed)
		}
	}()

	_, vehicleID, ch, err := protocol.ParseTopic(topic)
	if err == nil && ch != protocol.ChannelCmd {
		err = fmt.Errorf("channel %s", ch)
	}
	if err != nil {
		log.WithError(fmt.Errorf("%w: %v", ErrBadTopic, err)).Warn("Dropping message")
		h.metrics.ObserveCommand(OutcomeBadTopic)
		return
	}

	err = h.Apply(context.Background(), vehicleID, payload)
	outcome := classify(err)
	h.metrics.ObserveCommand(outcome)
	if err != nil {
		log.WithFields(logrus.Fields{
			"vehicle": vehicleID,
			"payload": fmt.Sprintf("% x", payload),
		}).WithError(err).Warn("Command not applied")
	}
}

func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, ErrUnknownField):
		return OutcomeUnknownField
	case errors.Is(err, codec.ErrShortPayload):
		return OutcomeShortPayload
	default:
		return OutcomeFailed
	}
}
