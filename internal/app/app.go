package app

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jkaberg/ebike-sim/internal/admin"
	"github.com/jkaberg/ebike-sim/internal/backend"
	"github.com/jkaberg/ebike-sim/internal/codec"
	"github.com/jkaberg/ebike-sim/internal/command"
	"github.com/jkaberg/ebike-sim/internal/config"
	"github.com/jkaberg/ebike-sim/internal/metrics"
	"github.com/jkaberg/ebike-sim/internal/mqtt"
	"github.com/jkaberg/ebike-sim/internal/protocol"
	"github.com/jkaberg/ebike-sim/internal/telemetry"
	"github.com/jkaberg/ebike-sim/internal/transmission"
	"github.com/jkaberg/ebike-sim/internal/vehicle"
)

// Subscriber is the inbound half of the MQTT client.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Run prepares every vehicle, subscribes to their command topics and then
// publishes telemetry, location and event records each cycle until ctx is
// cancelled. backendClient and m may be nil.
func Run(
	ctx context.Context,
	cfg *config.Config,
	sub Subscriber,
	tx transmission.Transmitter,
	backendClient *backend.Client,
	m *metrics.Metrics,
	logger *logrus.Logger,
) error {
	store := vehicle.NewStore()
	for _, id := range cfg.Vehicles {
		store.Init(id, nil)
	}
	m.SetVehicles(store.Len())

	if backendClient != nil {
		bootstrap(ctx, cfg.Vehicles, store, backendClient, logger)
		register(ctx, cfg.Vehicles, backendClient, logger)
	}

	handler := command.NewHandler(store, tx, logger, m, nil)
	for _, id := range cfg.Vehicles {
		topic := protocol.Topic(cfg.BaseTopic, id, protocol.ChannelCmd)
		if err := sub.Subscribe(topic, protocol.ChannelCmd.QoS(), handler.HandleMessage); err != nil {
			// Replayed on the next reconnect.
			logger.WithError(err).WithField("topic", topic).Warn("Subscribe failed")
		}
	}

	grp, ctx := errgroup.WithContext(ctx)

	// Publisher -----------------------------------------------------------
	grp.Go(func() error {
		return publishLoop(ctx, cfg, newGenerators(cfg), tx, logger)
	})

	// Admin API -----------------------------------------------------------
	if cfg.HasAdmin() {
		srv := admin.NewServer(cfg.AdminAddr, admin.NewRouter(store, m, tx.IsConnected, logger), logger)
		grp.Go(func() error {
			return srv.ListenAndRun(ctx)
		})
	}

	logger.WithFields(logrus.Fields{
		"vehicles": cfg.Vehicles,
		"interval": cfg.Interval,
	}).Info("Simulator running")

	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// bootstrap overlays the backend's stored state on the default records.
// Failures leave the defaults in place.
func bootstrap(ctx context.Context, ids []string, store *vehicle.Store, c *backend.Client, logger *logrus.Logger) {
	for _, id := range ids {
		state, err := c.Bootstrap(ctx, id)
		if err != nil {
			logger.WithError(err).WithField("vehicle", id).Warn("Bootstrap failed, using defaults")
			continue
		}
		store.Init(id, state)
		logger.WithField("vehicle", id).Info("Loaded state from backend")
	}
}

func register(ctx context.Context, ids []string, c *backend.Client, logger *logrus.Logger) {
	for _, id := range ids {
		resp, err := c.Register(ctx, backend.NewRegistration(id))
		if err != nil {
			logger.WithError(err).WithField("vehicle", id).Warn("Registration failed")
			continue
		}
		logger.WithFields(logrus.Fields{
			"vehicle":  id,
			"response": string(resp),
		}).Info("Vehicle registered")
	}
}

type vehicleGenerator struct {
	id  string
	gen *telemetry.Generator
}

// newGenerators gives every vehicle its own generator. A non-zero seed makes
// the streams reproducible.
func newGenerators(cfg *config.Config) []vehicleGenerator {
	gens := make([]vehicleGenerator, 0, len(cfg.Vehicles))
	for i, id := range cfg.Vehicles {
		var src rand.Source
		if cfg.Seed != 0 {
			src = rand.NewPCG(cfg.Seed, uint64(i))
		}
		gens = append(gens, vehicleGenerator{id: id, gen: telemetry.NewGenerator(src)})
	}
	return gens
}

func publishLoop(ctx context.Context, cfg *config.Config, gens []vehicleGenerator, tx transmission.Transmitter, logger *logrus.Logger) error {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		if err := publishCycle(ctx, gens, tx, logger); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// publishCycle sends one telemetry, location and event record per vehicle.
// Cancellation is only observed between publishes; a publish that has
// started runs to completion.
func publishCycle(ctx context.Context, gens []vehicleGenerator, tx transmission.Transmitter, logger *logrus.Logger) error {
	for _, vg := range gens {
		msgs := []struct {
			ch      protocol.Channel
			entries []codec.Entry
		}{
			{protocol.ChannelTelemetry, vg.gen.Telemetry()},
			{protocol.ChannelLocation, vg.gen.Location()},
			{protocol.ChannelEvent, vg.gen.Event()},
		}
		for _, msg := range msgs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tx.Send(context.WithoutCancel(ctx), vg.id, msg.ch, msg.entries); err != nil {
				logger.WithError(err).WithField("vehicle", vg.id).Warn("Publish failed")
			}
		}
	}
	return nil
}
