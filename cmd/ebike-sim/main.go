package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jkaberg/ebike-sim/internal/app"
	"github.com/jkaberg/ebike-sim/internal/backend"
	"github.com/jkaberg/ebike-sim/internal/broker"
	"github.com/jkaberg/ebike-sim/internal/config"
	"github.com/jkaberg/ebike-sim/internal/metrics"
	"github.com/jkaberg/ebike-sim/internal/mqtt"
	"github.com/jkaberg/ebike-sim/internal/netutil"
	"github.com/jkaberg/ebike-sim/internal/transmission"
)

// version is injected at build time via ldflags
var version = "dev"

const envPrefix = "EBIKE_SIM"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "ebike-sim [vehicle-ids]",
		Short: "Simulate a fleet of e-bike telemetry units over MQTT",
		Long: "ebike-sim publishes synthetic telemetry, location and event messages for every\n" +
			"vehicle and answers control commands on <base>/<id>/cmd with a status message.\n\n" +
			"Vehicle ids are given as a comma separated list, e.g. \"ebike-sim 1,2,3\".",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, configFile, args)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			logger := setupLogger(cfg.Verbose, cfg.LogFormat)
			if err := run(cmd.Context(), cfg, logger); err != nil {
				logger.WithError(err).Error("Simulator failed")
				return err
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&configFile, "config", "", "Optional config file (yaml, json or toml)")
	addFlags(fs, config.GetDefaultConfig())
	bindFlags(v, fs)

	cmd.AddCommand(newSchemaCommand(), newVersionCommand())
	return cmd
}

// bindFlags maps every flag except --config onto its config key
// (mqtt-url -> mqtt_url) and enables EBIKE_SIM_* environment overrides.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
}

func addFlags(fs *pflag.FlagSet, def *config.Config) {
	fs.String("mqtt-url", def.MQTTUrl, "MQTT broker URL (mqtt://, mqtts://, tcp://, ws://, wss://)")
	fs.String("client-id", def.ClientID, "MQTT client id (generated when empty)")
	fs.String("base-topic", def.BaseTopic, "First topic segment")
	fs.StringSlice("vehicles", def.Vehicles, "Vehicle ids to simulate")
	fs.Duration("interval", def.Interval, "Publish interval")
	fs.Uint64("seed", def.Seed, "Seed for the data generators (0 = random)")
	fs.String("backend-url", def.BackendURL, "Fleet backend base URL (empty disables bootstrap and registration)")
	fs.BoolP("verbose", "v", def.Verbose, "Verbose logging")
	fs.String("log-format", def.LogFormat, "Log format: text or json")
	fs.String("admin-addr", def.AdminAddr, "Listen address for the admin API (empty disables)")
	fs.String("embedded-broker", def.EmbeddedBroker, "Run an in-process MQTT broker on this address and connect to it")
}

func loadConfig(v *viper.Viper, configFile string, args []string) (*config.Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := config.GetDefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if len(args) > 0 {
		cfg.Vehicles = config.ParseVehicleIDs(args[0])
	} else {
		cfg.Vehicles = config.ParseVehicleIDs(cfg.Vehicles...)
	}

	if cfg.EmbeddedBroker != "" {
		cfg.MQTTUrl = "mqtt://" + cfg.EmbeddedBroker
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"version":  version,
		"vehicles": cfg.Vehicles,
		"interval": cfg.Interval,
		"base":     cfg.BaseTopic,
	}).Info("Starting ebike-sim")

	if cfg.EmbeddedBroker != "" {
		b, err := broker.New(cfg.EmbeddedBroker, logger)
		if err != nil {
			return err
		}
		if err := b.Start(); err != nil {
			return err
		}
		defer b.Close()
	}

	m := metrics.New()

	mqttClient, err := mqtt.NewClient(cfg.MQTTUrl, cfg.ClientID, logger)
	if err != nil {
		return fmt.Errorf("failed to create MQTT client: %w", err)
	}
	defer mqttClient.Disconnect(config.MQTTQuiesce)
	logger.WithField("client_id", mqttClient.ClientID()).Debug("MQTT client ready")

	tx := transmission.NewMQTTTransmitter(mqttClient, cfg.BaseTopic, logger, m)

	var backendClient *backend.Client
	if cfg.HasBackend() {
		backendClient = backend.NewClient(cfg.BackendURL, "ebike-sim/"+version, netutil.NewHTTPClient(false, logger), logger, m)
	}

	if err := app.Run(ctx, cfg, mqttClient, tx, backendClient, m, logger); err != nil {
		return err
	}
	logger.Info("ebike-sim stopped")
	return nil
}

func setupLogger(verbose bool, format string) *logrus.Logger {
	l := logrus.New()
	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ebike-sim %s\n", version)
		},
	}
}
