package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds all configuration options for the simulator
type Config struct {
	// MQTT Configuration
	MQTTUrl   string `mapstructure:"mqtt_url" json:"mqtt_url"`     // Broker URL (ws, wss, mqtt, mqtts, tcp)
	ClientID  string `mapstructure:"client_id" json:"client_id"`   // MQTT client id, generated when empty
	BaseTopic string `mapstructure:"base_topic" json:"base_topic"` // First topic segment

	// Fleet Configuration
	Vehicles []string      `mapstructure:"vehicles" json:"vehicles"` // Simulated vehicle ids
	Interval time.Duration `mapstructure:"interval" json:"interval"` // Publish cycle
	Seed     uint64        `mapstructure:"seed" json:"seed"`         // Generator seed, 0 for random

	// Backend Configuration
	BackendURL string `mapstructure:"backend_url" json:"backend_url"` // Empty disables bootstrap and registration

	// Application Configuration
	Verbose        bool   `mapstructure:"verbose" json:"verbose"`
	LogFormat      string `mapstructure:"log_format" json:"log_format"`           // text or json
	AdminAddr      string `mapstructure:"admin_addr" json:"admin_addr"`           // Empty disables the admin server
	EmbeddedBroker string `mapstructure:"embedded_broker" json:"embedded_broker"` // Listen address, empty disables
}

// GetDefaultConfig returns a configuration with sensible defaults
func GetDefaultConfig() *Config {
	return &Config{
		MQTTUrl:    "mqtt://localhost:1883",
		BaseTopic:  "bike",
		Vehicles:   []string{"1"},
		Interval:   DefaultPublishInterval,
		BackendURL: "http://localhost:3000",
		LogFormat:  "text",
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.MQTTUrl == "" {
		return fmt.Errorf("MQTT URL is required")
	}
	u, err := url.Parse(c.MQTTUrl)
	if err != nil {
		return fmt.Errorf("invalid MQTT URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "mqtt", "mqtts", "tcp":
	default:
		return fmt.Errorf("MQTT URL must use supported protocol (ws://, wss://, mqtt://, mqtts:// or tcp://)")
	}

	if c.BaseTopic == "" || strings.ContainsAny(c.BaseTopic, "/+#") {
		return fmt.Errorf("base topic %q must be a single topic level without wildcards", c.BaseTopic)
	}

	if len(c.Vehicles) == 0 {
		return fmt.Errorf("at least one vehicle id is required")
	}
	for _, id := range c.Vehicles {
		if id == "" || strings.ContainsAny(id, "/+#") {
			return fmt.Errorf("vehicle id %q is not a valid topic level", id)
		}
	}

	if c.Interval <= 0 {
		return fmt.Errorf("publish interval must be positive, got %s", c.Interval)
	}

	if c.BackendURL != "" {
		u, err := url.Parse(c.BackendURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("backend URL %q must be an http(s) URL", c.BackendURL)
		}
	}

	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}

	return nil
}

// HasBackend returns true if backend bootstrap and registration are enabled
func (c *Config) HasBackend() bool {
	return c.BackendURL != ""
}

// HasAdmin returns true if the admin HTTP server is enabled
func (c *Config) HasAdmin() bool {
	return c.AdminAddr != ""
}

// ParseVehicleIDs splits a comma separated id list. Blank items are
// dropped, duplicates keep their first position. An empty result falls back
// to the single vehicle "1".
func ParseVehicleIDs(raw ...string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			id := strings.TrimSpace(part)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []string{"1"}
	}
	return ids
}
