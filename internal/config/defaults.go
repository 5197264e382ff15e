package config

import "time"

// Central place for all application-wide timing constants and other defaults.
// Changing a value here immediately affects all components that import
// github.com/jkaberg/ebike-sim/internal/config.

const (
	// Publish cycle
	DefaultPublishInterval = 1 * time.Second

	// Operation time-outs (to avoid blocking goroutines)
	MQTTTimeout      = 5 * time.Second // MQTT publish / subscribe
	BootstrapTimeout = 3 * time.Second // Backend state GET
	RegisterTimeout  = 5 * time.Second // Backend registration POST

	// Shutdown
	MQTTQuiesce       = 250 // ms granted to in-flight work on disconnect
	AdminShutdownWait = 5 * time.Second

	// Registration defaults
	DefaultModel           = "E-Bike"
	DefaultColor           = "White"
	DefaultBatteryVoltage  = 48
	DefaultBatteryCapacity = 26
	DefaultMaxRange        = 100
)
