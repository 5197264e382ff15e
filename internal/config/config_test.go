package config

import (
	"reflect"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := GetDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"mqtts", func(c *Config) { c.MQTTUrl = "mqtts://broker:8883" }, true},
		{"ws", func(c *Config) { c.MQTTUrl = "ws://broker/mqtt" }, true},
		{"tcp", func(c *Config) { c.MQTTUrl = "tcp://127.0.0.1:1883" }, true},
		{"no backend", func(c *Config) { c.BackendURL = "" }, true},
		{"http scheme for broker", func(c *Config) { c.MQTTUrl = "http://broker" }, false},
		{"empty broker", func(c *Config) { c.MQTTUrl = "" }, false},
		{"wildcard base", func(c *Config) { c.BaseTopic = "bike/#" }, false},
		{"empty base", func(c *Config) { c.BaseTopic = "" }, false},
		{"no vehicles", func(c *Config) { c.Vehicles = nil }, false},
		{"bad vehicle", func(c *Config) { c.Vehicles = []string{"a/b"} }, false},
		{"zero interval", func(c *Config) { c.Interval = 0 }, false},
		{"bad backend", func(c *Config) { c.BackendURL = "localhost:3000" }, false},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := GetDefaultConfig()
			tc.mutate(c)
			err := c.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseVehicleIDs(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{nil, []string{"1"}},
		{[]string{""}, []string{"1"}},
		{[]string{"1,2,3"}, []string{"1", "2", "3"}},
		{[]string{" 4 , ,5,4"}, []string{"4", "5"}},
		{[]string{"7", "8,7"}, []string{"7", "8"}},
	}
	for _, tc := range cases {
		if got := ParseVehicleIDs(tc.in...); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseVehicleIDs(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
