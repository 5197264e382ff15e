package broker

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jkaberg/ebike-sim/internal/config"
	"github.com/jkaberg/ebike-sim/internal/mqtt"
)

// freeAddr returns a loopback address with a port nobody is listening on.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestBrokerInlinePubSub(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	addr := freeAddr(t)
	b, err := New(addr, logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if b.URL() != "mqtt://"+addr {
		t.Errorf("URL = %q", b.URL())
	}

	got := make(chan []byte, 1)
	if err := b.Subscribe("bike/+/status", 1, func(topic string, payload []byte) {
		if topic == "bike/1/status" {
			got <- payload
		}
	}); err != nil {
		t.Fatal(err)
	}
	if err := b.Publish("bike/1/status", []byte{1, 2, 3}, 0); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-got:
		if len(p) != 3 {
			t.Errorf("payload = % x", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
}

func TestBrokerServesTCPClients(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	b, err := New(freeAddr(t), logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	got := make(chan []byte, 1)
	if err := b.Subscribe("bike/+/event", 2, func(topic string, payload []byte) {
		if topic == "bike/3/event" {
			got <- payload
		}
	}); err != nil {
		t.Fatal(err)
	}

	client, err := mqtt.NewClient(b.URL(), "", logger)
	if err != nil {
		t.Fatal(err)
	}
	// The client must be gone before the deferred Close tears down listeners.
	defer client.Disconnect(config.MQTTQuiesce)

	deadline := time.Now().Add(5 * time.Second)
	for !client.IsConnected() {
		if time.Now().After(deadline) {
			t.Fatal("client never connected")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := client.Publish("bike/3/event", 2, false, []byte{9, 8}); err != nil {
		t.Fatal(err)
	}
	select {
	case p := <-got:
		if len(p) != 2 || p[0] != 9 {
			t.Errorf("payload = % x", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
}
