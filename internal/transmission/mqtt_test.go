package transmission

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/jkaberg/ebike-sim/internal/codec"
	"github.com/jkaberg/ebike-sim/internal/metrics"
	"github.com/jkaberg/ebike-sim/internal/protocol"
)

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(topic string, qos byte, _ bool, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic: topic, qos: qos, payload: payload})
	return nil
}

func (p *fakePublisher) IsConnected() bool { return true }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSendPublishesOnChannelTopic(t *testing.T) {
	pub := &fakePublisher{}
	tr := NewMQTTTransmitter(pub, "bike", quietLogger(), nil)

	entries := protocol.EventSchema.Bind(map[string]codec.Value{
		"eventname":  codec.Int(3),
		"eventtype":  codec.Int(2),
		"eventvalue": codec.Text("1"),
	})
	if err := tr.Send(context.Background(), "7", protocol.ChannelEvent, entries); err != nil {
		t.Fatal(err)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("published %d messages", len(pub.msgs))
	}
	m := pub.msgs[0]
	if m.topic != "bike/7/event" || m.qos != 2 {
		t.Errorf("topic %q qos %d", m.topic, m.qos)
	}
	want := []byte{3, 0, 0, 0, 2, 0, '1', 0, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(m.payload, want) {
		t.Errorf("payload = % x, want % x", m.payload, want)
	}
}

func TestSendLogsFieldErrorsAndStillPublishes(t *testing.T) {
	pub := &fakePublisher{}
	logger, hook := test.NewNullLogger()
	m := metrics.New()
	tr := NewMQTTTransmitter(pub, "bike", logger, m)

	entries := []codec.Entry{
		{Key: "a_1", Value: codec.Int(1)},
		{Key: "b_1", Value: codec.Int(500)},
	}
	if err := tr.Send(context.Background(), "1", protocol.ChannelTelemetry, entries); err != nil {
		t.Fatal(err)
	}
	if len(pub.msgs) != 1 || !bytes.Equal(pub.msgs[0].payload, []byte{1}) {
		t.Fatalf("published = %+v", pub.msgs)
	}

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["field"] == "b_1" {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a warning naming b_1")
	}
}

func TestSendReturnsPublishError(t *testing.T) {
	boom := errors.New("broker gone")
	tr := NewMQTTTransmitter(&fakePublisher{err: boom}, "bike", quietLogger(), nil)
	err := tr.Send(context.Background(), "1", protocol.ChannelLocation, nil)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestSendHonoursCancelledContext(t *testing.T) {
	pub := &fakePublisher{}
	tr := NewMQTTTransmitter(pub, "bike", quietLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tr.Send(ctx, "1", protocol.ChannelLocation, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Error("nothing should be published")
	}
}
