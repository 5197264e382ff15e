package protocol

import (
	"errors"
	"testing"
)

func TestFieldIDsMatchControlFlags(t *testing.T) {
	if len(fieldIDs) != 13 {
		t.Fatalf("len(fieldIDs) = %d, want 13", len(fieldIDs))
	}
	for i, f := range ControlFlags() {
		got, err := LookupField(uint16(i + 1))
		if err != nil {
			t.Fatal(err)
		}
		if got != f {
			t.Errorf("id %d = %s, want %s", i+1, got, f)
		}
	}
	for _, id := range []uint16{0, 14, 99} {
		if _, err := LookupField(id); !errors.Is(err, ErrUnknownField) {
			t.Errorf("LookupField(%d) err = %v, want ErrUnknownField", id, err)
		}
	}
}

func TestControlFlagsReturnsCopy(t *testing.T) {
	flags := ControlFlags()
	flags[0] = "tampered"
	if got, _ := LookupField(1); got != FlagLocked {
		t.Errorf("LookupField(1) = %s after mutating the returned slice", got)
	}
	if ControlFlags()[0] != FlagLocked {
		t.Error("ControlFlags shares its backing array")
	}
	if StatusSchema.Fields()[1].Name != string(FlagLocked) {
		t.Error("status layout changed")
	}
}

func TestStatusSchemaLayout(t *testing.T) {
	if StatusSchema.Size() != 15 {
		t.Errorf("status size = %d, want 15", StatusSchema.Size())
	}
	fields := StatusSchema.Fields()
	if fields[0].Key() != "mode_2" {
		t.Errorf("first field = %s", fields[0].Key())
	}
	if fields[1].Key() != "locked_1" || fields[7].Key() != "turn_light_1" || fields[13].Key() != "remote_access_1" {
		t.Errorf("unexpected status layout: %v", fields)
	}
}

func TestSchemaSizes(t *testing.T) {
	cases := []struct {
		ch   Channel
		size int
	}{
		{ChannelStatus, 15},
		{ChannelTelemetry, 23},
		{ChannelLocation, 10},
		{ChannelEvent, 16},
	}
	for _, tc := range cases {
		s, ok := SchemaFor(tc.ch)
		if !ok {
			t.Fatalf("no schema for %s", tc.ch)
		}
		if s.Size() != tc.size {
			t.Errorf("%s size = %d, want %d", tc.ch, s.Size(), tc.size)
		}
	}
	if _, ok := SchemaFor(ChannelCmd); ok {
		t.Error("cmd should have no schema")
	}
}

func TestTopic(t *testing.T) {
	if got := Topic("bike", "7", ChannelStatus); got != "bike/7/status" {
		t.Errorf("Topic = %q", got)
	}

	base, id, ch, err := ParseTopic("bike/7/cmd")
	if err != nil {
		t.Fatal(err)
	}
	if base != "bike" || id != "7" || ch != ChannelCmd {
		t.Errorf("ParseTopic = %q %q %q", base, id, ch)
	}

	for _, bad := range []string{"bike/7", "bike//cmd", "bike/7/cmd/x", "bike/7/nope", ""} {
		if _, _, _, err := ParseTopic(bad); err == nil {
			t.Errorf("ParseTopic(%q) should fail", bad)
		}
	}
}

func TestQoS(t *testing.T) {
	for _, ch := range Channels {
		want := byte(0)
		if ch == ChannelEvent {
			want = 2
		}
		if ch.QoS() != want {
			t.Errorf("%s QoS = %d, want %d", ch, ch.QoS(), want)
		}
	}
}

func TestIsStatusFlag(t *testing.T) {
	if !IsStatusFlag("mode") || !IsStatusFlag("answareback") {
		t.Error("expected status flags")
	}
	if IsStatusFlag("speed") {
		t.Error("speed is not a status flag")
	}
}

func TestEventSeverity(t *testing.T) {
	cases := map[int]int{
		0: SeverityInfo, 1: SeverityError, 9: SeverityError, 10: SeverityInfo,
		11: SeverityWarning, 12: SeverityWarning, 21: SeverityInfo, 27: SeverityInfo,
	}
	for name, want := range cases {
		if got := EventSeverity(name); got != want {
			t.Errorf("EventSeverity(%d) = %d, want %d", name, got, want)
		}
	}
}
