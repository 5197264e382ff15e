package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/jkaberg/ebike-sim/internal/codec"
	"github.com/jkaberg/ebike-sim/internal/protocol"
)

func newSchemaCommand() *cobra.Command {
	var decode bool

	cmd := &cobra.Command{
		Use:   "schema [channel] [hex-payload]",
		Short: "Print message layouts or decode a captured payload",
		Example: "  ebike-sim schema\n" +
			"  ebike-sim schema status\n" +
			"  ebike-sim schema --decode cmd 01000100\n" +
			"  ebike-sim schema --decode status 020001000000000000000000000000",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if decode {
				if len(args) != 2 {
					return fmt.Errorf("--decode needs a channel and a hex payload")
				}
				return decodePayload(out, args[0], args[1])
			}

			channels := protocol.Channels
			if len(args) > 0 {
				ch, err := protocol.ParseChannel(args[0])
				if err != nil {
					return err
				}
				channels = []protocol.Channel{ch}
			}
			printSchemas(out, channels)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&decode, "decode", "d", false, "Decode a hex payload captured on the given channel")
	return cmd
}

func printSchemas(out io.Writer, channels []protocol.Channel) {
	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("CHANNEL", "QOS", "OFFSET", "KEY", "KIND")

	for _, ch := range channels {
		if ch == protocol.ChannelCmd {
			table.AddRow(ch, ch.QoS(), 0, "field_id_2", "uint")
			table.AddRow(ch, ch.QoS(), 2, "value_2", "uint")
			continue
		}
		s, _ := protocol.SchemaFor(ch)
		off := 0
		for _, f := range s.Fields() {
			table.AddRow(ch, ch.QoS(), off, f.Key(), f.Kind)
			off += f.Width
		}
	}
	fmt.Fprintln(out, table)
}

func decodePayload(out io.Writer, channel, hexPayload string) error {
	ch, err := protocol.ParseChannel(channel)
	if err != nil {
		return err
	}
	payload, err := hex.DecodeString(strings.ReplaceAll(hexPayload, " ", ""))
	if err != nil {
		return fmt.Errorf("payload is not hex: %w", err)
	}

	table := uitable.New()
	table.AddRow("FIELD", "VALUE")

	if ch == protocol.ChannelCmd {
		c, err := codec.DecodeCommand(payload)
		if err != nil {
			return err
		}
		flag, err := protocol.LookupField(c.FieldID)
		if err != nil {
			flag = "?"
		}
		table.AddRow("field_id", fmt.Sprintf("%d (%s)", c.FieldID, flag))
		table.AddRow("value", c.Value)
		fmt.Fprintln(out, table)
		return nil
	}

	s, _ := protocol.SchemaFor(ch)
	vals, err := s.Decode(payload)
	if err != nil {
		return err
	}
	for _, f := range s.Fields() {
		v := vals[f.Name]
		label := v.String()
		switch {
		case ch == protocol.ChannelEvent && f.Name == "eventname":
			n, _ := v.AsInt()
			if name, ok := protocol.EventNames[int(n)]; ok {
				label = fmt.Sprintf("%d (%s)", n, name)
			}
		case ch == protocol.ChannelLocation && (f.Name == "lat" || f.Name == "lon"):
			n, _ := v.AsInt()
			label = fmt.Sprintf("%d (%.7f)", n, float64(n)/protocol.CoordScale)
		}
		table.AddRow(f.Name, label)
	}
	if extra := len(payload) - s.Size(); extra > 0 {
		table.AddRow("(trailing)", fmt.Sprintf("%d byte(s)", extra))
	}
	fmt.Fprintln(out, table)
	return nil
}
