// Package telemetry produces synthetic telemetry, location and event records
// for one simulated vehicle.
package telemetry

import (
	"math/rand/v2"
	"time"

	"github.com/jkaberg/ebike-sim/internal/codec"
	"github.com/jkaberg/ebike-sim/internal/protocol"
)

// Battery constants used for the range estimate.
const (
	BatteryCapacity = 26 // Ah
	BatteryVoltage  = 48 // V
	rangePerAh      = 4  // km
)

// Generator keeps the state that evolves between cycles: state of charge
// and position. It is not safe for concurrent use; give each vehicle its own.
type Generator struct {
	rng *rand.Rand
	soc int
	pos Position
}

// NewGenerator returns a generator at full charge at the start position.
// A nil src seeds from the clock.
func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &Generator{
		rng: rand.New(src),
		soc: 100,
		pos: StartPosition,
	}
}

// SOC returns the state of charge reported by the last Telemetry call.
func (g *Generator) SOC() int { return g.soc }

// RangeLeft estimates remaining range in km for a state of charge.
func RangeLeft(soc int) int {
	return soc * BatteryCapacity * rangePerAh / 100
}

// between returns a uniform integer in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

// Telemetry returns the next telemetry record. The state of charge drops by
// 0 or 1 each call and restarts at 100 once it would go negative.
func (g *Generator) Telemetry() []codec.Entry {
	g.soc -= g.rng.IntN(2)
	if g.soc < 0 {
		g.soc = 100
	}

	return protocol.TelemetrySchema.Bind(map[string]codec.Value{
		"speed":          codec.Int(int64(g.between(0, 120))),
		"odo":            codec.Int(int64(g.between(1000, 50000))),
		"trip":           codec.Int(int64(g.between(0, 100))),
		"rangeleft":      codec.Int(int64(RangeLeft(g.soc))),
		"voltage":        codec.Int(int64(g.between(48, 50))),
		"current":        codec.Int(int64(g.between(0, 26000))),
		"soc":            codec.Int(int64(g.soc)),
		"temperature":    codec.Int(int64(g.between(20, 80))),
		"tiltangle":      codec.Int(int64(g.between(-30, 60))),
		"hillassistance": codec.Int(int64(g.rng.IntN(2))),
	})
}

// eventNames are the codes the generator draws from.
var eventNames = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 21, 22, 23, 24, 25, 26, 27}

// Event returns a random event record.
func (g *Generator) Event() []codec.Entry {
	name := eventNames[g.rng.IntN(len(eventNames))]
	value := "0"
	if g.rng.IntN(2) == 1 {
		value = "1"
	}
	return protocol.EventSchema.Bind(map[string]codec.Value{
		"eventname":  codec.Int(int64(name)),
		"eventtype":  codec.Int(int64(protocol.EventSeverity(name))),
		"eventvalue": codec.Text(value),
	})
}
