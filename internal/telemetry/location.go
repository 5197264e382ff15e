package telemetry

import (
	"math"

	"github.com/jkaberg/ebike-sim/internal/codec"
	"github.com/jkaberg/ebike-sim/internal/protocol"
)

// Position is a WGS84 coordinate in degrees.
type Position struct {
	Lat float64
	Lon float64
}

// StartPosition is where every simulated vehicle begins.
var StartPosition = Position{Lat: 16.082377, Lon: 108.221459}

// Bounds is the box the random walk stays inside.
var Bounds = struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}{16.00, 16.20, 108.10, 108.35}

// walkStep is the largest move per cycle on each axis, in degrees.
const walkStep = 0.0001

// Position returns the current position.
func (g *Generator) Position() Position { return g.pos }

// Location moves the vehicle one step and returns its location record.
func (g *Generator) Location() []codec.Entry {
	g.pos.Lat = clamp(g.pos.Lat+g.step(), Bounds.MinLat, Bounds.MaxLat)
	g.pos.Lon = clamp(g.pos.Lon+g.step(), Bounds.MinLon, Bounds.MaxLon)

	return protocol.LocationSchema.Bind(map[string]codec.Value{
		"lat":     codec.Int(FixedPoint(g.pos.Lat)),
		"lon":     codec.Int(FixedPoint(g.pos.Lon)),
		"heading": codec.Int(int64(g.rng.IntN(360))),
	})
}

// FixedPoint converts degrees to the integer form carried on the wire.
func FixedPoint(deg float64) int64 {
	return int64(math.Round(deg * protocol.CoordScale))
}

func (g *Generator) step() float64 {
	return (g.rng.Float64()*2 - 1) * walkStep
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
