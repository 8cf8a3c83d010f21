package mock

import (
	"context"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/quentinrf/lightlevel/internal/ports"
)

// FakeSensor simulates an ambient light sensor for development.
// This implements the ports.SensorSource interface
type FakeSensor struct {
	baseValue float64
	variation float64
	clock     clock.Clock

	// Proximity makes the fake multiplex proximity events onto the
	// same stream, like combined ALS/proximity chips do.
	Proximity bool
}

// NewFakeSensor creates a sensor that returns realistic values
// baseValue: average lux (e.g., 500 for indoor lighting)
// variation: +/- range (e.g., 100 means 400-600)
func NewFakeSensor(baseValue, variation float64, clk clock.Clock) *FakeSensor {
	return &FakeSensor{
		baseValue: baseValue,
		variation: variation,
		clock:     clk,
	}
}

// Name identifies the source
func (s *FakeSensor) Name() string {
	return "mock"
}

// Run polls the simulated sensor until ctx is cancelled
func (s *FakeSensor) Run(ctx context.Context, delay ports.Delay, emit func(ports.SensorEvent)) error {
	return ports.NewPoller(s.Name(), s.clock, s.read).Run(ctx, delay, emit)
}

// read returns a simulated light reading
// Simulates realistic variance (lights flicker, clouds pass, etc.)
func (s *FakeSensor) read(ctx context.Context) ([]ports.SensorEvent, error) {
	now := time.Now()

	// Random value around base ± variation
	variance := (rand.Float64() - 0.5) * 2 * s.variation
	lux := s.baseValue + variance

	// Ensure non-negative
	if lux < 0 {
		lux = 0
	}

	events := []ports.SensorEvent{{Type: ports.SensorLight, Values: []float64{lux}, Timestamp: now}}
	if s.Proximity {
		events = append(events, ports.SensorEvent{Type: ports.SensorProximity, Values: []float64{rand.Float64() * 5}, Timestamp: now})
	}
	return events, nil
}

// Close is a no-op for fake sensor
func (s *FakeSensor) Close() error {
	return nil
}
