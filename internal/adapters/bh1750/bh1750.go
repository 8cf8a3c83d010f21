// Package bh1750 reads a ROHM BH1750 ambient light sensor over I2C.
package bh1750

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/quentinrf/lightlevel/internal/domain"
	"github.com/quentinrf/lightlevel/internal/ports"
)

const (
	// DefaultAddr is the sensor address with ADDR pulled low
	DefaultAddr uint16 = 0x23

	cmdPowerOn           byte = 0x01
	cmdContinuousHighRes byte = 0x10

	// counts per lux in high resolution mode
	countsPerLux = 1.2
)

// Sensor polls a BH1750 in continuous high resolution mode.
// This implements the ports.SensorSource interface
type Sensor struct {
	dev    *i2c.Dev
	closer func() error
	clock  clock.Clock

	// configured stays false after a failed configure so a restarted
	// stream retries the power-on sequence
	mu         sync.Mutex
	configured bool
}

// Open initializes the host drivers and opens busName ("" selects the
// first bus) with the sensor at addr.
func Open(busName string, addr uint16, clk clock.Clock) (*Sensor, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: init host: %w", domain.ErrDeviceUnavailable, err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("%w: open i2c bus %q: %w", domain.ErrDeviceUnavailable, busName, err)
	}

	s := New(bus, addr, clk)
	s.closer = bus.Close
	if err := s.probe(); err != nil {
		bus.Close()
		return nil, err
	}
	return s, nil
}

// New creates a sensor on an already open bus
func New(bus i2c.Bus, addr uint16, clk clock.Clock) *Sensor {
	return &Sensor{
		dev:   &i2c.Dev{Bus: bus, Addr: addr},
		clock: clk,
	}
}

// Name identifies the source
func (s *Sensor) Name() string {
	return fmt.Sprintf("bh1750@%#x", s.dev.Addr)
}

// Run polls the sensor until ctx is cancelled or the bus fails
func (s *Sensor) Run(ctx context.Context, delay ports.Delay, emit func(ports.SensorEvent)) error {
	return ports.NewPoller(s.Name(), s.clock, s.read).Run(ctx, delay, emit)
}

// Close releases the bus when it was opened by Open
func (s *Sensor) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// configure powers the sensor on and starts continuous measurement
func (s *Sensor) configure() error {
	if err := s.dev.Tx([]byte{cmdPowerOn}, nil); err != nil {
		return fmt.Errorf("power on: %w", err)
	}
	if err := s.dev.Tx([]byte{cmdContinuousHighRes}, nil); err != nil {
		return fmt.Errorf("set mode: %w", err)
	}
	return nil
}

// ensureConfigured configures the sensor unless a previous call succeeded
func (s *Sensor) ensureConfigured() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.configured {
		return nil
	}
	if err := s.configure(); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrDeviceUnavailable, s.Name(), err)
	}
	s.configured = true
	return nil
}

// probe checks that a chip answers at the address: an open bus alone
// says nothing about the sensor.
func (s *Sensor) probe() error {
	if err := s.ensureConfigured(); err != nil {
		return err
	}
	if _, err := s.measure(); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrDeviceUnavailable, s.Name(), err)
	}
	return nil
}

func (s *Sensor) read(ctx context.Context) ([]ports.SensorEvent, error) {
	if err := s.ensureConfigured(); err != nil {
		return nil, err
	}

	lux, err := s.measure()
	if err != nil {
		return nil, err
	}
	return []ports.SensorEvent{{Type: ports.SensorLight, Values: []float64{lux}, Timestamp: time.Now()}}, nil
}

// measure reads the 16-bit big-endian measurement register
func (s *Sensor) measure() (float64, error) {
	buf := make([]byte, 2)
	if err := s.dev.Tx(nil, buf); err != nil {
		return 0, fmt.Errorf("read measurement: %w", err)
	}
	raw := uint16(buf[0])<<8 | uint16(buf[1])
	return float64(raw) / countsPerLux, nil
}
