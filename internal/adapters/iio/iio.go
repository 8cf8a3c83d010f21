// Package iio reads ambient light sensors exposed by the Linux Industrial
// I/O subsystem under sysfs.
package iio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/quentinrf/lightlevel/internal/domain"
	"github.com/quentinrf/lightlevel/internal/ports"
)

// DefaultRoot is where the kernel lists IIO devices
const DefaultRoot = "/sys/bus/iio/devices"

// channel attribute prefixes, in order of preference
var (
	illuminancePrefixes = []string{"in_illuminance", "in_illuminance0"}
	proximityPrefixes   = []string{"in_proximity", "in_proximity0"}
)

// Device is one IIO device with an illuminance channel
type Device struct {
	Path string
	Name string

	// processed is set when the driver reports lux directly (*_input)
	processed   bool
	illuminance string
	proximity   string
}

// Discover lists devices under root that expose an illuminance channel,
// sorted by path.
func Discover(root string) ([]*Device, error) {
	dirs, err := filepath.Glob(filepath.Join(root, "iio:device*"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(dirs)

	var devices []*Device
	for _, dir := range dirs {
		if dev := probe(dir); dev != nil {
			devices = append(devices, dev)
		}
	}
	return devices, nil
}

func probe(dir string) *Device {
	dev := &Device{Path: dir, Name: filepath.Base(dir)}
	if name, err := os.ReadFile(filepath.Join(dir, "name")); err == nil {
		dev.Name = strings.TrimSpace(string(name))
	}

	for _, prefix := range illuminancePrefixes {
		if exists(filepath.Join(dir, prefix+"_input")) {
			dev.illuminance = prefix
			dev.processed = true
			break
		}
		if exists(filepath.Join(dir, prefix+"_raw")) {
			dev.illuminance = prefix
			break
		}
	}
	if dev.illuminance == "" {
		return nil
	}

	for _, prefix := range proximityPrefixes {
		if exists(filepath.Join(dir, prefix+"_raw")) {
			dev.proximity = prefix
			break
		}
	}
	return dev
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Sensor polls one IIO device.
// This implements the ports.SensorSource interface
type Sensor struct {
	dev   *Device
	clock clock.Clock
}

// NewSensor creates a source for dev; a nil clock means the wall clock
func NewSensor(dev *Device, clk clock.Clock) *Sensor {
	return &Sensor{dev: dev, clock: clk}
}

// Name identifies the source
func (s *Sensor) Name() string {
	return "iio:" + s.dev.Name
}

// Run polls the device until ctx is cancelled or the device disappears
func (s *Sensor) Run(ctx context.Context, delay ports.Delay, emit func(ports.SensorEvent)) error {
	return ports.NewPoller(s.Name(), s.clock, s.read).Run(ctx, delay, emit)
}

// Close is a no-op; sysfs attributes are opened per read
func (s *Sensor) Close() error {
	return nil
}

func (s *Sensor) read(ctx context.Context) ([]ports.SensorEvent, error) {
	now := time.Now()

	lux, err := s.illuminance()
	if err != nil {
		return nil, err
	}
	events := []ports.SensorEvent{{Type: ports.SensorLight, Values: []float64{lux}, Timestamp: now}}

	if s.dev.proximity != "" {
		prox, err := s.attr(s.dev.proximity + "_raw")
		if err != nil {
			return nil, err
		}
		events = append(events, ports.SensorEvent{Type: ports.SensorProximity, Values: []float64{prox}, Timestamp: now})
	}
	return events, nil
}

// illuminance returns lux, applying offset and scale to raw channels
func (s *Sensor) illuminance() (float64, error) {
	prefix := s.dev.illuminance
	if s.dev.processed {
		return s.attr(prefix + "_input")
	}

	raw, err := s.attr(prefix + "_raw")
	if err != nil {
		return 0, err
	}
	offset, err := s.optionalAttr(prefix+"_offset", 0)
	if err != nil {
		return 0, err
	}
	scale, err := s.optionalAttr(prefix+"_scale", 1)
	if err != nil {
		return 0, err
	}
	return (raw + offset) * scale, nil
}

func (s *Sensor) attr(name string) (float64, error) {
	data, err := os.ReadFile(filepath.Join(s.dev.Path, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s: %w", domain.ErrDeviceUnavailable, s.dev.Name, err)
		}
		return 0, fmt.Errorf("read %s: %w", name, err)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v, nil
}

func (s *Sensor) optionalAttr(name string, fallback float64) (float64, error) {
	if !exists(filepath.Join(s.dev.Path, name)) {
		return fallback, nil
	}
	return s.attr(name)
}
