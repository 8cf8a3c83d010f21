package ports

import (
	"context"
	"time"
)

// SensorType identifies the kind of measurement carried by a SensorEvent
type SensorType int

const (
	SensorLight SensorType = iota + 1
	SensorProximity
)

func (t SensorType) String() string {
	switch t {
	case SensorLight:
		return "light"
	case SensorProximity:
		return "proximity"
	}
	return "unknown"
}

// SensorEvent is one observation delivered by a SensorSource.
// Values[0] holds the primary reading (lux for SensorLight).
type SensorEvent struct {
	Type      SensorType
	Values    []float64
	Timestamp time.Time
}

// Delay is the requested update cadence of a subscription
type Delay int

const (
	DelayNormal Delay = iota
	DelayUI
	DelayGame
	DelayFastest
)

// Period returns the polling period for the delay class
func (d Delay) Period() time.Duration {
	switch d {
	case DelayUI:
		return 66667 * time.Microsecond
	case DelayGame:
		return 20 * time.Millisecond
	case DelayFastest:
		return 5 * time.Millisecond
	}
	return 200 * time.Millisecond
}

// SensorSource defines how to subscribe to a sensor stream.
// This is a PORT - adapters (IIO, BH1750, Mock) will implement it
type SensorSource interface {
	// Name identifies the source in logs
	Name() string

	// Run delivers events to emit until ctx is cancelled.
	// It returns nil on cancellation and an error when the device is lost.
	Run(ctx context.Context, delay Delay, emit func(SensorEvent)) error

	// Close releases any resources
	Close() error
}
