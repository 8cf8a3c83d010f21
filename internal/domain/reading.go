package domain

import (
	"time"
)

// NoReading is reported before any light level has been observed.
// It is a valid value, not an error: callers treat it as "unknown".
const NoReading = -1.0

// Unit says how a sample's value should be read.
// Values in different units are not comparable.
type Unit string

const (
	// UnitLux is raw illuminance as reported by an ambient light sensor.
	UnitLux Unit = "lux"

	// UnitNormalized is a mean channel intensity in [0, 1].
	UnitNormalized Unit = "normalized"
)

// LightSample represents a single light measurement
type LightSample struct {
	Value     float64
	Unit      Unit
	Timestamp time.Time
}

// NewLightSample creates a sample stamped with the current time.
// Negative values other than NoReading are rejected.
func NewLightSample(value float64, unit Unit) (*LightSample, error) {
	if value < 0 && value != NoReading {
		return nil, ErrInvalidValue
	}

	return &LightSample{
		Value:     value,
		Unit:      unit,
		Timestamp: time.Now(),
	}, nil
}

// IsKnown reports whether the sample holds an observation
func (s *LightSample) IsKnown() bool {
	return s.Value != NoReading
}

// IsLowLight returns true if reading indicates low light conditions
// Business logic: < 200 lux is considered low light
func (s *LightSample) IsLowLight() bool {
	return s.Unit == UnitLux && s.IsKnown() && s.Value < 200
}

// IsMediumLight returns true if reading indicates medium light
// Business logic: 200-2500 lux is medium light
func (s *LightSample) IsMediumLight() bool {
	return s.Unit == UnitLux && s.Value >= 200 && s.Value < 2500
}

// IsHighLight returns true if reading indicates high light
// Business logic: >= 2500 lux is high light
func (s *LightSample) IsHighLight() bool {
	return s.Unit == UnitLux && s.Value >= 2500
}

// Category returns human-readable category.
// Only lux samples are categorized.
func (s *LightSample) Category() string {
	switch {
	case s.IsLowLight():
		return "Low Light"
	case s.IsMediumLight():
		return "Medium Light"
	case s.IsHighLight():
		return "High Light"
	}
	return "Unknown"
}
