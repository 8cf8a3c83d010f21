package domain

import "errors"

var (
	// ErrInvalidValue indicates a light value is negative and not the NoReading sentinel
	ErrInvalidValue = errors.New("light value cannot be negative")

	// ErrDeviceUnavailable indicates the camera or sensor is absent or cannot be opened
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrCaptureFailed indicates a frame could not be captured or decoded in time
	ErrCaptureFailed = errors.New("capture failed")
)
