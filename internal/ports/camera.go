package ports

import (
	"context"
	"image"
)

// Camera opens capture sessions on a camera device.
// This is a PORT - adapters (webcam, snapshot, mock) will implement it
type Camera interface {
	// Open acquires exclusive access to the device.
	// It fails with domain.ErrDeviceUnavailable when no usable device exists.
	Open(ctx context.Context) (CaptureSession, error)
}

// CaptureSession owns the camera until Close is called
type CaptureSession interface {
	// Capture returns one still frame
	Capture(ctx context.Context) (image.Image, error)

	// Close stops the session and releases the device. It must be safe to
	// call while Capture is still blocked.
	Close() error
}
