package mock

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/quentinrf/lightlevel/internal/domain"
	"github.com/quentinrf/lightlevel/internal/ports"
)

var errSessionClosed = errors.New("capture session closed")

// FakeCamera produces uniformly coloured frames.
// This implements the ports.Camera interface
type FakeCamera struct {
	Color  color.Color
	Width  int
	Height int

	// Delay is how long a capture takes
	Delay time.Duration

	// Hang makes captures block until the session is closed
	Hang bool

	// Unavailable makes Open fail as if no device were attached
	Unavailable bool

	// Capturing, when set, receives a value as each capture starts
	Capturing chan struct{}

	mu      sync.Mutex
	open    int
	maxOpen int
	opened  int
}

// NewFakeCamera creates a 64x48 camera that always sees c
func NewFakeCamera(c color.Color) *FakeCamera {
	return &FakeCamera{
		Color:  c,
		Width:  64,
		Height: 48,
	}
}

// Open starts a fake session
func (c *FakeCamera) Open(ctx context.Context) (ports.CaptureSession, error) {
	if c.Unavailable {
		return nil, fmt.Errorf("%w: no camera attached", domain.ErrDeviceUnavailable)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.open++
	c.opened++
	if c.open > c.maxOpen {
		c.maxOpen = c.open
	}

	return &fakeSession{cam: c, closed: make(chan struct{})}, nil
}

// OpenSessions returns the number of sessions not yet closed
func (c *FakeCamera) OpenSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// MaxConcurrent returns the highest number of sessions open at once
func (c *FakeCamera) MaxConcurrent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxOpen
}

// Opened returns the total number of sessions opened
func (c *FakeCamera) Opened() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

type fakeSession struct {
	cam    *FakeCamera
	closed chan struct{}
	once   sync.Once
}

func (s *fakeSession) Capture(ctx context.Context) (image.Image, error) {
	if s.cam.Capturing != nil {
		s.cam.Capturing <- struct{}{}
	}

	if s.cam.Hang {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.closed:
			return nil, errSessionClosed
		}
	}

	if s.cam.Delay > 0 {
		timer := time.NewTimer(s.cam.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.closed:
			return nil, errSessionClosed
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, s.cam.Width, s.cam.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: s.cam.Color}, image.Point{}, draw.Src)
	return img, nil
}

func (s *fakeSession) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.cam.mu.Lock()
		s.cam.open--
		s.cam.mu.Unlock()
	})
	return nil
}
