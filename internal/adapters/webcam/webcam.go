// Package webcam captures frames from video devices through pion/mediadevices.
package webcam

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"
	"sync"

	"github.com/pion/mediadevices"
	mediadevicescamera "github.com/pion/mediadevices/pkg/driver/camera"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/io/video"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/lightlevel/internal/adapters/devlock"
	"github.com/quentinrf/lightlevel/internal/domain"
	"github.com/quentinrf/lightlevel/internal/ports"
)

var initOnce sync.Once

// labels that identify a user-facing camera
var frontLabels = []string{"front", "user", "facetime", "integrated"}

// Config selects and shapes the capture
type Config struct {
	// Device is a device ID or label substring; empty prefers a front camera
	Device string
	Width  int
	Height int

	// LockFile serializes access across processes; empty disables it
	LockFile string
}

// Camera opens one mediadevices video track per session.
// This implements the ports.Camera interface
type Camera struct {
	cfg          Config
	enumerate    func() []mediadevices.MediaDeviceInfo
	getUserMedia func(mediadevices.MediaStreamConstraints) (mediadevices.MediaStream, error)
}

type userMedia struct {
	stream mediadevices.MediaStream
	err    error
}

// New creates a camera; devices are enumerated on each Open
func New(cfg Config) *Camera {
	return &Camera{
		cfg:          cfg,
		enumerate:    mediadevices.EnumerateDevices,
		getUserMedia: mediadevices.GetUserMedia,
	}
}

// Open selects a device and starts a video track on it
func (c *Camera) Open(ctx context.Context) (ports.CaptureSession, error) {
	initOnce.Do(mediadevicescamera.Initialize)

	info, err := selectDevice(c.enumerate(), c.cfg.Device)
	if err != nil {
		return nil, err
	}

	lock, err := devlock.Acquire(c.cfg.LockFile)
	if err != nil {
		return nil, err
	}

	// GetUserMedia blocks in the driver and takes no context
	opened := make(chan userMedia, 1)
	go func() {
		stream, err := c.getUserMedia(c.constraints(info.DeviceID))
		opened <- userMedia{stream: stream, err: err}
	}()

	var stream mediadevices.MediaStream
	select {
	case res := <-opened:
		if res.err != nil {
			lock.Release()
			return nil, fmt.Errorf("%w: open %s: %w", domain.ErrDeviceUnavailable, info.Label, res.err)
		}
		stream = res.stream

	case <-ctx.Done():
		go func() {
			if res := <-opened; res.err == nil {
				for _, track := range res.stream.GetTracks() {
					track.Close()
				}
			}
			lock.Release()
		}()
		return nil, ctx.Err()
	}

	tracks := stream.GetVideoTracks()
	if len(tracks) == 0 {
		lock.Release()
		return nil, fmt.Errorf("%w: %s has no video track", domain.ErrDeviceUnavailable, info.Label)
	}
	for _, extra := range tracks[1:] {
		extra.Close()
	}

	track, ok := tracks[0].(*mediadevices.VideoTrack)
	if !ok {
		tracks[0].Close()
		lock.Release()
		return nil, fmt.Errorf("%w: %s returned a non-video track", domain.ErrDeviceUnavailable, info.Label)
	}

	log.Debug().Str("device", info.Label).Msg("camera session opened")

	return &session{
		track:  track,
		reader: track.NewReader(true),
		lock:   lock,
	}, nil
}

func (c *Camera) constraints(deviceID string) mediadevices.MediaStreamConstraints {
	return mediadevices.MediaStreamConstraints{
		Video: func(constraint *mediadevices.MediaTrackConstraints) {
			constraint.DeviceID = prop.String(deviceID)
			constraint.FrameFormat = prop.FrameFormatOneOf{
				frame.FormatMJPEG,
				frame.FormatYUY2,
				frame.FormatI420,
				frame.FormatNV12,
				frame.FormatRGBA,
			}
			if c.cfg.Width > 0 {
				constraint.Width = prop.Int(c.cfg.Width)
			}
			if c.cfg.Height > 0 {
				constraint.Height = prop.Int(c.cfg.Height)
			}
		},
	}
}

// selectDevice picks the configured device, else a front-facing one by
// label, else the first video input.
func selectDevice(devices []mediadevices.MediaDeviceInfo, want string) (mediadevices.MediaDeviceInfo, error) {
	var inputs []mediadevices.MediaDeviceInfo
	for _, d := range devices {
		if d.Kind == mediadevices.VideoInput {
			inputs = append(inputs, d)
		}
	}
	if len(inputs) == 0 {
		return mediadevices.MediaDeviceInfo{}, fmt.Errorf("%w: no video input devices", domain.ErrDeviceUnavailable)
	}

	if want != "" {
		for _, d := range inputs {
			if d.DeviceID == want || strings.Contains(d.Label, want) {
				return d, nil
			}
		}
		return mediadevices.MediaDeviceInfo{}, fmt.Errorf("%w: no video input matches %q", domain.ErrDeviceUnavailable, want)
	}

	for _, d := range inputs {
		label := strings.ToLower(d.Label)
		for _, front := range frontLabels {
			if strings.Contains(label, front) {
				return d, nil
			}
		}
	}
	return inputs[0], nil
}

var errClosed = errors.New("capture session closed")

type session struct {
	track  *mediadevices.VideoTrack
	reader video.Reader
	lock   *devlock.Lock

	mu     sync.Mutex
	closed bool
}

// Capture reads the next frame from the track
func (s *session) Capture(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, errClosed
	}

	img, release, err := s.reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if release != nil {
		defer release()
	}

	// The frame buffer goes back to the driver on release
	bounds := img.Bounds()
	frameCopy := image.NewRGBA(bounds)
	draw.Draw(frameCopy, bounds, img, bounds.Min, draw.Src)
	return frameCopy, nil
}

// Close stops the track, which also unblocks a pending Read
func (s *session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.track.Close()
	if lockErr := s.lock.Release(); err == nil {
		err = lockErr
	}
	return err
}
