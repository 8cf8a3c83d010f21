// Package snapshot captures a still frame by running an external capture
// command that writes one encoded image to stdout.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/quentinrf/lightlevel/internal/adapters/devlock"
	"github.com/quentinrf/lightlevel/internal/domain"
	"github.com/quentinrf/lightlevel/internal/ports"
)

// DefaultCommand grabs one JPEG frame from the default V4L2 device
const DefaultCommand = "fswebcam --no-banner --jpeg 90 -"

// Config describes the capture command
type Config struct {
	// Command is split on whitespace; it must print one image to stdout
	Command string

	// Device, when set, must exist before a session is opened
	Device string

	// LockFile serializes access across processes; empty disables it
	LockFile string
}

// Camera runs the capture command once per session.
// This implements the ports.Camera interface
type Camera struct {
	args     []string
	device   string
	lockFile string
}

// New creates a snapshot camera
func New(cfg Config) *Camera {
	command := cfg.Command
	if command == "" {
		command = DefaultCommand
	}
	return &Camera{
		args:     strings.Fields(command),
		device:   cfg.Device,
		lockFile: cfg.LockFile,
	}
}

// Open checks that the command and device exist and takes the device lock
func (c *Camera) Open(ctx context.Context) (ports.CaptureSession, error) {
	if len(c.args) == 0 {
		return nil, fmt.Errorf("%w: no capture command", domain.ErrDeviceUnavailable)
	}
	if _, err := exec.LookPath(c.args[0]); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDeviceUnavailable, err)
	}
	if c.device != "" {
		if _, err := os.Stat(c.device); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrDeviceUnavailable, err)
		}
	}

	lock, err := devlock.Acquire(c.lockFile)
	if err != nil {
		return nil, err
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	return &session{
		args:   c.args,
		lock:   lock,
		ctx:    sessionCtx,
		cancel: cancel,
	}, nil
}

type session struct {
	args []string
	lock *devlock.Lock

	// ctx is cancelled by Close and kills a running command
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// Capture runs the command and decodes its output
func (s *session) Capture(ctx context.Context) (image.Image, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, s.args[0], s.args[1:]...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		log.Debug().Str("stderr", stderr.String()).Msg("capture command failed")
		return nil, fmt.Errorf("run %s: %w", s.args[0], err)
	}

	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("decode %d bytes: %w", len(out), err)
	}
	log.Debug().Str("format", format).Int("bytes", len(out)).Msg("snapshot decoded")
	return img, nil
}

// Close kills a running capture and releases the device lock
func (s *session) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.lock.Release()
	})
	return err
}
