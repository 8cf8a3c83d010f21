package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/quentinrf/lightlevel/internal/domain"
	"github.com/quentinrf/lightlevel/internal/metrics"
	"github.com/quentinrf/lightlevel/internal/ports"
)

// DefaultCeiling bounds how long a single camera query may hold the device
const DefaultCeiling = time.Second

// CameraBrightnessEstimator measures brightness from one camera frame per query.
// Queries are serialized: the camera is an exclusive resource.
type CameraBrightnessEstimator struct {
	camera  ports.Camera
	clock   clock.Clock
	ceiling time.Duration
	slot    *semaphore.Weighted
}

// Option configures a CameraBrightnessEstimator
type Option func(*CameraBrightnessEstimator)

// WithClock replaces the wall clock used for the ceiling timer
func WithClock(clk clock.Clock) Option {
	return func(e *CameraBrightnessEstimator) {
		e.clock = clk
	}
}

// WithCeiling overrides DefaultCeiling
func WithCeiling(d time.Duration) Option {
	return func(e *CameraBrightnessEstimator) {
		e.ceiling = d
	}
}

// NewCameraBrightnessEstimator creates an estimator. No device is touched
// until the first query.
func NewCameraBrightnessEstimator(camera ports.Camera, opts ...Option) *CameraBrightnessEstimator {
	e := &CameraBrightnessEstimator{
		camera:  camera,
		clock:   clock.New(),
		ceiling: DefaultCeiling,
		slot:    semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type captureResult struct {
	value float64
	err   error
}

// GetLightLevel opens the camera, captures one frame and returns its mean
// channel intensity. It fails with domain.ErrDeviceUnavailable when the
// camera cannot be opened and with domain.ErrCaptureFailed when no frame is
// processed before the ceiling. The session is closed on every path.
func (e *CameraBrightnessEstimator) GetLightLevel(ctx context.Context) (float64, error) {
	if err := e.slot.Acquire(ctx, 1); err != nil {
		return domain.NoReading, err
	}
	defer e.slot.Release(1)

	start := e.clock.Now()
	value, err := e.measure(ctx)
	elapsed := e.clock.Since(start)

	metrics.CameraCaptureDuration.Observe(elapsed.Seconds())
	metrics.CameraCaptures.WithLabelValues(captureLabel(err)).Inc()

	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("camera brightness estimate failed")
		return domain.NoReading, err
	}

	log.Info().
		Float64("brightness", value).
		Dur("elapsed", elapsed).
		Msg("camera brightness estimated")
	return value, nil
}

type openResult struct {
	session ports.CaptureSession
	err     error
}

func (e *CameraBrightnessEstimator) measure(ctx context.Context) (float64, error) {
	// The ceiling covers opening the device as well as the capture
	ceiling := e.clock.Timer(e.ceiling)
	defer ceiling.Stop()

	openCtx, cancelOpen := context.WithCancel(context.Background())
	defer cancelOpen()

	opened := make(chan openResult, 1)
	go func() {
		session, err := e.camera.Open(openCtx)
		opened <- openResult{session: session, err: err}
	}()

	var session ports.CaptureSession
	select {
	case res := <-opened:
		if res.err != nil {
			if errors.Is(res.err, domain.ErrDeviceUnavailable) {
				return domain.NoReading, res.err
			}
			return domain.NoReading, fmt.Errorf("%w: %w", domain.ErrDeviceUnavailable, res.err)
		}
		session = res.session

	case <-ceiling.C:
		go closeLate(opened)
		return domain.NoReading, fmt.Errorf("%w: camera did not open within %s", domain.ErrCaptureFailed, e.ceiling)

	case <-ctx.Done():
		go closeLate(opened)
		return domain.NoReading, ctx.Err()
	}

	// Cancelled and closed on every return, which also unblocks a
	// capture still in flight
	captureCtx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close capture session")
		}
	}()

	result := make(chan captureResult, 1)
	go func() {
		img, err := session.Capture(captureCtx)
		if err != nil {
			result <- captureResult{err: err}
			return
		}
		value, err := MeanBrightness(img)
		result <- captureResult{value: value, err: err}
	}()

	select {
	case res := <-result:
		if res.err != nil {
			return domain.NoReading, fmt.Errorf("%w: %w", domain.ErrCaptureFailed, res.err)
		}
		return res.value, nil

	case <-ceiling.C:
		return domain.NoReading, fmt.Errorf("%w: no frame within %s", domain.ErrCaptureFailed, e.ceiling)

	case <-ctx.Done():
		return domain.NoReading, ctx.Err()
	}
}

// closeLate waits for an abandoned Open and closes the session if one
// arrives after the query gave up
func closeLate(opened <-chan openResult) {
	res := <-opened
	if res.err != nil {
		return
	}
	if err := res.session.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close late capture session")
	}
	log.Warn().Msg("camera opened after the query gave up, session closed")
}

// Unit reports normalized channel intensity
func (e *CameraBrightnessEstimator) Unit() domain.Unit {
	return domain.UnitNormalized
}

func captureLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrDeviceUnavailable):
		return "device_unavailable"
	case errors.Is(err, domain.ErrCaptureFailed):
		return "capture_failed"
	}
	return "canceled"
}
