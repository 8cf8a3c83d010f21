package provider

import (
	"context"
	"errors"
	"image/color"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/quentinrf/lightlevel/internal/adapters/mock"
	"github.com/quentinrf/lightlevel/internal/domain"
	"github.com/quentinrf/lightlevel/internal/ports"
)

func TestCameraEstimator_Estimate(t *testing.T) {
	cam := mock.NewFakeCamera(color.RGBA{R: 255, G: 0, B: 0, A: 255})
	e := NewCameraBrightnessEstimator(cam)

	got, err := e.GetLightLevel(context.Background())
	if err != nil {
		t.Fatalf("GetLightLevel failed: %v", err)
	}
	if math.Abs(got-1.0/3.0) > 1e-9 {
		t.Errorf("expected 1/3, got %v", got)
	}
	if cam.OpenSessions() != 0 {
		t.Errorf("expected session to be released, %d still open", cam.OpenSessions())
	}
	if e.Unit() != domain.UnitNormalized {
		t.Errorf("expected normalized unit, got %v", e.Unit())
	}
}

func TestCameraEstimator_NoCaching(t *testing.T) {
	cam := mock.NewFakeCamera(color.Black)
	e := NewCameraBrightnessEstimator(cam)

	if _, err := e.GetLightLevel(context.Background()); err != nil {
		t.Fatalf("first query failed: %v", err)
	}
	cam.Color = color.White
	got, err := e.GetLightLevel(context.Background())
	if err != nil {
		t.Fatalf("second query failed: %v", err)
	}
	if got != 1.0 {
		t.Errorf("expected fresh measurement 1.0, got %v", got)
	}
	if cam.Opened() != 2 {
		t.Errorf("expected camera to be opened per query, got %d opens", cam.Opened())
	}
}

func TestCameraEstimator_DeviceUnavailable(t *testing.T) {
	cam := mock.NewFakeCamera(color.White)
	cam.Unavailable = true
	e := NewCameraBrightnessEstimator(cam)

	done := make(chan error, 1)
	go func() {
		_, err := e.GetLightLevel(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrDeviceUnavailable) {
			t.Errorf("expected ErrDeviceUnavailable, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("query without a camera did not resolve")
	}
}

func TestCameraEstimator_CeilingBound(t *testing.T) {
	cam := mock.NewFakeCamera(color.White)
	cam.Hang = true
	e := NewCameraBrightnessEstimator(cam, WithCeiling(50*time.Millisecond))

	start := time.Now()
	got, err := e.GetLightLevel(context.Background())
	elapsed := time.Since(start)

	if !errors.Is(err, domain.ErrCaptureFailed) {
		t.Errorf("expected ErrCaptureFailed, got %v", err)
	}
	if got != domain.NoReading {
		t.Errorf("expected sentinel on failure, got %v", got)
	}
	if elapsed > DefaultCeiling {
		t.Errorf("query took %v, longer than the ceiling", elapsed)
	}
	if cam.OpenSessions() != 0 {
		t.Errorf("expected camera released after ceiling, %d still open", cam.OpenSessions())
	}
}

func TestCameraEstimator_CeilingMockClock(t *testing.T) {
	clk := clock.NewMock()
	cam := mock.NewFakeCamera(color.White)
	cam.Hang = true
	cam.Capturing = make(chan struct{}, 1)
	e := NewCameraBrightnessEstimator(cam, WithClock(clk))

	done := make(chan error, 1)
	go func() {
		_, err := e.GetLightLevel(context.Background())
		done <- err
	}()

	// The ceiling timer is armed before the capture starts
	<-cam.Capturing

	clk.Add(DefaultCeiling - time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("resolved before the ceiling: %v", err)
	default:
	}

	clk.Add(time.Millisecond)
	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrCaptureFailed) {
			t.Errorf("expected ErrCaptureFailed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("query did not resolve at the ceiling")
	}
	if cam.OpenSessions() != 0 {
		t.Errorf("expected camera released, %d still open", cam.OpenSessions())
	}
}

func TestCameraEstimator_CallerCancels(t *testing.T) {
	cam := mock.NewFakeCamera(color.White)
	cam.Hang = true
	cam.Capturing = make(chan struct{}, 1)
	e := NewCameraBrightnessEstimator(cam)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := e.GetLightLevel(ctx)
		done <- err
	}()

	<-cam.Capturing
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled query did not resolve")
	}
	if cam.OpenSessions() != 0 {
		t.Errorf("expected camera released, %d still open", cam.OpenSessions())
	}
}

func TestCameraEstimator_SerializesQueries(t *testing.T) {
	cam := mock.NewFakeCamera(color.White)
	cam.Delay = 20 * time.Millisecond
	e := NewCameraBrightnessEstimator(cam)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.GetLightLevel(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("query failed: %v", err)
		}
	}
	if got := cam.MaxConcurrent(); got != 1 {
		t.Errorf("expected at most one open session, saw %d", got)
	}
}

// stuckCamera blocks in Open until release is closed, ignoring ctx like a
// wedged driver call, then hands out a session from cam.
type stuckCamera struct {
	cam     *mock.FakeCamera
	release chan struct{}
}

func (c *stuckCamera) Open(ctx context.Context) (ports.CaptureSession, error) {
	<-c.release
	return c.cam.Open(ctx)
}

func TestCameraEstimator_OpenHangs(t *testing.T) {
	cam := &stuckCamera{cam: mock.NewFakeCamera(color.White), release: make(chan struct{})}
	e := NewCameraBrightnessEstimator(cam, WithCeiling(50*time.Millisecond))

	done := make(chan error, 1)
	go func() {
		_, err := e.GetLightLevel(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrCaptureFailed) {
			t.Errorf("expected ErrCaptureFailed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("query still suspended on a stuck open")
	}

	// The slot is free again: a later query fails at its own ceiling
	// instead of waiting out its deadline
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if _, err := e.GetLightLevel(ctx); !errors.Is(err, domain.ErrCaptureFailed) {
		t.Errorf("expected second query to hit the ceiling, got %v", err)
	}

	// Sessions that open after the queries gave up are closed
	close(cam.release)
	deadline := time.Now().Add(time.Second)
	for cam.cam.Opened() < 2 || cam.cam.OpenSessions() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("late sessions not released: opened %d, open %d", cam.cam.Opened(), cam.cam.OpenSessions())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCameraEstimator_OpenHangsMockClock(t *testing.T) {
	clk := clock.NewMock()
	cam := &stuckCamera{cam: mock.NewFakeCamera(color.White), release: make(chan struct{})}
	defer close(cam.release)
	e := NewCameraBrightnessEstimator(cam, WithClock(clk))

	done := make(chan error, 1)
	go func() {
		_, err := e.GetLightLevel(context.Background())
		done <- err
	}()

	// Wait for the ceiling timer to be armed
	deadline := time.Now().Add(time.Second)
	for {
		clk.Add(DefaultCeiling)
		select {
		case err := <-done:
			if !errors.Is(err, domain.ErrCaptureFailed) {
				t.Errorf("expected ErrCaptureFailed, got %v", err)
			}
			return
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("query did not resolve at the ceiling")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
