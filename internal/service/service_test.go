package service

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/quentinrf/lightlevel/internal/adapters/mock"
	"github.com/quentinrf/lightlevel/internal/channel"
	"github.com/quentinrf/lightlevel/internal/domain"
	"github.com/quentinrf/lightlevel/internal/ports"
	"github.com/quentinrf/lightlevel/internal/provider"
)

func newRouter(t *testing.T, p ports.LightLevelProvider) *channel.Router {
	t.Helper()
	r := channel.NewRouter()
	New(p).Register(r)
	return r
}

func TestGetLuxValue_SensorSentinel(t *testing.T) {
	reader := provider.NewSensorReader(mock.NewFakeSensor(500, 0, nil))
	r := newRouter(t, reader)

	got, err := r.Invoke(context.Background(), ChannelName, channel.MethodCall{Method: MethodGetLuxValue})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != domain.NoReading {
		t.Errorf("expected sentinel %v, got %v", domain.NoReading, got)
	}
}

func TestGetLuxValue_SensorValue(t *testing.T) {
	reader := provider.NewSensorReader(mock.NewFakeSensor(500, 0, nil))
	reader.OnSample(ports.SensorEvent{Type: ports.SensorLight, Values: []float64{640}})
	r := newRouter(t, reader)

	got, err := r.Invoke(context.Background(), ChannelName, channel.MethodCall{Method: MethodGetLuxValue})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != 640.0 {
		t.Errorf("expected 640, got %v", got)
	}
}

func TestGetLuxValue_Camera(t *testing.T) {
	est := provider.NewCameraBrightnessEstimator(mock.NewFakeCamera(color.White))
	r := newRouter(t, est)

	got, err := r.Invoke(context.Background(), ChannelName, channel.MethodCall{Method: MethodGetLuxValue})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != 1.0 {
		t.Errorf("expected 1.0, got %v", got)
	}
}

func TestGetLuxValue_CameraError(t *testing.T) {
	cam := mock.NewFakeCamera(color.White)
	cam.Unavailable = true
	r := newRouter(t, provider.NewCameraBrightnessEstimator(cam))

	_, err := r.Invoke(context.Background(), ChannelName, channel.MethodCall{Method: MethodGetLuxValue})

	var chErr *channel.Error
	if !errors.As(err, &chErr) {
		t.Fatalf("expected *channel.Error, got %v", err)
	}
	if chErr.Code != CodeCameraError {
		t.Errorf("expected code %s, got %s", CodeCameraError, chErr.Code)
	}
	if chErr.Message != "Failed to get brightness from camera" {
		t.Errorf("unexpected message %q", chErr.Message)
	}
}

func TestUnknownMethod(t *testing.T) {
	r := newRouter(t, provider.NewSensorReader(mock.NewFakeSensor(500, 0, nil)))

	for _, method := range []string{"getLux", "startListening", ""} {
		got, err := r.Invoke(context.Background(), ChannelName, channel.MethodCall{Method: method})
		if !errors.Is(err, channel.ErrNotImplemented) {
			t.Errorf("method %q: expected ErrNotImplemented, got %v", method, err)
		}
		if got != nil {
			t.Errorf("method %q: expected no value, got %v", method, got)
		}
	}
}

func TestStartStop_ForwardsToLifecycle(t *testing.T) {
	reader := provider.NewSensorReader(mock.NewFakeSensor(500, 0, nil))
	svc := New(reader)

	svc.Start()
	if !reader.Listening() {
		t.Error("expected sensor reader to be listening after Start")
	}
	svc.Stop()
	if reader.Listening() {
		t.Error("expected sensor reader to be stopped after Stop")
	}

	// Providers without a lifecycle are left alone
	cam := New(provider.NewCameraBrightnessEstimator(mock.NewFakeCamera(color.Black)))
	cam.Start()
	cam.Stop()
}

func TestReady(t *testing.T) {
	source := mock.NewFakeSensor(500, 0, nil)
	reader := provider.NewSensorReader(source)
	svc := New(reader)

	if svc.Ready() {
		t.Error("expected not ready before Start")
	}
	svc.Start()
	if !svc.Ready() {
		t.Error("expected ready while listening")
	}
	svc.Stop()
	if svc.Ready() {
		t.Error("expected not ready after Stop")
	}

	// Camera providers measure per call and are always ready
	cam := New(provider.NewCameraBrightnessEstimator(mock.NewFakeCamera(color.Black)))
	if !cam.Ready() {
		t.Error("expected camera service to be ready")
	}
}
