// Package service publishes the light level query on a method channel.
package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/lightlevel/internal/channel"
	"github.com/quentinrf/lightlevel/internal/domain"
	"github.com/quentinrf/lightlevel/internal/ports"
)

const (
	// ChannelName is the method channel the service answers on
	ChannelName = "com.example.myapp/light_sensor"

	// MethodGetLuxValue is the only method served
	MethodGetLuxValue = "getLuxValue"

	// CodeCameraError is reported when the camera produced no frame
	CodeCameraError = "CAMERA_ERROR"

	cameraErrorMessage = "Failed to get brightness from camera"
)

// LightLevelService routes getLuxValue to the active provider
type LightLevelService struct {
	provider ports.LightLevelProvider
}

// New creates a service around the provider selected at startup
func New(provider ports.LightLevelProvider) *LightLevelService {
	return &LightLevelService{provider: provider}
}

// Register installs the service's handler on m under ChannelName
func (s *LightLevelService) Register(m channel.Messenger) {
	m.SetMethodCallHandler(ChannelName, s.HandleMethodCall)
	log.Info().
		Str("channel", ChannelName).
		Str("unit", string(s.provider.Unit())).
		Msg("light level handler registered")
}

// Start activates providers that keep a subscription open
func (s *LightLevelService) Start() {
	if lc, ok := s.provider.(ports.Lifecycle); ok {
		lc.Start()
	}
}

// Stop releases the provider's subscription, if any
func (s *LightLevelService) Stop() {
	if lc, ok := s.provider.(ports.Lifecycle); ok {
		lc.Stop()
	}
}

// Ready reports whether answers are current. A sensor provider whose
// stream ended still answers, but only with its last cached value.
func (s *LightLevelService) Ready() bool {
	if lc, ok := s.provider.(ports.Lifecycle); ok {
		return lc.Listening()
	}
	return true
}

// HandleMethodCall answers getLuxValue and rejects every other method
// with channel.ErrNotImplemented.
func (s *LightLevelService) HandleMethodCall(ctx context.Context, call channel.MethodCall) (any, error) {
	switch call.Method {
	case MethodGetLuxValue:
		return s.getLuxValue(ctx)
	default:
		log.Warn().Str("method", call.Method).Msg("unknown method")
		return nil, channel.ErrNotImplemented
	}
}

func (s *LightLevelService) getLuxValue(ctx context.Context) (any, error) {
	value, err := s.provider.GetLightLevel(ctx)
	if err == nil {
		return value, nil
	}

	cameraFailure := s.provider.Unit() == domain.UnitNormalized &&
		(errors.Is(err, domain.ErrDeviceUnavailable) || errors.Is(err, domain.ErrCaptureFailed))
	if cameraFailure {
		return nil, &channel.Error{
			Code:    CodeCameraError,
			Message: cameraErrorMessage,
			Details: err.Error(),
		}
	}
	return nil, err
}
