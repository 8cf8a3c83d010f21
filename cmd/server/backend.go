package main

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/lightlevel/internal/adapters/bh1750"
	"github.com/quentinrf/lightlevel/internal/adapters/iio"
	"github.com/quentinrf/lightlevel/internal/adapters/mock"
	"github.com/quentinrf/lightlevel/internal/adapters/snapshot"
	"github.com/quentinrf/lightlevel/internal/adapters/webcam"
	"github.com/quentinrf/lightlevel/internal/config"
	"github.com/quentinrf/lightlevel/internal/domain"
	"github.com/quentinrf/lightlevel/internal/ports"
	"github.com/quentinrf/lightlevel/internal/provider"
)

// selectProvider picks the backend once at startup. With backend=auto a
// present light sensor wins and the camera estimator is the fallback. The
// returned close func releases the sensor source, if one was opened.
func selectProvider(cfg *config.Config) (ports.LightLevelProvider, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "camera":
		return provider.NewCameraBrightnessEstimator(openCamera(cfg)), noop, nil

	case "sensor":
		source, err := openSensor(cfg)
		if err != nil {
			return nil, nil, err
		}
		return provider.NewSensorReader(source), source.Close, nil

	default:
		source, err := openSensor(cfg)
		if err == nil {
			return provider.NewSensorReader(source), source.Close, nil
		}
		if !errors.Is(err, domain.ErrDeviceUnavailable) {
			return nil, nil, err
		}
		log.Info().Err(err).Msg("no light sensor present, falling back to camera")
		return provider.NewCameraBrightnessEstimator(openCamera(cfg)), noop, nil
	}
}

// openSensor returns the configured sensor source or an error wrapping
// domain.ErrDeviceUnavailable when the hardware is absent.
func openSensor(cfg *config.Config) (ports.SensorSource, error) {
	switch cfg.SensorType {
	case "mock":
		log.Info().Msg("initialized mock sensor")
		return mock.NewFakeSensor(500.0, 100.0, nil), nil // 500±100 lux (indoor lighting)

	case "bh1750":
		s, err := bh1750.Open(cfg.I2CBus, cfg.I2CAddr, nil)
		if err != nil {
			return nil, err
		}
		log.Info().Str("bus", cfg.I2CBus).Uint16("addr", cfg.I2CAddr).Msg("initialized BH1750 sensor")
		return s, nil

	default:
		devices, err := iio.Discover(cfg.IIORoot)
		if err != nil {
			return nil, err
		}
		if len(devices) == 0 {
			return nil, fmt.Errorf("%w: no illuminance device under %s", domain.ErrDeviceUnavailable, cfg.IIORoot)
		}
		dev := devices[0]
		log.Info().Str("path", dev.Path).Str("name", dev.Name).Msg("initialized IIO sensor")
		return iio.NewSensor(dev, nil), nil
	}
}

// openCamera never fails; a missing camera surfaces on the first query
func openCamera(cfg *config.Config) ports.Camera {
	switch cfg.CameraType {
	case "mock":
		log.Info().Msg("initialized mock camera")
		return mock.NewFakeCamera(color.Gray{Y: 128})

	case "snapshot":
		log.Info().Str("command", cfg.CameraCommand).Msg("initialized snapshot camera")
		return snapshot.New(snapshot.Config{
			Command:  cfg.CameraCommand,
			Device:   cfg.CameraDevice,
			LockFile: cfg.CameraLockFile,
		})

	default:
		log.Info().Str("device", cfg.CameraDevice).Msg("initialized webcam")
		return webcam.New(webcam.Config{
			Device:   cfg.CameraDevice,
			Width:    cfg.CameraWidth,
			Height:   cfg.CameraHeight,
			LockFile: cfg.CameraLockFile,
		})
	}
}
