package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "50051" {
		t.Errorf("expected port 50051, got %s", cfg.Port)
	}
	if cfg.Backend != "auto" {
		t.Errorf("expected backend auto, got %s", cfg.Backend)
	}
	if cfg.SensorType != "iio" {
		t.Errorf("expected sensor_type iio, got %s", cfg.SensorType)
	}
	if cfg.I2CAddr != 0x23 {
		t.Errorf("expected i2c_addr 0x23, got %#x", cfg.I2CAddr)
	}
	if cfg.CameraWidth != 640 || cfg.CameraHeight != 480 {
		t.Errorf("expected 640x480, got %dx%d", cfg.CameraWidth, cfg.CameraHeight)
	}
	if cfg.MetricsAddr != "" {
		t.Errorf("expected metrics disabled, got %q", cfg.MetricsAddr)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "6000")
	t.Setenv("SENSOR_TYPE", "MOCK")
	t.Setenv("BACKEND", "sensor")
	t.Setenv("CAMERA_WIDTH", "320")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "6000" {
		t.Errorf("expected port 6000, got %s", cfg.Port)
	}
	if cfg.SensorType != "mock" {
		t.Errorf("expected sensor_type mock, got %s", cfg.SensorType)
	}
	if cfg.Backend != "sensor" {
		t.Errorf("expected backend sensor, got %s", cfg.Backend)
	}
	if cfg.CameraWidth != 320 {
		t.Errorf("expected camera_width 320, got %d", cfg.CameraWidth)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lightlevel.yaml")
	data := []byte("port: \"7000\"\ncamera_type: snapshot\ncamera_command: cat frame.png\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "7000" {
		t.Errorf("expected port 7000, got %s", cfg.Port)
	}
	if cfg.CameraType != "snapshot" {
		t.Errorf("expected camera_type snapshot, got %s", cfg.CameraType)
	}
	if cfg.CameraCommand != "cat frame.png" {
		t.Errorf("unexpected camera_command %q", cfg.CameraCommand)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "backend", env: map[string]string{"BACKEND": "radar"}},
		{name: "sensor type", env: map[string]string{"SENSOR_TYPE": "gpio"}},
		{name: "camera type", env: map[string]string{"CAMERA_TYPE": "ir"}},
		{name: "partial tls", env: map[string]string{"TLS_CERT": "server.crt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSetupLogger(t *testing.T) {
	prevLevel, prevLogger := zerolog.GlobalLevel(), log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prevLevel)
		log.Logger = prevLogger
	})

	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "defaults", level: "info", format: "auto"},
		{name: "debug json", level: "debug", format: "json"},
		{name: "console", level: "warn", format: "console"},
		{name: "invalid level", level: "banana", format: "json", wantErr: true},
		{name: "invalid format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SetupLogger(&Config{LogLevel: tt.level, LogFormat: tt.format})
			if (err != nil) != tt.wantErr {
				t.Errorf("SetupLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
