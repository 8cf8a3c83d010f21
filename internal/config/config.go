// Package config loads daemon settings from defaults, an optional YAML file
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Port        string
	MetricsAddr string // empty disables the /metrics listener

	Backend    string // "auto" | "sensor" | "camera"
	SensorType string // "iio" | "bh1750" | "mock"
	IIORoot    string
	I2CBus     string // empty selects the first bus
	I2CAddr    uint16

	CameraType     string // "webcam" | "snapshot" | "mock"
	CameraDevice   string
	CameraCommand  string
	CameraWidth    int
	CameraHeight   int
	CameraLockFile string

	TLSCert string // path to this service's certificate
	TLSKey  string // path to this service's private key
	TLSCA   string // path to the CA certificate

	LogLevel  string
	LogFormat string // "auto" | "console" | "json"
}

// Load reads configuration. An explicit path must exist; otherwise
// lightlevel.yaml is looked up in the working directory and /etc/lightlevel
// and silently skipped when absent. Environment variables override both,
// using the upper-cased key (PORT, SENSOR_TYPE, TLS_CERT, ...).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "50051")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("backend", "auto")
	v.SetDefault("sensor_type", "iio")
	v.SetDefault("iio_root", "/sys/bus/iio/devices")
	v.SetDefault("i2c_bus", "")
	v.SetDefault("i2c_addr", 0x23)
	v.SetDefault("camera_type", "webcam")
	v.SetDefault("camera_device", "")
	v.SetDefault("camera_command", "")
	v.SetDefault("camera_width", 640)
	v.SetDefault("camera_height", 480)
	v.SetDefault("camera_lock_file", "/tmp/lightlevel-camera.lock")
	v.SetDefault("tls_cert", "")
	v.SetDefault("tls_key", "")
	v.SetDefault("tls_ca", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "auto")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("lightlevel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/lightlevel")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{
		Port:           v.GetString("port"),
		MetricsAddr:    v.GetString("metrics_addr"),
		Backend:        strings.ToLower(v.GetString("backend")),
		SensorType:     strings.ToLower(v.GetString("sensor_type")),
		IIORoot:        v.GetString("iio_root"),
		I2CBus:         v.GetString("i2c_bus"),
		I2CAddr:        v.GetUint16("i2c_addr"),
		CameraType:     strings.ToLower(v.GetString("camera_type")),
		CameraDevice:   v.GetString("camera_device"),
		CameraCommand:  v.GetString("camera_command"),
		CameraWidth:    v.GetInt("camera_width"),
		CameraHeight:   v.GetInt("camera_height"),
		CameraLockFile: v.GetString("camera_lock_file"),
		TLSCert:        v.GetString("tls_cert"),
		TLSKey:         v.GetString("tls_key"),
		TLSCA:          v.GetString("tls_ca"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      strings.ToLower(v.GetString("log_format")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case "auto", "sensor", "camera":
	default:
		return fmt.Errorf("invalid backend %q: must be auto, sensor or camera", c.Backend)
	}
	switch c.SensorType {
	case "iio", "bh1750", "mock":
	default:
		return fmt.Errorf("invalid sensor_type %q: must be iio, bh1750 or mock", c.SensorType)
	}
	switch c.CameraType {
	case "webcam", "snapshot", "mock":
	default:
		return fmt.Errorf("invalid camera_type %q: must be webcam, snapshot or mock", c.CameraType)
	}
	if c.TLSCert != "" && (c.TLSKey == "" || c.TLSCA == "") {
		return fmt.Errorf("tls_cert requires tls_key and tls_ca")
	}
	return nil
}
