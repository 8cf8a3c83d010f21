// Package metrics holds the Prometheus collectors exported by the daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MethodCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lightlevel_method_calls_total",
			Help: "Method channel calls by channel, method and result.",
		},
		[]string{"channel", "method", "result"},
	)
	SensorEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lightlevel_sensor_events_total",
			Help: "Sensor events received, split by sensor type and whether they updated the cached value.",
		},
		[]string{"type", "accepted"},
	)
	SensorValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lightlevel_sensor_value",
			Help: "Most recent ambient light sensor value in lux.",
		},
	)
	CameraCaptures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lightlevel_camera_captures_total",
			Help: "Camera brightness estimates by result.",
		},
		[]string{"result"},
	)
	CameraCaptureDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lightlevel_camera_capture_seconds",
			Help:    "Time from session open to resolved camera estimate.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(MethodCalls)
	prometheus.MustRegister(SensorEvents)
	prometheus.MustRegister(SensorValue)
	prometheus.MustRegister(CameraCaptures)
	prometheus.MustRegister(CameraCaptureDuration)
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
