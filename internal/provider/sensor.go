package provider

import (
	"context"
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/lightlevel/internal/domain"
	"github.com/quentinrf/lightlevel/internal/metrics"
	"github.com/quentinrf/lightlevel/internal/ports"
)

// SensorReader caches the latest value of an ambient light sensor stream.
// It implements ports.LightLevelProvider and ports.Lifecycle.
type SensorReader struct {
	source ports.SensorSource
	delay  ports.Delay

	// float64 bits of the latest lux value
	value atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSensorReader creates a stopped reader subscribed at the normal delay class
func NewSensorReader(source ports.SensorSource) *SensorReader {
	r := &SensorReader{
		source: source,
		delay:  ports.DelayNormal,
	}
	r.value.Store(math.Float64bits(domain.NoReading))
	return r
}

// Start subscribes to the sensor source. Calling Start while already
// listening does nothing.
func (r *SensorReader) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	log.Info().Str("source", r.source.Name()).Msg("sensor reader listening")

	go func() {
		defer close(done)

		if err := r.source.Run(ctx, r.delay, r.OnSample); err != nil {
			log.Error().Err(err).Str("source", r.source.Name()).Msg("sensor stream ended")

			// Fall back to Stopped unless Stop already took over
			r.mu.Lock()
			if r.done == done {
				r.cancel()
				r.cancel = nil
				r.done = nil
			}
			r.mu.Unlock()
		}
	}()
}

// Stop unsubscribes and waits for the source to wind down.
// It is safe to call on a reader that was never started.
func (r *SensorReader) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	log.Info().Str("source", r.source.Name()).Msg("sensor reader stopped")
}

// Listening reports whether the reader currently holds a subscription
func (r *SensorReader) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// OnSample records an event from the sensor stream. Only ambient light
// events with at least one value overwrite the cache; there is no smoothing.
func (r *SensorReader) OnSample(ev ports.SensorEvent) {
	accepted := ev.Type == ports.SensorLight && len(ev.Values) > 0
	metrics.SensorEvents.WithLabelValues(ev.Type.String(), strconv.FormatBool(accepted)).Inc()
	if !accepted {
		return
	}

	lux := ev.Values[0]
	r.value.Store(math.Float64bits(lux))
	metrics.SensorValue.Set(lux)

	log.Debug().Float64("lux", lux).Msg("light sample")
}

// GetLightLevel returns the cached value, or domain.NoReading before the
// first sample. It never blocks and never fails.
func (r *SensorReader) GetLightLevel(ctx context.Context) (float64, error) {
	return math.Float64frombits(r.value.Load()), nil
}

// Unit reports lux
func (r *SensorReader) Unit() domain.Unit {
	return domain.UnitLux
}
