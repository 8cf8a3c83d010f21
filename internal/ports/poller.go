package ports

import (
	"context"
	"errors"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/lightlevel/internal/domain"
)

// ReadFunc performs one poll of a device and returns the events it produced
type ReadFunc func(ctx context.Context) ([]SensorEvent, error)

// Poller turns a device that can only be read on demand into a sensor stream
type Poller struct {
	name  string
	clock clock.Clock
	read  ReadFunc
}

// NewPoller creates a poller; a nil clock means the wall clock
func NewPoller(name string, clk clock.Clock, read ReadFunc) *Poller {
	if clk == nil {
		clk = clock.New()
	}
	return &Poller{
		name:  name,
		clock: clk,
		read:  read,
	}
}

// Run polls at the delay's period until ctx is cancelled.
// Read errors are logged and skipped, except domain.ErrDeviceUnavailable
// which ends the stream.
func (p *Poller) Run(ctx context.Context, delay Delay, emit func(SensorEvent)) error {
	log.Info().
		Str("source", p.name).
		Dur("interval", delay.Period()).
		Msg("starting sensor poller")

	ticker := p.clock.Ticker(delay.Period())
	defer ticker.Stop()

	// Read immediately on start
	if err := p.pollOnce(ctx, emit); err != nil {
		return err
	}

	for {
		select {
		case <-ticker.C:
			if err := p.pollOnce(ctx, emit); err != nil {
				return err
			}

		case <-ctx.Done():
			log.Info().Str("source", p.name).Msg("stopping sensor poller")
			return nil
		}
	}
}

// pollOnce reads the device and forwards every event
func (p *Poller) pollOnce(ctx context.Context, emit func(SensorEvent)) error {
	events, err := p.read(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrDeviceUnavailable) {
			log.Error().Err(err).Str("source", p.name).Msg("sensor device lost")
			return err
		}
		log.Warn().Err(err).Str("source", p.name).Msg("failed to read sensor")
		return nil
	}

	for _, ev := range events {
		emit(ev)
	}
	return nil
}
