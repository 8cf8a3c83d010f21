package ports

import (
	"context"

	"github.com/quentinrf/lightlevel/internal/domain"
)

// LightLevelProvider answers the light level query.
// Variants: sensor backed (cached lux) and camera backed (measured per call).
type LightLevelProvider interface {
	GetLightLevel(ctx context.Context) (float64, error)

	// Unit reports how returned values should be read
	Unit() domain.Unit
}

// Lifecycle is implemented by providers that hold a subscription open
type Lifecycle interface {
	Start()
	Stop()

	// Listening is false once the subscription ended, by Stop or because
	// the source went away
	Listening() bool
}
