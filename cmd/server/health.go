package main

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/quentinrf/lightlevel/internal/service"
)

const healthInterval = 5 * time.Second

type readiness interface {
	Ready() bool
}

// watchHealth mirrors the service's readiness into the gRPC health server,
// both for the channel name and for the server as a whole, until ctx ends.
func watchHealth(ctx context.Context, svc readiness, hs *health.Server, clk clock.Clock, interval time.Duration) {
	ticker := clk.Ticker(interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if !svc.Ready() {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		if status == last {
			return
		}
		if status == healthpb.HealthCheckResponse_NOT_SERVING {
			log.Warn().Msg("light sensor stream stopped, serving last cached value")
		} else if last != healthpb.HealthCheckResponse_UNKNOWN {
			log.Info().Msg("light sensor stream resumed")
		}
		last = status
		hs.SetServingStatus("", status)
		hs.SetServingStatus(service.ChannelName, status)
	}

	update()
	for {
		select {
		case <-ticker.C:
			update()
		case <-ctx.Done():
			return
		}
	}
}
