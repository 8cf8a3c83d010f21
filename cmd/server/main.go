package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcAdapter "github.com/quentinrf/lightlevel/internal/adapters/grpc"
	"github.com/quentinrf/lightlevel/internal/channel"
	"github.com/quentinrf/lightlevel/internal/config"
	"github.com/quentinrf/lightlevel/internal/metrics"
	"github.com/quentinrf/lightlevel/internal/service"
	"github.com/quentinrf/lightlevel/pkg/channelpb"
	"github.com/quentinrf/lightlevel/pkg/tlsconfig"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: lightlevel.yaml in . or /etc/lightlevel)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.SetupLogger(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logger: %v\n", err)
		os.Exit(1)
	}

	log.Info().Str("backend", cfg.Backend).Msg("starting light level service")

	// Pick the provider once; nothing re-probes hardware after this
	provider, closeSource, err := selectProvider(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize light level provider")
	}
	defer closeSource()

	router := channel.NewRouter()
	svc := service.New(provider)
	svc.Register(router)

	handler := grpcAdapter.NewMethodChannelHandler(router)

	// Configure TLS if certificates are provided
	var serverOpts []grpc.ServerOption
	if cfg.TLSCert != "" {
		tlsCfg, err := tlsconfig.LoadServerTLS(cfg.TLSCert, cfg.TLSKey, cfg.TLSCA)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load TLS config")
		}
		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(tlsCfg)))
		log.Info().Msg("mTLS enabled")
	} else {
		log.Warn().Msg("TLS_CERT not set, starting without TLS (dev mode only)")
	}

	grpcServer := grpc.NewServer(serverOpts...)
	channelpb.RegisterMethodChannelServer(grpcServer, handler)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// Enable gRPC reflection for grpcurl testing
	reflection.Register(grpcServer)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Port))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to listen")
	}

	log.Info().Str("port", cfg.Port).Msg("gRPC server listening")

	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatal().Err(err).Msg("failed to serve")
		}
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	// Subscribe to the sensor, if any, now that the listener is up
	svc.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchHealth(ctx, svc, healthServer, clock.New(), healthInterval)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	cancel()
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	svc.Stop()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown")
		}
	}

	log.Info().Msg("server stopped")
}
