package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/light-bringer/dynprice-service/internal/config"
	"github.com/light-bringer/dynprice-service/internal/obs"
	"github.com/light-bringer/dynprice-service/internal/services"
	transport "github.com/light-bringer/dynprice-service/internal/transport/http"
)

func main() {
	configPath := flag.String("config", ".", "Directory containing an optional config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 1. Load configuration from config.yaml and DYNPRICE_* variables
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := obs.InitLogger(cfg.LogLevel)

	log.Info("starting dynamic pricing service",
		"storage", cfg.Storage.Driver,
		"http_addr", cfg.HTTP.Addr,
		"grpc_addr", cfg.GRPC.Addr,
		"decay_enabled", cfg.Decay.Enabled,
		"decay_interval", cfg.Decay.Interval.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize service dependencies (DI container)
	svc, err := services.NewServiceOptions(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	defer svc.Close()

	// 3. Decay scheduler. It outlives the signal context so that Stop can drain it.
	if cfg.Decay.Enabled {
		if err := svc.Scheduler.Start(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("failed to start decay scheduler: %w", err)
		}
	}

	// 4. HTTP API
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           transport.NewRouter(svc.HTTPHandler, cfg.HTTP.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. gRPC health endpoint
	var (
		grpcServer   *grpc.Server
		healthServer *health.Server
		grpcLis      net.Listener
	)
	if cfg.GRPC.Addr != "" {
		grpcLis, err = net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC address: %w", err)
		}
		grpcServer = grpc.NewServer()
		healthServer = health.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthServer)
		reflection.Register(grpcServer)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server listening", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if grpcServer != nil {
		g.Go(func() error {
			log.Info("gRPC health server listening", "addr", cfg.GRPC.Addr)
			if err := grpcServer.Serve(grpcLis); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	// 6. Graceful shutdown: stop sweeping first, then drain requests.
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown)
		defer cancel()

		if healthServer != nil {
			healthServer.Shutdown()
		}

		var errs []error
		if err := svc.Scheduler.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("stop decay scheduler: %w", err))
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
