// Package main runs the product API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/abgdnv/productapi/internal/config"
	"github.com/abgdnv/productapi/internal/product/app"
	"github.com/abgdnv/productapi/internal/product/subscriber"
	"github.com/abgdnv/productapi/pkg/bootstrap"
	"github.com/abgdnv/productapi/pkg/client/healthcheck"
	"github.com/abgdnv/productapi/pkg/config/configloader"
	"github.com/abgdnv/productapi/pkg/messaging"
	"github.com/abgdnv/productapi/pkg/nats"
	"github.com/abgdnv/productapi/pkg/server"
	"github.com/abgdnv/productapi/pkg/telemetry"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  app.ServiceName,
		Usage: "REST API over an in-memory product catalog",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP, gRPC health and pprof servers",
				Action: serveCommand,
			},
			{
				Name:   "routes",
				Usage:  "Print every registered HTTP route as METHOD PATH",
				Action: routesCommand,
			},
			{
				Name:   "healthcheck",
				Usage:  "Query the gRPC health service of a running server",
				Action: healthcheckCommand,
			},
			{
				Name:   "events",
				Usage:  "Tail product change events from NATS JetStream",
				Action: eventsCommand,
			},
		},
		DefaultCommand: "serve",
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := configloader.Load[*config.Config](app.ServiceName, config.Defaults())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func serveCommand(c *cli.Context) error {
	if err := run(c.Context); err != nil {
		return err
	}
	log.Println("application stopped gracefully")
	return nil
}

// routesCommand lists the routes without starting any server or connecting to a broker.
func routesCommand(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.NATS.Enabled = false
	cfg.Telemetry.Enabled = false

	logger := bootstrap.NewLoggerTo(c.App.ErrWriter, "error")
	deps, err := app.SetupDependencies(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	routes, err := server.Routes(app.SetupHttpHandler(deps, cfg))
	if err != nil {
		return err
	}
	for _, route := range routes {
		if _, err := fmt.Fprintln(c.App.Writer, route); err != nil {
			return err
		}
	}
	return nil
}

// healthcheckCommand prints the serving status and fails unless it is SERVING.
func healthcheckCommand(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	conn, err := healthcheck.Dial(cfg.GRPCClient)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	status, err := healthcheck.Check(c.Context, conn, app.ServiceName)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(c.App.Writer, status); err != nil {
		return err
	}
	if status != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%s is %s", app.ServiceName, status)
	}
	return nil
}

// eventsCommand consumes the product events stream until interrupted.
func eventsCommand(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := bootstrap.NewLogger(cfg.Log.Level)
	telemetry.SetupPropagation()

	nc, err := nats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return err
	}
	defer func() { _ = nc.Drain() }()
	js, err := nats.NewJetStreamContext(nc)
	if err != nil {
		return err
	}
	if err := nats.EnsureStream(c.Context, js, cfg.NATS.Stream, messaging.ProductsSubjects); err != nil {
		return err
	}

	logger.Info("NATS subscriber started", slog.String("stream", cfg.NATS.Stream), slog.String("subject", cfg.Subscriber.Subject))
	err = subscriber.Start(c.Context, js, cfg.NATS.Stream, cfg.Subscriber, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("subscriber failed: %w", err)
	}
	logger.Info("subscriber stopped gracefully")
	return nil
}

// run initializes the application and starts the HTTP, gRPC and pprof servers.
func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	telemetry.SetupPropagation()
	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, app.ServiceName, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to create tracer provider: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shut down tracer provider", "error", err)
			}
		}()
	}

	deps, err := app.SetupDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to set up dependencies: %w", err)
	}
	defer deps.Close()

	httpServer := app.SetupHttpServer(deps, cfg)

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.GRPC.Enabled {
		grpcServer := app.SetupGrpcServer(deps, cfg.GRPC.ReflectionEnabled)
		// Start the gRPC server
		g.Go(func() error {
			grpcAddr := ":" + cfg.GRPC.Port
			lis, err := net.Listen("tcp", grpcAddr)
			if err != nil {
				return fmt.Errorf("failed to listen on gRPC port: %w", err)
			}
			logger.Info("gRPC server listening", slog.String("addr", grpcAddr))
			return grpcServer.Serve(lis)
		})
		// gracefully shutdown gRPC server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down gRPC server...")
			deps.Health.Shutdown()
			stopped := make(chan struct{})
			go func() {
				grpcServer.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
				logger.Info("gRPC server stopped gracefully.")
				return nil
			case <-time.After(cfg.Shutdown.Timeout):
				logger.Warn("gRPC server graceful stop timed out. Forcing stop.")
				grpcServer.Stop()
				return fmt.Errorf("grpc server graceful stop timed out")
			}
		})
		deps.Health.SetServingStatus(app.ServiceName, healthpb.HealthCheckResponse_SERVING)
	}

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		pprofServer := app.SetupPprofServer(cfg.PProf.Addr)
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
