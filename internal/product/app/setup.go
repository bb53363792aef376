// Package app contains the application setup for the product API.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/productapi/internal/config"
	"github.com/abgdnv/productapi/internal/product/service"
	"github.com/abgdnv/productapi/internal/product/store"
	"github.com/abgdnv/productapi/internal/product/transport/rest"
	"github.com/abgdnv/productapi/pkg/messaging"
	"github.com/abgdnv/productapi/pkg/metrics"
	"github.com/abgdnv/productapi/pkg/nats"
	"github.com/abgdnv/productapi/pkg/server"
	"github.com/abgdnv/productapi/pkg/telemetry"
	"github.com/abgdnv/productapi/pkg/web"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// ServiceName names the service in configuration, metrics and traces.
const ServiceName = "productapi"

const pprofReadHeaderTimeout = 5 * time.Second

type Dependencies struct {
	Store          store.ProductStore
	ProductService service.ProductService
	Metrics        *metrics.Metrics
	Health         *health.Server
	Logger         *slog.Logger

	closers []func()
}

// SetupDependencies builds the product store with the seed data and everything that depends on it.
// Close must be called to release the broker connection.
func SetupDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Store:   store.NewInMemoryStore(store.SeedProducts()...),
		Metrics: metrics.New(ServiceName),
		Health:  health.NewServer(),
		Logger:  logger,
	}
	deps.Metrics.RegisterProductsGauge(ServiceName, deps.Store.Len)

	publisher, err := deps.setupPublisher(ctx, cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.ProductService = service.NewService(deps.Store, publisher, logger)
	return deps, nil
}

// setupPublisher connects to NATS when enabled. Without a broker events are dropped.
func (d *Dependencies) setupPublisher(ctx context.Context, cfg *config.Config) (messaging.Publisher, error) {
	if !cfg.NATS.Enabled {
		d.Logger.Info("NATS disabled, product events will not be published")
		return messaging.NoopPublisher{}, nil
	}
	nc, err := nats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, func() {
		if err := nc.Drain(); err != nil {
			d.Logger.Error("Failed to drain NATS connection", "error", err)
		}
	})
	js, err := nats.NewJetStreamContext(nc)
	if err != nil {
		return nil, err
	}
	if err := nats.EnsureStream(ctx, js, cfg.NATS.Stream, messaging.ProductsSubjects); err != nil {
		return nil, err
	}
	d.Logger.Info("Publishing product events to NATS", "url", cfg.NATS.Url, "stream", cfg.NATS.Stream)

	breaker := messaging.NewBreakerPublisher(nats.NewNatsPublisher(js, cfg.NATS.Timeout), cfg.CircuitBreaker, d.Logger)
	return messaging.NewObservedPublisher(breaker, d.Metrics), nil
}

// Close releases external connections in reverse order of creation.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

// SetupHttpHandler initializes the router and routes of the product API.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies, cfg *config.Config) *chi.Mux {
	var extra []func(http.Handler) http.Handler
	if cfg.Telemetry.Enabled {
		extra = append(extra, telemetry.Middleware(ServiceName))
	}
	if cfg.Metrics.Enabled {
		extra = append(extra, deps.Metrics.Middleware)
	}
	mux := server.NewChiRouter(deps.Logger, extra...)
	if cfg.Metrics.Enabled {
		mux.Method(http.MethodGet, cfg.Metrics.Path, deps.Metrics.Handler())
	}

	protect := web.APIKeyAuth(cfg.Auth.Header, cfg.Auth.APIKey, deps.Logger, deps.Metrics)
	rest.NewHandler(deps.ProductService, deps.Logger).RegisterRoutes(mux, protect)
	return mux
}

// SetupHttpServer creates and configures an HTTP server for the product API.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps, cfg))
}

// SetupGrpcServer initializes the gRPC server exposing the standard health service.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(reflectionEnabled, server.WithHealth(deps.Health))
}

// SetupPprofServer creates the pprof server listening on addr, serving http.DefaultServeMux.
func SetupPprofServer(addr string) *http.Server {
	return &http.Server{Addr: addr, ReadHeaderTimeout: pprofReadHeaderTimeout}
}
