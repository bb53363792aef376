// Package healthcheck probes the standard gRPC health service of a running server.
package healthcheck

import (
	"context"
	"fmt"

	"github.com/abgdnv/productapi/pkg/client/grpc/interceptors"
	"github.com/abgdnv/productapi/pkg/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Dial creates a client for cfg.Addr with the timeout and retry interceptors.
// opts are appended after the defaults.
func Dial(cfg config.GrpcClientConfig, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(
			interceptors.UnaryClientTimeoutInterceptor(cfg.Timeout),
			interceptors.NewRetryInterceptor(cfg.Retry),
		),
	}, opts...)
	conn, err := grpc.NewClient(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", cfg.Addr, err)
	}
	return conn, nil
}

// Check returns the serving status of service. An empty service asks for the server as a whole.
func Check(ctx context.Context, conn grpc.ClientConnInterface, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check of %q failed: %w", service, err)
	}
	return resp.GetStatus(), nil
}
