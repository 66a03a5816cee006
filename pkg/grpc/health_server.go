package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// OrdersService is the name reported for the order backend as a whole.
const OrdersService = "burger.v1.Orders"

// Check pings one dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthServer exposes grpc.health.v1. OrdersService is SERVING only while
// every check passes.
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	checks   []Check
	logger   *zap.Logger
	interval time.Duration
	timeout  time.Duration

	mu     sync.Mutex
	failed map[string]error
}

func NewHealthServer(logger *zap.Logger, interval time.Duration, checks ...Check) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus(OrdersService, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		server:   srv,
		health:   hs,
		checks:   checks,
		logger:   logger,
		interval: interval,
		timeout:  2 * time.Second,
		failed:   make(map[string]error),
	}
}

// Serve blocks until the listener fails or Stop is called.
func (s *HealthServer) Serve(lis net.Listener) error {
	s.logger.Info("Health service started", zap.String("address", lis.Addr().String()))
	return s.server.Serve(lis)
}

// Run checks dependencies every interval until ctx is done.
func (s *HealthServer) Run(ctx context.Context) {
	s.CheckNow(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckNow(ctx)
		}
	}
}

// CheckNow runs every check once and updates the serving status.
func (s *HealthServer) CheckNow(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	failed := make(map[string]error)
	for _, c := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := c.Ping(cctx)
		cancel()
		if err != nil {
			failed[c.Name] = err
		}
	}

	s.mu.Lock()
	for name, err := range failed {
		if _, was := s.failed[name]; !was {
			s.logger.Warn("Dependency unhealthy", zap.String("dependency", name), zap.Error(err))
		}
	}
	for name := range s.failed {
		if _, still := failed[name]; !still {
			s.logger.Info("Dependency recovered", zap.String("dependency", name))
		}
	}
	s.failed = failed
	s.mu.Unlock()

	status := healthpb.HealthCheckResponse_SERVING
	if len(failed) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(OrdersService, status)
	return status
}

// Stop marks everything NOT_SERVING and stops the server gracefully.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

// Probe asks the health service at target for the status of service.
func Probe(ctx context.Context, target, service string, opts ...grpc.DialOption) (healthpb.HealthCheckResponse_ServingStatus, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check failed: %w", err)
	}
	return resp.GetStatus(), nil
}
