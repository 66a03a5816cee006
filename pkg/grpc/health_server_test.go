package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startBufconn(t *testing.T, s *HealthServer) grpc.DialOption {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func TestHealthServerTracksChecks(t *testing.T) {
	var redisDown atomic.Bool
	s := NewHealthServer(zaptest.NewLogger(t), time.Hour,
		Check{Name: "mysql", Ping: func(context.Context) error { return nil }},
		Check{Name: "redis", Ping: func(context.Context) error {
			if redisDown.Load() {
				return errors.New("connection refused")
			}
			return nil
		}},
	)
	dialer := startBufconn(t, s)
	ctx := context.Background()

	got, err := Probe(ctx, "passthrough:///bufnet", OrdersService, dialer)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, got)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, s.CheckNow(ctx))
	got, err = Probe(ctx, "passthrough:///bufnet", OrdersService, dialer)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, got)

	redisDown.Store(true)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, s.CheckNow(ctx))
	got, err = Probe(ctx, "passthrough:///bufnet", OrdersService, dialer)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, got)

	redisDown.Store(false)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, s.CheckNow(ctx))
}

func TestHealthServerOverallStatus(t *testing.T) {
	s := NewHealthServer(zaptest.NewLogger(t), time.Hour)
	dialer := startBufconn(t, s)

	got, err := Probe(context.Background(), "passthrough:///bufnet", "", dialer)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, got)
}

func TestProbeUnknownService(t *testing.T) {
	s := NewHealthServer(zaptest.NewLogger(t), time.Hour)
	dialer := startBufconn(t, s)

	_, err := Probe(context.Background(), "passthrough:///bufnet", "burger.v1.Nope", dialer)
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(errors.Unwrap(err)))
}

func TestRunStopsWithContext(t *testing.T) {
	var calls atomic.Int32
	s := NewHealthServer(zaptest.NewLogger(t), 10*time.Millisecond,
		Check{Name: "mongo", Ping: func(context.Context) error {
			calls.Add(1)
			return nil
		}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
