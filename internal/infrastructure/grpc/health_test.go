package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestSetPaused(t *testing.T) {
	res := NewGRPCServer()
	ctx := context.Background()

	SetPaused(res.Health, false)
	resp, err := res.Health.Check(ctx, &healthpb.HealthCheckRequest{Service: BillingService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	SetPaused(res.Health, true)
	resp, err = res.Health.Check(ctx, &healthpb.HealthCheckRequest{Service: BillingService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	res.Health.Shutdown()
	resp, err = res.Health.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
