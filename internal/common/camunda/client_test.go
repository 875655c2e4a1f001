package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"intent-service/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(max int) *RetryConfig {
	return &RetryConfig{MaxRetries: max, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"broken pipe", true},
		{"NOT_FOUND: job not found", false},
		{"permission denied", false},
	}

	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(errors.New(tt.err)))
		})
	}
}

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	calls := 0
	err := ExecuteWithRetry(context.Background(), fastRetry(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, "topology")

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := ExecuteWithRetry(context.Background(), fastRetry(3), func(context.Context) error {
		calls++
		return errors.New("permission denied")
	}, "complete-job")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "complete-job")
}

func TestExecuteWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := ExecuteWithRetry(context.Background(), fastRetry(2), func(context.Context) error {
		calls++
		return errors.New("unavailable")
	}, "topology")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestConfigFromApp(t *testing.T) {
	cc := ConfigFromApp(config.CamundaConfig{BrokerAddress: "zeebe:26500", RequestTimeout: 1500})

	assert.Equal(t, "zeebe:26500", cc.GatewayAddress)
	assert.Equal(t, 1500*time.Millisecond, cc.RequestTimeout)
	assert.True(t, cc.UsePlaintextConnection)
	assert.Equal(t, DefaultRetryConfig, cc.RetryConfig)
}

func TestCheckTopology_UsesClientPolicy(t *testing.T) {
	c := &Client{config: &ClientConfig{
		ConnectionTimeout: time.Minute,
		RequestTimeout:    50 * time.Millisecond,
		RetryConfig:       fastRetry(2),
	}}

	calls := 0
	err := c.checkTopology(context.Background(), func(ctx context.Context) error {
		calls++
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.LessOrEqual(t, time.Until(deadline), 50*time.Millisecond)
		return errors.New("unavailable")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "topology")
}

func TestCheckTopology_FallsBackToConnectionTimeout(t *testing.T) {
	c := &Client{config: &ClientConfig{
		ConnectionTimeout: 80 * time.Millisecond,
		RetryConfig:       fastRetry(0),
	}}

	err := c.checkTopology(context.Background(), func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.LessOrEqual(t, time.Until(deadline), 80*time.Millisecond)
		assert.Greater(t, time.Until(deadline), 50*time.Millisecond)
		return nil
	})

	assert.NoError(t, err)
}
