package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ezrelo/internal/common/config"
	"ezrelo/internal/common/errors"
)

var fastRetry = &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestExecuteWithRetry_RecoversFromTransientError(t *testing.T) {
	calls := 0
	err := executeWithRetry(context.Background(), fastRetry, "complete-job", func(context.Context) error {
		calls++
		if calls < 2 {
			return stderrors.New("rpc error: code = Unavailable")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestExecuteWithRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := executeWithRetry(context.Background(), fastRetry, "complete-job", func(context.Context) error {
		calls++
		return stderrors.New("job not found")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	stdErr := errors.AsStandard(err)
	assert.Equal(t, errors.ErrCodeBackendUnavailable, stdErr.Code)
}

func TestExecuteWithRetry_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := executeWithRetry(context.Background(), fastRetry, "complete-job", func(context.Context) error {
		calls++
		return stderrors.New("connection refused")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, errors.AsStandard(err).Details, "after 3 attempts")
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("context deadline exceeded")))
	assert.True(t, isRetryableZeebeError(stderrors.New("Connection Reset by peer")))
	assert.False(t, isRetryableZeebeError(stderrors.New("invalid variables")))
}

func TestClientConfigFrom(t *testing.T) {
	cc := ClientConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500", RequestTimeout: 2500})
	assert.Equal(t, "zeebe:26500", cc.GatewayAddress)
	assert.Equal(t, 2500*time.Millisecond, cc.ConnectionTimeout)
	assert.True(t, cc.UsePlaintextConnection)

	cc = ClientConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500"})
	assert.Equal(t, 10*time.Second, cc.ConnectionTimeout)
}
