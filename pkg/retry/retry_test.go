package retry

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profilesync/pkg/errors"
	"profilesync/pkg/logger"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewTestLogger(),
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientError(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errors.New(errors.ErrorTypeNetwork, 0, "connection reset")
		}
		return nil
	}, fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	authErr := errors.New(errors.ErrorTypeAuth, 401, "session expired")
	err := Do(func() error {
		calls++
		return authErr
	}, fastConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	var apiErr *errors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrorTypeAuth, apiErr.Type)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errors.New(errors.ErrorTypeServerError, 503, "unavailable")
	}, fastConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "max retry attempts")
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(0)
	cfg.Context = ctx
	cfg.Backoff = &ConstantBackoff{Delay: time.Minute}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(func() error {
			calls++
			return errors.New(errors.ErrorTypeNetwork, 0, "flaky")
		}, cfg)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	result, err := DoWithResult(func() ([]byte, error) {
		calls++
		if calls < 2 {
			return nil, errors.New(errors.ErrorTypeNetwork, 0, "timeout")
		}
		return []byte("payload"), nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), result)
	assert.Equal(t, 2, calls)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.True(t, DefaultRetryIf(errors.New(errors.ErrorTypeNetwork, 0, "x")))
	assert.True(t, DefaultRetryIf(errors.New(errors.ErrorTypeRateLimit, 429, "x")))
	assert.True(t, DefaultRetryIf(errors.New(errors.ErrorTypeServerError, 500, "x")))
	assert.False(t, DefaultRetryIf(errors.New(errors.ErrorTypeAuth, 401, "x")))
	assert.False(t, DefaultRetryIf(errors.New(errors.ErrorTypeParsing, 200, "x")))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.True(t, DefaultRetryIf(stderrors.New("plain error")))
}

func TestExponentialBackoffGrowth(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	assert.Equal(t, time.Duration(0), eb.NextDelay(0))
	assert.Equal(t, 100*time.Millisecond, eb.NextDelay(1))
	assert.Equal(t, 200*time.Millisecond, eb.NextDelay(2))
	assert.Equal(t, 400*time.Millisecond, eb.NextDelay(3))
	// Capped at MaxDelay.
	assert.Equal(t, time.Second, eb.NextDelay(10))
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	eb := DefaultExponentialBackoff()
	for attempt := 1; attempt <= 5; attempt++ {
		for i := 0; i < 20; i++ {
			d := eb.NextDelay(attempt)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, eb.MaxDelay+time.Duration(float64(eb.MaxDelay)*eb.JitterFactor))
		}
	}
}
