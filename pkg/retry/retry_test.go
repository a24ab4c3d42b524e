package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestRetryProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("backoff never exceeds the max interval", prop.ForAll(
		func(attempt int) bool {
			opts := RetryOptions{
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     2 * time.Second,
				Multiplier:      2.0,
			}
			backoff := CalculateBackoff(attempt, opts)
			return backoff <= opts.MaxInterval && backoff >= 0
		},
		gen.IntRange(1, 20),
	))

	properties.Property("backoff is non-decreasing in the attempt number", prop.ForAll(
		func(attempt int) bool {
			opts := RetryOptions{
				InitialInterval: 50 * time.Millisecond,
				MaxInterval:     10 * time.Second,
				Multiplier:      2.0,
			}
			return CalculateBackoff(attempt+1, opts) >= CalculateBackoff(attempt, opts)
		},
		gen.IntRange(1, 15),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, RetryOptions{
		MaxAttempts:     5,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return permanent
	}, RetryOptions{
		MaxAttempts:     5,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
		Classifier:      func(err error) bool { return false },
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return errors.New("always")
	}, RetryOptions{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func() error {
		return errors.New("transient")
	}, RetryOptions{
		MaxAttempts:     5,
		InitialInterval: time.Hour,
		MaxInterval:     time.Hour,
		Multiplier:      2.0,
	})

	assert.ErrorIs(t, err, context.Canceled)
}
