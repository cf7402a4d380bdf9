package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestWaitReady_Immediate(t *testing.T) {
	attempts := 0
	err := WaitReady(context.Background(), pingFunc(func(context.Context) error {
		attempts++
		return nil
	}), 3, 10*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWaitReady_EventualSuccess(t *testing.T) {
	attempts := 0
	err := WaitReady(context.Background(), pingFunc(func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	}), 5, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWaitReady_AllAttemptsFail(t *testing.T) {
	expected := errors.New("connection refused")
	attempts := 0
	err := WaitReady(context.Background(), pingFunc(func(context.Context) error {
		attempts++
		return expected
	}), 3, time.Millisecond)

	assert.Equal(t, expected, err)
	assert.Equal(t, 3, attempts)
}

func TestWaitReady_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := WaitReady(ctx, pingFunc(func(context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("not ready")
	}), 10, time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, attempts, 2)
}

func TestWaitReady_InvalidAttempts(t *testing.T) {
	err := WaitReady(context.Background(), pingFunc(func(context.Context) error { return nil }), 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}
