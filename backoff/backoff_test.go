package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleeper captures requested waits instead of sleeping.
type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.waits = append(r.waits, d)
	return nil
}

func TestBackoff_Sequence(t *testing.T) {
	b := New(time.Second, 5)

	var waits []time.Duration
	for !b.Exhausted() {
		waits = append(waits, b.Next())
	}

	assert.Equal(t, []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
	}, waits)
	assert.Equal(t, 5, b.Attempt())
}

func TestBackoff_PeekDoesNotAdvance(t *testing.T) {
	b := New(10*time.Millisecond, 3)

	assert.Equal(t, 10*time.Millisecond, b.Peek())
	assert.Equal(t, 10*time.Millisecond, b.Peek())
	assert.Equal(t, 0, b.Attempt())

	b.Next()
	assert.Equal(t, 20*time.Millisecond, b.Peek())
}

func TestBackoff_Reset(t *testing.T) {
	b := New(time.Second, 2)
	b.Next()
	b.Next()
	require.True(t, b.Exhausted())

	b.Reset()
	assert.False(t, b.Exhausted())
	assert.Equal(t, time.Second, b.Peek())
}

func TestRetry_Success(t *testing.T) {
	rec := &recordingSleeper{}
	attempts := 0
	err := Retry(context.Background(), func() error {
		attempts++
		return nil
	}, 3, 10*time.Millisecond, rec.sleep)

	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
	assert.Empty(t, rec.waits)
}

func TestRetry_EventualSuccess(t *testing.T) {
	rec := &recordingSleeper{}
	attempts := 0
	err := Retry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, 5, 10*time.Millisecond, rec.sleep)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "should succeed on third attempt")
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, rec.waits)
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	rec := &recordingSleeper{}
	attempts := 0
	expectedErr := errors.New("persistent error")
	err := Retry(context.Background(), func() error {
		attempts++
		return expectedErr
	}, 3, 10*time.Millisecond, rec.sleep)

	require.Error(t, err)
	assert.Equal(t, expectedErr, err, "should return the original error")
	assert.Equal(t, 3, attempts, "should attempt exactly maxAttempts times")
	assert.Len(t, rec.waits, 2, "no wait after the final attempt")
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recordingSleeper{}
	attempts := 0
	err := Retry(ctx, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}, 10, 10*time.Millisecond, rec.sleep)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestRetry_RealSleepHonoursDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Retry(ctx, func() error {
		return errors.New("error")
	}, 10, time.Second, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetry_InvalidMaxAttempts(t *testing.T) {
	for _, max := range []int{0, -1} {
		attempts := 0
		err := Retry(context.Background(), func() error {
			attempts++
			return nil
		}, max, time.Millisecond, nil)

		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
		assert.Equal(t, 0, attempts)
	}
}
