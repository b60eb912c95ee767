// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package backoff models exponential retry as explicit state.
//
// A Backoff tracks the attempt counter, the next wait and whether the retry
// budget is spent. Waiting is delegated to a Sleeper so callers can run
// retry loops in tests without real sleeps.
package backoff

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
var ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

// Sleeper blocks for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff is an exponential backoff state machine.
// The wait for attempt n (starting at 0) is base * 2^n.
type Backoff struct {
	base        time.Duration
	maxAttempts int
	attempt     int
}

// New creates a Backoff with the given base delay and attempt budget.
func New(base time.Duration, maxAttempts int) *Backoff {
	return &Backoff{base: base, maxAttempts: maxAttempts}
}

// Attempt returns the number of waits handed out so far.
func (b *Backoff) Attempt() int {
	return b.attempt
}

// Exhausted reports whether the attempt budget is spent.
func (b *Backoff) Exhausted() bool {
	return b.attempt >= b.maxAttempts
}

// Peek returns the wait the next call to Next would produce.
func (b *Backoff) Peek() time.Duration {
	shift := b.attempt
	// Keep the shift well inside int64 range
	if shift > 30 {
		shift = 30
	}
	return b.base << shift
}

// Next returns the wait for the current attempt and advances the counter.
func (b *Backoff) Next() time.Duration {
	d := b.Peek()
	b.attempt++
	return d
}

// Reset returns the state machine to attempt 0.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Retry runs operation until it succeeds or maxAttempts calls have failed.
// Waits between calls follow baseDelay * 2^(attempt-1). No wait follows the
// final attempt. Returns the error from the last attempt if all attempts fail.
func Retry(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration, sleep Sleeper) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if sleep == nil {
		sleep = Sleep
	}

	b := New(baseDelay, maxAttempts)
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Check context before attempting
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		if attempt == maxAttempts {
			break
		}

		if err := sleep(ctx, b.Next()); err != nil {
			return err
		}
	}

	return lastErr
}
