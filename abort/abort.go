/*
Package abort provides cooperative cancellation helpers built on context.Context.

A context is the cancellation token: it is aborted once its Done channel is closed, and the reason it was
aborted is its cause (see context.Cause). Tokens can be derived from several sources with Any, and a
process-wide ambient token can be installed with SetAmbient and is merged into core calls by Merge.
*/
package abort

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAborted is the reason used when a token is aborted without one.
var ErrAborted = errors.New("aborted")

// TimeoutError is the reason of tokens created by Timeout.
type TimeoutError struct {
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s", e.Duration)
}

// Is reports TimeoutError as a context.DeadlineExceeded, so callers can keep checking for the standard error.
func (e *TimeoutError) Is(target error) bool {
	return target == context.DeadlineExceeded
}

// New returns a token derived from parent, and a function that aborts it with a reason.
// Only the first reason is kept.
func New(parent context.Context) (context.Context, func(reason error)) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	return ctx, func(reason error) {
		if reason == nil {
			reason = ErrAborted
		}
		cancel(reason)
	}
}

// Reason returns the reason ctx was aborted, or nil if it is not aborted.
func Reason(ctx context.Context) error {
	if ctx == nil || ctx.Err() == nil {
		return nil
	}
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	return ctx.Err()
}

// Aborted reports whether ctx has been aborted.
func Aborted(ctx context.Context) bool {
	return ctx != nil && ctx.Err() != nil
}

// Check returns the abort reason of ctx, or nil if ctx is still live.
func Check(ctx context.Context) error {
	return Reason(ctx)
}

// Any returns a token that is aborted as soon as any of ctxs is aborted, with the reason of the first one.
// Values and the deadline are inherited from the first non-nil context only.
// The returned cancel func releases the resources held by the derived token and must be called.
func Any(ctxs ...context.Context) (context.Context, context.CancelFunc) {
	var sources []context.Context
	for _, c := range ctxs {
		if c != nil {
			sources = append(sources, c)
		}
	}
	if len(sources) == 0 {
		return context.WithCancel(context.Background())
	}

	ctx, cancel := context.WithCancelCause(sources[0])

	// sources that are already aborted win synchronously, in argument order
	for _, src := range sources {
		if src.Err() != nil {
			cancel(Reason(src))
			return ctx, func() { cancel(context.Canceled) }
		}
	}

	stops := make([]func() bool, 0, len(sources)-1)
	for _, src := range sources[1:] {
		src := src
		stops = append(stops, context.AfterFunc(src, func() {
			cancel(Reason(src))
		}))
	}

	return ctx, func() {
		for _, stop := range stops {
			stop()
		}
		cancel(context.Canceled)
	}
}

// OnAbort registers fn to be called once, in its own goroutine, with the reason when ctx is aborted.
// Calling stop prevents fn from running if it has not started yet, and reports whether it did so.
func OnAbort(ctx context.Context, fn func(reason error)) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		fn(Reason(ctx))
	})
}

// Timeout returns a token that is aborted after d with a *TimeoutError reason.
func Timeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeoutCause(parent, d, &TimeoutError{Duration: d})
}

// Delay waits for d, or returns the abort reason as soon as ctx is aborted.
func Delay(ctx context.Context, d time.Duration) error {
	if err := Check(ctx); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return Reason(ctx)
	}
}
