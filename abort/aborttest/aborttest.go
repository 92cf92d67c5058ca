// Package aborttest binds the ambient abort token to the lifetime of a test.
package aborttest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/guseggert/roadkill/abort"
)

// DefaultGrace is how long before the test deadline the ambient token is aborted,
// leaving the test some time to tear down drivers and sessions.
const DefaultGrace = 500 * time.Millisecond

// TestTimeout is the reason of tokens aborted because the test is about to exceed its deadline.
type TestTimeout struct {
	Name    string
	Timeout time.Duration
}

func (e *TestTimeout) Error() string {
	return fmt.Sprintf("test %s exceeded its deadline (aborted %s before it)", e.Name, e.Timeout)
}

// Context returns a token for t and installs it as the ambient token until the test finishes.
// When the test binary runs with a deadline, the token is aborted grace before it.
// The token is always aborted with context.Canceled during cleanup.
// Tests using this must not call t.Parallel, since the ambient slot is process-wide.
func Context(t testing.TB, grace time.Duration) context.Context {
	t.Helper()

	ctx, cancel := abort.New(context.Background())
	if d, ok := deadline(t); ok {
		wait := time.Until(d) - grace
		if wait < 0 {
			wait = 0
		}
		timer := time.AfterFunc(wait, func() {
			cancel(&TestTimeout{Name: t.Name(), Timeout: grace})
		})
		t.Cleanup(func() { timer.Stop() })
	}

	restore := abort.SetAmbient(ctx)
	t.Cleanup(func() {
		restore()
		cancel(context.Canceled)
	})
	return ctx
}

func deadline(t testing.TB) (time.Time, bool) {
	d, ok := t.(interface{ Deadline() (time.Time, bool) })
	if !ok {
		return time.Time{}, false
	}
	return d.Deadline()
}
