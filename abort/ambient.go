package abort

import (
	"context"
	"sync"
)

// ambientSlot holds the token installed by a host test runner for the current unit of work.
// It is process-wide, so units of work that install one must not run in parallel.
type ambientSlot struct {
	mu  sync.RWMutex
	ctx context.Context
}

var ambient ambientSlot

type noAmbientKey struct{}

// SetAmbient installs ctx as the ambient token and returns a function restoring the previous one.
// Passing nil clears the slot.
func SetAmbient(ctx context.Context) (restore func()) {
	ambient.mu.Lock()
	prev := ambient.ctx
	ambient.ctx = ctx
	ambient.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			ambient.mu.Lock()
			ambient.ctx = prev
			ambient.mu.Unlock()
		})
	}
}

// Ambient returns the currently installed ambient token, or nil.
func Ambient() context.Context {
	ambient.mu.RLock()
	defer ambient.mu.RUnlock()
	return ambient.ctx
}

// WithoutAmbient marks ctx so that Merge does not combine it with the ambient token.
func WithoutAmbient(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, noAmbientKey{}, true)
}

// UsesAmbient reports whether Merge would combine ctx with the ambient token.
func UsesAmbient(ctx context.Context) bool {
	if ctx == nil {
		return true
	}
	skip, _ := ctx.Value(noAmbientKey{}).(bool)
	return !skip
}

// Merge combines ctx with the ambient token, unless ctx opted out with WithoutAmbient or no ambient token is set.
// A nil ctx stands for context.Background(). The returned cancel func must be called.
func Merge(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	amb := Ambient()
	if amb == nil || !UsesAmbient(ctx) {
		return context.WithCancel(ctx)
	}
	return Any(ctx, amb)
}
