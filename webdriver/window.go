package webdriver

import (
	"context"
	"net/http"
)

// Window is a handle to a top-level browsing context.
type Window struct {
	session *Session
	handle  string
	typ     WindowType
}

func (w *Window) Handle() string { return w.handle }

// Type is the kind of window reported when it was opened with NewWindow, or "".
func (w *Window) Type() WindowType { return w.typ }

func (w *Window) Session() *Session { return w.session }

// SwitchTo makes w the current window of its session.
func (w *Window) SwitchTo(ctx context.Context) error {
	err := w.session.client.Request(ctx, http.MethodPost, w.session.path("/window"), map[string]any{"handle": w.handle}, nil, w.session)
	if err != nil {
		return &CommandError{Command: CmdSwitchToWindow, SessionID: w.session.id, WindowHandle: w.handle, Err: err}
	}
	return nil
}
