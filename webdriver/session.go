package webdriver

import (
	"context"
	"net/http"
	"net/url"
)

// noParams is sent as the body of commands without parameters that are POSTed.
var noParams = struct{}{}

// Session is a session on a remote end. It is immutable and safe for concurrent use.
type Session struct {
	client *Client
	id     string
	caps   Capabilities
}

// AttachSession returns a handle to an existing session, such as one created by another process.
func (c *Client) AttachSession(id string, caps Capabilities) *Session {
	return &Session{client: c, id: id, caps: caps}
}

func (s *Session) ID() string { return s.id }

// Capabilities returns the capabilities matched by the remote end.
func (s *Session) Capabilities() Capabilities { return s.caps }

func (s *Session) Client() *Client { return s.client }

// Serialize replaces handles with their wire references. Nil handles become null.
func (s *Session) Serialize(v any) any {
	switch t := v.(type) {
	case *Element:
		if t == nil {
			return nil
		}
		return map[string]any{ElementKey: t.id}
	case *ShadowRoot:
		if t == nil {
			return nil
		}
		return map[string]any{ShadowRootKey: t.id}
	}
	return v
}

// Deserialize turns wire references into handles bound to this session.
func (s *Session) Deserialize(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if id, ok := m[ElementKey].(string); ok {
		return s.Element(id)
	}
	if id, ok := m[ShadowRootKey].(string); ok {
		return s.ShadowRoot(id)
	}
	return v
}

// Element returns a handle to the element with the given id.
func (s *Session) Element(id string) *Element { return &Element{session: s, id: id} }

// ShadowRoot returns a handle to the shadow root with the given id.
func (s *Session) ShadowRoot(id string) *ShadowRoot { return &ShadowRoot{session: s, id: id} }

// WindowHandle returns a handle to the window with the given handle.
func (s *Session) WindowHandle(handle string) *Window { return &Window{session: s, handle: handle} }

func (s *Session) path(p string) string { return "/session/" + s.id + p }

func (s *Session) do(ctx context.Context, cmd Command, method, path string, body, result any, args map[string]any) error {
	err := s.client.Request(ctx, method, s.path(path), body, result, s)
	if err != nil {
		return &CommandError{Command: cmd, SessionID: s.id, Args: args, Err: err}
	}
	return nil
}

// Delete ends the session.
func (s *Session) Delete(ctx context.Context) error {
	return s.do(ctx, CmdDeleteSession, http.MethodDelete, "", nil, nil, nil)
}

func (s *Session) Timeouts(ctx context.Context) (Timeouts, error) {
	var t Timeouts
	err := s.do(ctx, CmdGetTimeouts, http.MethodGet, "/timeouts", nil, &t, nil)
	return t, err
}

func (s *Session) SetTimeouts(ctx context.Context, t Timeouts) error {
	return s.do(ctx, CmdSetTimeouts, http.MethodPost, "/timeouts", t, nil, map[string]any{"timeouts": t})
}

func (s *Session) NavigateTo(ctx context.Context, u string) error {
	return s.do(ctx, CmdNavigateTo, http.MethodPost, "/url", map[string]any{"url": u}, nil, map[string]any{"url": u})
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := s.do(ctx, CmdGetCurrentURL, http.MethodGet, "/url", nil, &u, nil)
	return u, err
}

func (s *Session) Back(ctx context.Context) error {
	return s.do(ctx, CmdBack, http.MethodPost, "/back", noParams, nil, nil)
}

func (s *Session) Forward(ctx context.Context) error {
	return s.do(ctx, CmdForward, http.MethodPost, "/forward", noParams, nil, nil)
}

func (s *Session) Refresh(ctx context.Context) error {
	return s.do(ctx, CmdRefresh, http.MethodPost, "/refresh", noParams, nil, nil)
}

func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	err := s.do(ctx, CmdGetTitle, http.MethodGet, "/title", nil, &title, nil)
	return title, err
}

// Window returns the current window.
func (s *Session) Window(ctx context.Context) (*Window, error) {
	var handle string
	if err := s.do(ctx, CmdGetWindowHandle, http.MethodGet, "/window", nil, &handle, nil); err != nil {
		return nil, err
	}
	return s.WindowHandle(handle), nil
}

// CloseWindow closes the current window and returns the remaining ones.
func (s *Session) CloseWindow(ctx context.Context) ([]*Window, error) {
	var handles []string
	if err := s.do(ctx, CmdCloseWindow, http.MethodDelete, "/window", nil, &handles, nil); err != nil {
		return nil, err
	}
	return s.windows(handles), nil
}

func (s *Session) Windows(ctx context.Context) ([]*Window, error) {
	var handles []string
	if err := s.do(ctx, CmdGetWindowHandles, http.MethodGet, "/window/handles", nil, &handles, nil); err != nil {
		return nil, err
	}
	return s.windows(handles), nil
}

func (s *Session) windows(handles []string) []*Window {
	windows := make([]*Window, len(handles))
	for i, h := range handles {
		windows[i] = s.WindowHandle(h)
	}
	return windows
}

// NewWindow opens a new tab or window. The remote end may open the other kind; Window.Type tells which.
func (s *Session) NewWindow(ctx context.Context, typ WindowType) (*Window, error) {
	if typ == "" {
		typ = WindowTypeTab
	}
	var res struct {
		Handle string     `json:"handle"`
		Type   WindowType `json:"type"`
	}
	err := s.do(ctx, CmdNewWindow, http.MethodPost, "/window/new", map[string]any{"type": string(typ)}, &res, map[string]any{"type": typ})
	if err != nil {
		return nil, err
	}
	return &Window{session: s, handle: res.Handle, typ: res.Type}, nil
}

// SwitchToFrame switches to a frame: nil selects the top-level browsing context,
// an int selects a frame by index and an *Element selects the frame it represents.
func (s *Session) SwitchToFrame(ctx context.Context, id any) error {
	return s.do(ctx, CmdSwitchToFrame, http.MethodPost, "/frame", map[string]any{"id": id}, nil, map[string]any{"id": id})
}

func (s *Session) SwitchToParentFrame(ctx context.Context) error {
	return s.do(ctx, CmdSwitchToParent, http.MethodPost, "/frame/parent", noParams, nil, nil)
}

func (s *Session) WindowRect(ctx context.Context) (Rect, error) {
	var r Rect
	err := s.do(ctx, CmdGetWindowRect, http.MethodGet, "/window/rect", nil, &r, nil)
	return r, err
}

// SetWindowRect moves and resizes the current window, returning the resulting rect.
func (s *Session) SetWindowRect(ctx context.Context, r WindowRectRequest) (Rect, error) {
	var res Rect
	err := s.do(ctx, CmdSetWindowRect, http.MethodPost, "/window/rect", r, &res, map[string]any{"rect": r})
	return res, err
}

func (s *Session) Maximize(ctx context.Context) (Rect, error) {
	var r Rect
	err := s.do(ctx, CmdMaximizeWindow, http.MethodPost, "/window/maximize", noParams, &r, nil)
	return r, err
}

func (s *Session) Minimize(ctx context.Context) (Rect, error) {
	var r Rect
	err := s.do(ctx, CmdMinimizeWindow, http.MethodPost, "/window/minimize", noParams, &r, nil)
	return r, err
}

func (s *Session) Fullscreen(ctx context.Context) (Rect, error) {
	var r Rect
	err := s.do(ctx, CmdFullscreenWindow, http.MethodPost, "/window/fullscreen", noParams, &r, nil)
	return r, err
}

func (s *Session) FindElement(ctx context.Context, loc Locator) (*Element, error) {
	var ref elementReference
	if err := s.do(ctx, CmdFindElement, http.MethodPost, "/element", loc, &ref, map[string]any{"locator": loc}); err != nil {
		return nil, err
	}
	return s.Element(ref.ID), nil
}

func (s *Session) FindElements(ctx context.Context, loc Locator) ([]*Element, error) {
	var refs []elementReference
	if err := s.do(ctx, CmdFindElements, http.MethodPost, "/elements", loc, &refs, map[string]any{"locator": loc}); err != nil {
		return nil, err
	}
	return s.elements(refs), nil
}

func (s *Session) elements(refs []elementReference) []*Element {
	elements := make([]*Element, len(refs))
	for i, ref := range refs {
		elements[i] = s.Element(ref.ID)
	}
	return elements
}

// ActiveElement returns the focused element.
func (s *Session) ActiveElement(ctx context.Context) (*Element, error) {
	var ref elementReference
	if err := s.do(ctx, CmdGetActiveElement, http.MethodGet, "/element/active", nil, &ref, nil); err != nil {
		return nil, err
	}
	return s.Element(ref.ID), nil
}

func (s *Session) PageSource(ctx context.Context) (string, error) {
	var src string
	err := s.do(ctx, CmdGetPageSource, http.MethodGet, "/source", nil, &src, nil)
	return src, err
}

// ExecuteScript runs script as the body of a function called with args.
// Handles in args are passed as references, and references in the result come back as handles.
func (s *Session) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	return s.execute(ctx, CmdExecuteScript, "/execute/sync", script, args)
}

// ExecuteAsyncScript runs script with a callback appended to args, and returns the value the callback is called with.
func (s *Session) ExecuteAsyncScript(ctx context.Context, script string, args ...any) (any, error) {
	return s.execute(ctx, CmdExecuteAsyncScript, "/execute/async", script, args)
}

func (s *Session) execute(ctx context.Context, cmd Command, path, script string, args []any) (any, error) {
	if args == nil {
		args = []any{}
	}
	var result any
	body := map[string]any{"script": script, "args": args}
	if err := s.do(ctx, cmd, http.MethodPost, path, body, &result, map[string]any{"script": truncate(script, 50)}); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Session) Cookies(ctx context.Context) ([]Cookie, error) {
	var cookies []Cookie
	err := s.do(ctx, CmdGetAllCookies, http.MethodGet, "/cookie", nil, &cookies, nil)
	return cookies, err
}

func (s *Session) Cookie(ctx context.Context, name string) (Cookie, error) {
	var cookie Cookie
	err := s.do(ctx, CmdGetNamedCookie, http.MethodGet, "/cookie/"+url.PathEscape(name), nil, &cookie, map[string]any{"name": name})
	return cookie, err
}

func (s *Session) AddCookie(ctx context.Context, cookie Cookie) error {
	return s.do(ctx, CmdAddCookie, http.MethodPost, "/cookie", map[string]any{"cookie": cookie}, nil, map[string]any{"name": cookie.Name})
}

func (s *Session) DeleteCookie(ctx context.Context, name string) error {
	return s.do(ctx, CmdDeleteCookie, http.MethodDelete, "/cookie/"+url.PathEscape(name), nil, nil, map[string]any{"name": name})
}

func (s *Session) DeleteAllCookies(ctx context.Context) error {
	return s.do(ctx, CmdDeleteAllCookies, http.MethodDelete, "/cookie", nil, nil, nil)
}

func (s *Session) PerformActions(ctx context.Context, actions ...ActionSequence) error {
	return s.do(ctx, CmdPerformActions, http.MethodPost, "/actions", map[string]any{"actions": actions}, nil, nil)
}

func (s *Session) ReleaseActions(ctx context.Context) error {
	return s.do(ctx, CmdReleaseActions, http.MethodDelete, "/actions", nil, nil, nil)
}

func (s *Session) DismissAlert(ctx context.Context) error {
	return s.do(ctx, CmdDismissAlert, http.MethodPost, "/alert/dismiss", noParams, nil, nil)
}

func (s *Session) AcceptAlert(ctx context.Context) error {
	return s.do(ctx, CmdAcceptAlert, http.MethodPost, "/alert/accept", noParams, nil, nil)
}

func (s *Session) AlertText(ctx context.Context) (string, error) {
	var text string
	err := s.do(ctx, CmdGetAlertText, http.MethodGet, "/alert/text", nil, &text, nil)
	return text, err
}

// SendAlertText types text into the prompt of the current user prompt.
func (s *Session) SendAlertText(ctx context.Context, text string) error {
	return s.do(ctx, CmdSendAlertText, http.MethodPost, "/alert/text", map[string]any{"text": text}, nil, nil)
}

// Screenshot returns a base64 encoded PNG of the current viewport.
func (s *Session) Screenshot(ctx context.Context) (string, error) {
	var png string
	err := s.do(ctx, CmdTakeScreenshot, http.MethodGet, "/screenshot", nil, &png, nil)
	return png, err
}

// PrintPage returns a base64 encoded PDF of the current page. opts may be nil.
func (s *Session) PrintPage(ctx context.Context, opts *PrintOptions) (string, error) {
	body := any(noParams)
	var args map[string]any
	if opts != nil {
		body = opts
		args = map[string]any{"options": *opts}
	}
	var pdf string
	err := s.do(ctx, CmdPrintPage, http.MethodPost, "/print", body, &pdf, args)
	return pdf, err
}
