package webdriver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"strings"
	"testing"

	"github.com/guseggert/roadkill/webdriver/webdrivertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*webdrivertest.Server, *Session) {
	t.Helper()
	srv, client := newTestServer(t)
	session, err := client.NewSession(context.Background(), ChromeCapabilities(true))
	require.NoError(t, err)
	return srv, session
}

func TestFindElementNoSuchElement(t *testing.T) {
	_, session := newTestSession(t)

	_, err := session.FindElement(context.Background(), ByCSS("h2"))
	require.Error(t, err)

	assert.Equal(t, ErrCodeNoSuchElement, ErrorCode(err))
	assert.True(t, IsCommand(err, CmdFindElement))
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, http.StatusNotFound, protoErr.StatusCode)
	assert.Contains(t, err.Error(), `find element (session `+session.ID()+`, locator=css selector "h2")`)
}

func TestNavigation(t *testing.T) {
	srv, session := newTestSession(t)
	ctx := context.Background()
	srv.SetTitle("Example Domain")

	require.NoError(t, session.NavigateTo(ctx, "https://example.com/"))
	u, err := session.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", u)

	title, err := session.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Example Domain", title)

	src, err := session.PageSource(ctx)
	require.NoError(t, err)
	assert.Contains(t, src, "<title>Example Domain</title>")
}

func TestPostWithoutParamsSendsEmptyObject(t *testing.T) {
	srv, session := newTestSession(t)
	ctx := context.Background()

	for _, f := range []func(context.Context) error{session.Back, session.Forward, session.Refresh, session.SwitchToParentFrame} {
		require.NoError(t, f(ctx))
		req := srv.LastRequest()
		assert.Equal(t, http.MethodPost, req.Method)
		assert.JSONEq(t, `{}`, string(req.Body), req.Path)
	}
}

func TestElementRoundTripThroughExecute(t *testing.T) {
	srv, session := newTestSession(t)
	ctx := context.Background()
	id := srv.AddElement("h1", "h1", "Hello")

	el, err := session.FindElement(ctx, ByCSS("h1"))
	require.NoError(t, err)
	assert.Equal(t, id, el.ID())

	v, err := session.ExecuteScript(ctx, "return arguments", el, []any{el}, map[string]any{"el": el}, "plain")
	require.NoError(t, err)

	var sent struct {
		Args []any `json:"args"`
	}
	require.NoError(t, json.Unmarshal(srv.LastRequest().Body, &sent))
	assert.Equal(t, map[string]any{ElementKey: id}, sent.Args[0])

	res, ok := v.([]any)
	require.True(t, ok)
	require.Len(t, res, 4)

	got, ok := res[0].(*Element)
	require.True(t, ok)
	assert.Equal(t, id, got.ID())
	assert.Same(t, session, got.Session())

	nested := res[1].([]any)
	assert.Equal(t, id, nested[0].(*Element).ID())
	assert.Equal(t, id, res[2].(map[string]any)["el"].(*Element).ID())
	assert.Equal(t, "plain", res[3])
}

func TestExecuteAsyncScriptWithoutArgs(t *testing.T) {
	srv, session := newTestSession(t)
	v, err := session.ExecuteAsyncScript(context.Background(), "arguments[0]()")
	require.NoError(t, err)
	assert.Equal(t, []any{}, v)
	assert.Equal(t, "/session/"+session.ID()+"/execute/async", srv.LastRequest().Path)
}

func TestShadowRoot(t *testing.T) {
	srv, session := newTestSession(t)
	ctx := context.Background()
	host := srv.AddElement("my-widget", "my-widget", "")
	rootID := srv.AddShadowRoot(host)
	inner := srv.AddShadowChild(rootID, "button", "button", "Go")

	el, err := session.FindElement(ctx, ByCSS("my-widget"))
	require.NoError(t, err)
	root, err := el.ShadowRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, rootID, root.ID())

	button, err := root.FindElement(ctx, ByCSS("button"))
	require.NoError(t, err)
	assert.Equal(t, inner, button.ID())

	buttons, err := root.FindElements(ctx, ByCSS("button"))
	require.NoError(t, err)
	require.Len(t, buttons, 1)

	v, err := session.ExecuteScript(ctx, "return arguments", root)
	require.NoError(t, err)
	got, ok := v.([]any)[0].(*ShadowRoot)
	require.True(t, ok)
	assert.Equal(t, rootID, got.ID())

	_, err = root.FindElement(ctx, ByCSS("a"))
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, CmdFindElementFromShadowRoot, cmdErr.Command)
	assert.Equal(t, rootID, cmdErr.ShadowID)
}

func TestElementCommands(t *testing.T) {
	srv, session := newTestSession(t)
	ctx := context.Background()
	form := srv.AddElement("form", "form", "")
	inputID := srv.AddChild(form, "input", "input", "ab")
	srv.SetAttribute(inputID, "type", "text")

	formEl, err := session.FindElement(ctx, ByCSS("form"))
	require.NoError(t, err)
	input, err := formEl.FindElement(ctx, ByCSS("input"))
	require.NoError(t, err)
	inputs, err := formEl.FindElements(ctx, ByCSS("input"))
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, input.ID(), inputs[0].ID())

	tag, err := input.TagName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "input", tag)

	typ, ok, err := input.Attribute(ctx, "type")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "text", typ)

	_, ok, err = input.Attribute(ctx, "placeholder")
	require.NoError(t, err)
	assert.False(t, ok)

	prop, err := input.Property(ctx, "type")
	require.NoError(t, err)
	assert.Equal(t, "text", prop)

	require.NoError(t, input.SendKeys(ctx, "c"+KeyEnter))
	text, err := input.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc"+KeyEnter, text)

	require.NoError(t, input.Clear(ctx))
	assert.Empty(t, srv.Text(inputID))

	require.NoError(t, input.Click(ctx))
	active, err := session.ActiveElement(ctx)
	require.NoError(t, err)
	assert.Equal(t, inputID, active.ID())

	rect, err := input.Rect(ctx)
	require.NoError(t, err)
	assert.Equal(t, Rect{Width: 800, Height: 600}, rect)
}

func TestElementErrorNamesElement(t *testing.T) {
	srv, session := newTestSession(t)
	el := session.Element("stale")
	long := strings.Repeat("x", 60)
	srv.Override(http.MethodPost, "/session/"+session.ID()+"/element/stale/value", func(w http.ResponseWriter, r *http.Request) {
		webdrivertest.WriteError(w, http.StatusNotFound, ErrCodeStaleElementReference, "element is stale")
	})

	err := el.SendKeys(context.Background(), long)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, CmdElementSendKeys, cmdErr.Command)
	assert.Equal(t, "stale", cmdErr.ElementID)
	assert.Equal(t, ErrCodeStaleElementReference, ErrorCode(err))
	assert.Contains(t, err.Error(), "text="+strings.Repeat("x", 50)+"...")
}

func TestWindows(t *testing.T) {
	_, session := newTestSession(t)
	ctx := context.Background()

	first, err := session.Window(ctx)
	require.NoError(t, err)

	second, err := session.NewWindow(ctx, WindowTypeWindow)
	require.NoError(t, err)
	assert.Equal(t, WindowTypeWindow, second.Type())

	windows, err := session.Windows(ctx)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, first.Handle(), windows[0].Handle())

	require.NoError(t, second.SwitchTo(ctx))
	current, err := session.Window(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Handle(), current.Handle())

	remaining, err := session.CloseWindow(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, first.Handle(), remaining[0].Handle())

	err = session.WindowHandle("gone").SwitchTo(ctx)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "gone", cmdErr.WindowHandle)
	assert.Equal(t, ErrCodeNoSuchWindow, ErrorCode(err))

	rect, err := session.Maximize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1920.0, rect.Width)
}

func intPtr(v int) *int { return &v }

func TestCommandRequests(t *testing.T) {
	srv, session := newTestSession(t)
	checkbox := session.Element(srv.AddElement("input", "input", ""))
	srv.SetAttribute(checkbox.ID(), "checked", "")
	srv.SetAttribute(checkbox.ID(), "disabled", "")
	srv.SetCSS(checkbox.ID(), "display", "inline-block")
	srv.SetAccessibility(checkbox.ID(), "checkbox", "Remember me")
	frame := session.Element(srv.AddElement("iframe", "iframe", ""))

	sessionPath := "/session/" + session.ID()
	elementPath := sessionPath + "/element/" + checkbox.ID()
	frameRef := `{"id":{"` + ElementKey + `":"` + frame.ID() + `"}}`

	cases := []struct {
		name   string
		call   func(ctx context.Context) (any, error)
		method string
		path   string
		body   string
		want   any
	}{
		{
			name:   "selected",
			call:   func(ctx context.Context) (any, error) { return checkbox.Selected(ctx) },
			method: http.MethodGet,
			path:   elementPath + "/selected",
			want:   true,
		},
		{
			name:   "enabled",
			call:   func(ctx context.Context) (any, error) { return checkbox.Enabled(ctx) },
			method: http.MethodGet,
			path:   elementPath + "/enabled",
			want:   false,
		},
		{
			name:   "css value",
			call:   func(ctx context.Context) (any, error) { return checkbox.CSSValue(ctx, "display") },
			method: http.MethodGet,
			path:   elementPath + "/css/display",
			want:   "inline-block",
		},
		{
			name:   "computed role",
			call:   func(ctx context.Context) (any, error) { return checkbox.ComputedRole(ctx) },
			method: http.MethodGet,
			path:   elementPath + "/computedrole",
			want:   "checkbox",
		},
		{
			name:   "computed label",
			call:   func(ctx context.Context) (any, error) { return checkbox.ComputedLabel(ctx) },
			method: http.MethodGet,
			path:   elementPath + "/computedlabel",
			want:   "Remember me",
		},
		{
			name:   "window rect",
			call:   func(ctx context.Context) (any, error) { return session.WindowRect(ctx) },
			method: http.MethodGet,
			path:   sessionPath + "/window/rect",
			want:   Rect{X: 10, Y: 10, Width: 800, Height: 600},
		},
		{
			name: "set window rect",
			call: func(ctx context.Context) (any, error) {
				return session.SetWindowRect(ctx, WindowRectRequest{X: intPtr(0), Width: intPtr(1024)})
			},
			method: http.MethodPost,
			path:   sessionPath + "/window/rect",
			body:   `{"x":0,"y":null,"width":1024,"height":null}`,
			want:   Rect{X: 0, Y: 10, Width: 1024, Height: 600},
		},
		{
			name:   "minimize",
			call:   func(ctx context.Context) (any, error) { return session.Minimize(ctx) },
			method: http.MethodPost,
			path:   sessionPath + "/window/minimize",
			body:   `{}`,
			want:   Rect{X: 0, Y: 10, Width: 1024, Height: 600},
		},
		{
			name:   "fullscreen",
			call:   func(ctx context.Context) (any, error) { return session.Fullscreen(ctx) },
			method: http.MethodPost,
			path:   sessionPath + "/window/fullscreen",
			body:   `{}`,
			want:   Rect{Width: 1920, Height: 1080},
		},
		{
			name:   "switch to frame by index",
			call:   func(ctx context.Context) (any, error) { return nil, session.SwitchToFrame(ctx, 1) },
			method: http.MethodPost,
			path:   sessionPath + "/frame",
			body:   `{"id":1}`,
		},
		{
			name:   "switch to top-level frame",
			call:   func(ctx context.Context) (any, error) { return nil, session.SwitchToFrame(ctx, nil) },
			method: http.MethodPost,
			path:   sessionPath + "/frame",
			body:   `{"id":null}`,
		},
		{
			name:   "switch to frame by element",
			call:   func(ctx context.Context) (any, error) { return nil, session.SwitchToFrame(ctx, frame) },
			method: http.MethodPost,
			path:   sessionPath + "/frame",
			body:   frameRef,
		},
		{
			name:   "switch to frame from element",
			call:   func(ctx context.Context) (any, error) { return nil, frame.SwitchToFrame(ctx) },
			method: http.MethodPost,
			path:   sessionPath + "/frame",
			body:   frameRef,
		},
	}
	// cases run in order: the window rect ones build on each other
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := c.call(context.Background())
			require.NoError(t, err)
			assert.Equal(t, c.want, got)

			req := srv.LastRequest()
			assert.Equal(t, c.method, req.Method)
			assert.Equal(t, c.path, req.Path)
			if c.body == "" {
				assert.Empty(t, req.Body)
			} else {
				assert.JSONEq(t, c.body, string(req.Body))
			}
		})
	}
}

func TestSwitchToUnknownFrame(t *testing.T) {
	_, session := newTestSession(t)

	err := session.Element("gone").SwitchToFrame(context.Background())
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, CmdSwitchToFrameFromElement, cmdErr.Command)
	assert.Equal(t, "gone", cmdErr.ElementID)
	assert.Equal(t, ErrCodeNoSuchFrame, ErrorCode(err))
}

func TestNilHandlesSerializeAsNull(t *testing.T) {
	srv, session := newTestSession(t)

	v, err := session.ExecuteScript(context.Background(), "return arguments", (*Element)(nil), []any{(*ShadowRoot)(nil)})
	require.NoError(t, err)
	assert.Equal(t, []any{nil, []any{nil}}, v)
	assert.JSONEq(t, `{"script":"return arguments","args":[null,[null]]}`, string(srv.LastRequest().Body))
}

func TestCookies(t *testing.T) {
	_, session := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, session.AddCookie(ctx, Cookie{Name: "a", Value: "1", HTTPOnly: true}))
	require.NoError(t, session.AddCookie(ctx, Cookie{Name: "b", Value: "2"}))

	c, err := session.Cookie(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, Cookie{Name: "a", Value: "1", HTTPOnly: true}, c)

	cookies, err := session.Cookies(ctx)
	require.NoError(t, err)
	assert.Len(t, cookies, 2)

	require.NoError(t, session.DeleteCookie(ctx, "a"))
	_, err = session.Cookie(ctx, "a")
	assert.Equal(t, ErrCodeNoSuchCookie, ErrorCode(err))

	require.NoError(t, session.DeleteAllCookies(ctx))
	cookies, err = session.Cookies(ctx)
	require.NoError(t, err)
	assert.Empty(t, cookies)
}

func TestAlerts(t *testing.T) {
	srv, session := newTestSession(t)
	ctx := context.Background()

	_, err := session.AlertText(ctx)
	assert.Equal(t, ErrCodeNoSuchAlert, ErrorCode(err))

	srv.SetAlert("name?")
	text, err := session.AlertText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "name?", text)

	require.NoError(t, session.SendAlertText(ctx, "bob"))
	text, err = session.AlertText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", text)

	require.NoError(t, session.AcceptAlert(ctx))
	assert.Equal(t, ErrCodeNoSuchAlert, ErrorCode(session.DismissAlert(ctx)))
}

func TestScreenshot(t *testing.T) {
	srv, session := newTestSession(t)
	ctx := context.Background()

	b64, err := session.Screenshot(ctx)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)

	id := srv.AddElement("img", "img", "")
	_, err = session.Element(id).Screenshot(ctx)
	require.NoError(t, err)

	pdf, err := session.PrintPage(ctx, nil)
	require.NoError(t, err)
	raw, err = base64.StdEncoding.DecodeString(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

func TestPerformActionsSerializesElementOrigin(t *testing.T) {
	srv, session := newTestSession(t)
	ctx := context.Background()
	el := session.Element(srv.AddElement("button", "button", ""))

	err := session.PerformActions(ctx,
		PointerActions("mouse", PointerMouse, PointerMove(1, 2, 100, el), PointerDown(0), PointerUp(0)),
		KeyActions("keyboard", KeyDown(KeyShift), Pause(10), KeyUp(KeyShift)),
	)
	require.NoError(t, err)

	var body struct {
		Actions []struct {
			Type       string           `json:"type"`
			ID         string           `json:"id"`
			Parameters map[string]any   `json:"parameters"`
			Actions    []map[string]any `json:"actions"`
		} `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(srv.LastRequest().Body, &body))
	require.Len(t, body.Actions, 2)

	pointer := body.Actions[0]
	assert.Equal(t, SourcePointer, pointer.Type)
	assert.Equal(t, map[string]any{"pointerType": "mouse"}, pointer.Parameters)
	assert.Equal(t, map[string]any{ElementKey: el.ID()}, pointer.Actions[0]["origin"])
	assert.Equal(t, 1.0, pointer.Actions[0]["x"])
	assert.Equal(t, 0.0, pointer.Actions[1]["button"])

	keys := body.Actions[1]
	assert.Equal(t, SourceKey, keys.Type)
	assert.Nil(t, keys.Parameters)
	assert.Equal(t, KeyShift, keys.Actions[0]["value"])

	require.NoError(t, session.ReleaseActions(ctx))
}

func TestTimeouts(t *testing.T) {
	srv, session := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, session.SetTimeouts(ctx, Timeouts{Implicit: Ms(500)}))
	assert.JSONEq(t, `{"implicit":500}`, string(srv.LastRequest().Body))

	timeouts, err := session.Timeouts(ctx)
	require.NoError(t, err)
	require.NotNil(t, timeouts.Script)
	assert.Equal(t, 30000, *timeouts.Script)
}

func TestDeleteSession(t *testing.T) {
	_, session := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, session.Delete(ctx))
	_, err := session.Title(ctx)
	assert.Equal(t, ErrCodeInvalidSessionID, ErrorCode(err))
	assert.True(t, IsCommand(err, CmdGetTitle))
}
