package webdriver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Element is a handle to an element of the page. Its validity is decided by the remote end.
type Element struct {
	session *Session
	id      string
}

func (e *Element) ID() string { return e.id }

func (e *Element) Session() *Session { return e.session }

// MarshalJSON encodes the element as a web element reference, so elements can be embedded in typed bodies.
func (e *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{ElementKey: e.id})
}

func (e *Element) do(ctx context.Context, cmd Command, method, path string, body, result any, args map[string]any) error {
	s := e.session
	err := s.client.Request(ctx, method, s.path("/element/"+e.id+path), body, result, s)
	if err != nil {
		return &CommandError{Command: cmd, SessionID: s.id, ElementID: e.id, Args: args, Err: err}
	}
	return nil
}

// SwitchToFrame switches to the frame this element represents.
func (e *Element) SwitchToFrame(ctx context.Context) error {
	s := e.session
	err := s.client.Request(ctx, http.MethodPost, s.path("/frame"), map[string]any{"id": e}, nil, s)
	if err != nil {
		return &CommandError{Command: CmdSwitchToFrameFromElement, SessionID: s.id, ElementID: e.id, Err: err}
	}
	return nil
}

func (e *Element) FindElement(ctx context.Context, loc Locator) (*Element, error) {
	var ref elementReference
	if err := e.do(ctx, CmdFindElementFromElement, http.MethodPost, "/element", loc, &ref, map[string]any{"locator": loc}); err != nil {
		return nil, err
	}
	return e.session.Element(ref.ID), nil
}

func (e *Element) FindElements(ctx context.Context, loc Locator) ([]*Element, error) {
	var refs []elementReference
	if err := e.do(ctx, CmdFindElementsFromElement, http.MethodPost, "/elements", loc, &refs, map[string]any{"locator": loc}); err != nil {
		return nil, err
	}
	return e.session.elements(refs), nil
}

// ShadowRoot returns the shadow root attached to the element.
func (e *Element) ShadowRoot(ctx context.Context) (*ShadowRoot, error) {
	var ref shadowRootReference
	if err := e.do(ctx, CmdGetElementShadowRoot, http.MethodGet, "/shadow", nil, &ref, nil); err != nil {
		return nil, err
	}
	return e.session.ShadowRoot(ref.ID), nil
}

func (e *Element) Selected(ctx context.Context) (bool, error) {
	var selected bool
	err := e.do(ctx, CmdIsElementSelected, http.MethodGet, "/selected", nil, &selected, nil)
	return selected, err
}

func (e *Element) Enabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := e.do(ctx, CmdIsElementEnabled, http.MethodGet, "/enabled", nil, &enabled, nil)
	return enabled, err
}

// Attribute returns the value of an attribute, and false if the element does not have it.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	var value *string
	err := e.do(ctx, CmdGetElementAttribute, http.MethodGet, "/attribute/"+url.PathEscape(name), nil, &value, map[string]any{"name": name})
	if err != nil || value == nil {
		return "", false, err
	}
	return *value, true, nil
}

// Property returns the value of a DOM property. References in the value come back as handles.
func (e *Element) Property(ctx context.Context, name string) (any, error) {
	var value any
	err := e.do(ctx, CmdGetElementProperty, http.MethodGet, "/property/"+url.PathEscape(name), nil, &value, map[string]any{"name": name})
	return value, err
}

func (e *Element) CSSValue(ctx context.Context, name string) (string, error) {
	var value string
	err := e.do(ctx, CmdGetElementCSSValue, http.MethodGet, "/css/"+url.PathEscape(name), nil, &value, map[string]any{"name": name})
	return value, err
}

func (e *Element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.do(ctx, CmdGetElementText, http.MethodGet, "/text", nil, &text, nil)
	return text, err
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	var name string
	err := e.do(ctx, CmdGetElementTagName, http.MethodGet, "/name", nil, &name, nil)
	return name, err
}

func (e *Element) Rect(ctx context.Context) (Rect, error) {
	var r Rect
	err := e.do(ctx, CmdGetElementRect, http.MethodGet, "/rect", nil, &r, nil)
	return r, err
}

func (e *Element) ComputedRole(ctx context.Context) (string, error) {
	var role string
	err := e.do(ctx, CmdGetComputedRole, http.MethodGet, "/computedrole", nil, &role, nil)
	return role, err
}

func (e *Element) ComputedLabel(ctx context.Context) (string, error) {
	var label string
	err := e.do(ctx, CmdGetComputedLabel, http.MethodGet, "/computedlabel", nil, &label, nil)
	return label, err
}

func (e *Element) Click(ctx context.Context) error {
	return e.do(ctx, CmdElementClick, http.MethodPost, "/click", noParams, nil, nil)
}

func (e *Element) Clear(ctx context.Context) error {
	return e.do(ctx, CmdElementClear, http.MethodPost, "/clear", noParams, nil, nil)
}

// SendKeys types text into the element. Special keys are the Key constants.
func (e *Element) SendKeys(ctx context.Context, text string) error {
	return e.do(ctx, CmdElementSendKeys, http.MethodPost, "/value", map[string]any{"text": text}, nil, map[string]any{"text": truncate(text, 50)})
}

// Screenshot returns a base64 encoded PNG of the element.
func (e *Element) Screenshot(ctx context.Context) (string, error) {
	var png string
	err := e.do(ctx, CmdTakeElementScreenshot, http.MethodGet, "/screenshot", nil, &png, nil)
	return png, err
}
