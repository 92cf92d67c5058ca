package webdriver

import (
	"context"
	"encoding/json"
	"net/http"
)

// ShadowRoot is a handle to the shadow root of an element.
type ShadowRoot struct {
	session *Session
	id      string
}

func (r *ShadowRoot) ID() string { return r.id }

func (r *ShadowRoot) Session() *Session { return r.session }

func (r *ShadowRoot) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{ShadowRootKey: r.id})
}

func (r *ShadowRoot) do(ctx context.Context, cmd Command, path string, loc Locator, result any) error {
	s := r.session
	err := s.client.Request(ctx, http.MethodPost, s.path("/shadow/"+r.id+path), loc, result, s)
	if err != nil {
		return &CommandError{Command: cmd, SessionID: s.id, ShadowID: r.id, Args: map[string]any{"locator": loc}, Err: err}
	}
	return nil
}

func (r *ShadowRoot) FindElement(ctx context.Context, loc Locator) (*Element, error) {
	var ref elementReference
	if err := r.do(ctx, CmdFindElementFromShadowRoot, "/element", loc, &ref); err != nil {
		return nil, err
	}
	return r.session.Element(ref.ID), nil
}

func (r *ShadowRoot) FindElements(ctx context.Context, loc Locator) ([]*Element, error) {
	var refs []elementReference
	if err := r.do(ctx, CmdFindElementsFromShadowRoot, "/elements", loc, &refs); err != nil {
		return nil, err
	}
	return r.session.elements(refs), nil
}
