/*
Package webdriver is a client for the W3C WebDriver protocol.

A Client speaks to a remote end such as a running driver.Driver. Sessions created through it hand out
Window, Element and ShadowRoot handles, which are plain references resolved by the remote end:

	client := webdriver.NewClient(address)
	session, err := client.NewSession(ctx, webdriver.ChromeCapabilities(true))
	...
	defer session.Delete(ctx)
	err = session.NavigateTo(ctx, "https://example.com")
	h1, err := session.FindElement(ctx, webdriver.ByCSS("h1"))

Every call merges ctx with the ambient token (see abort.SetAmbient), unless ctx was marked with
abort.WithoutAmbient or the client was built WithoutAmbient.
*/
package webdriver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/guseggert/roadkill/abort"
	"go.uber.org/zap"
)

const logBodyLimit = 40

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l.Named("webdriver_client").Sugar() }
}

// WithoutAmbient makes every call of the client ignore the ambient token.
func WithoutAmbient() Option {
	return func(c *Client) { c.ignoreAmbient = true }
}

// Client sends commands to a remote end. It holds configuration only and is safe for concurrent use.
type Client struct {
	address       string
	httpClient    *http.Client
	log           *zap.SugaredLogger
	ignoreAmbient bool
}

func NewClient(address string, opts ...Option) *Client {
	c := &Client{
		address:    strings.TrimSuffix(address, "/"),
		httpClient: &http.Client{},
		log:        zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Address() string { return c.address }

type errorEnvelope struct {
	Value *struct {
		Error      string `json:"error"`
		Message    string `json:"message"`
		Stacktrace string `json:"stacktrace"`
		Data       any    `json:"data"`
	} `json:"value"`
}

type valueEnvelope struct {
	Value json.RawMessage `json:"value"`
}

// Request sends a command and decodes the value of its response into result.
//
// body is JSON-encoded after the serialization walk of ser, if any. result may be nil.
// When result is a *any and ser is given, the decoded value goes through the deserialization walk,
// otherwise it is decoded by encoding/json. An empty response body leaves result untouched.
// Every failure is a *RequestError; cancellation surfaces as the reason of ctx.
func (c *Client) Request(ctx context.Context, method, path string, body, result any, ser Serializer) error {
	if c.ignoreAmbient {
		ctx = abort.WithoutAmbient(ctx)
	}
	ctx, cancel := abort.Merge(ctx)
	defer cancel()

	fail := func(err error) error {
		c.log.Debugf("  error: %s %s: %s", method, path, err)
		return &RequestError{Address: c.address, Method: method, Path: path, Err: err}
	}

	if err := abort.Check(ctx); err != nil {
		return fail(err)
	}

	var reqBody io.Reader
	var logBody string
	if body != nil {
		tree := body
		if ser != nil {
			tree = serializeTree(body, ser)
		}
		b, err := json.Marshal(tree)
		if err != nil {
			return fail(fmt.Errorf("encoding request body: %w", err))
		}
		reqBody = bytes.NewReader(b)
		logBody = truncate(string(b), logBodyLimit)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.address+path, reqBody)
	if err != nil {
		return fail(fmt.Errorf("building request: %w", err))
	}
	c.prepReq(req, body != nil)

	c.log.Debugf("fetch: %s %s %s", method, path, logBody)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if reason := abort.Reason(ctx); reason != nil {
			return fail(reason)
		}
		return fail(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if reason := abort.Reason(ctx); reason != nil {
			return fail(reason)
		}
		return fail(fmt.Errorf("reading response body: %w", err))
	}
	c.log.Debugf("  response: %s %s %s", method, resp.Status, path)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(responseError(resp, respBody))
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	var env valueEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fail(fmt.Errorf("invalid JSON from WebDriver endpoint: %w", err))
	}
	if result == nil || len(env.Value) == 0 {
		return nil
	}

	if tree, ok := result.(*any); ok && ser != nil {
		var v any
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return fail(fmt.Errorf("decoding response value: %w", err))
		}
		*tree = deserializeTree(v, ser)
		return nil
	}
	if err := json.Unmarshal(env.Value, result); err != nil {
		return fail(fmt.Errorf("decoding response value: %w", err))
	}
	return nil
}

func (c *Client) prepReq(r *http.Request, hasBody bool) {
	r.Header.Set("Accept", "application/json")
	if hasBody {
		r.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
}

func responseError(resp *http.Response, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Value != nil && env.Value.Error != "" {
		return &ProtocolError{
			Code:       env.Value.Error,
			Message:    env.Value.Message,
			Stacktrace: env.Value.Stacktrace,
			Data:       env.Value.Data,
			StatusCode: resp.StatusCode,
		}
	}
	return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type newSessionResult struct {
	SessionID    string       `json:"sessionId"`
	Capabilities Capabilities `json:"capabilities"`
}

// NewSession creates a session whose capabilities must all match caps.
func (c *Client) NewSession(ctx context.Context, caps Capabilities) (*Session, error) {
	if caps == nil {
		caps = Capabilities{}
	}
	return c.NewSessionMatching(ctx, SessionRequest{Capabilities: CapabilitiesRequest{AlwaysMatch: caps}})
}

// NewSessionMatching creates a session with full control over alwaysMatch and firstMatch.
func (c *Client) NewSessionMatching(ctx context.Context, req SessionRequest) (*Session, error) {
	var res newSessionResult
	err := c.Request(ctx, http.MethodPost, "/session", req, &res, nil)
	if err == nil && res.SessionID == "" {
		err = errors.New("remote end returned no session id")
	}
	if err != nil {
		return nil, &CommandError{
			Command: CmdNewSession,
			Args:    map[string]any{"capabilities": req.Capabilities},
			Err:     err,
		}
	}
	c.log.Debugf("created session %s", res.SessionID)
	return &Session{client: c, id: res.SessionID, caps: res.Capabilities}, nil
}

// Status reports whether the remote end can create new sessions.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var status Status
	if err := c.Request(ctx, http.MethodGet, "/status", nil, &status, nil); err != nil {
		return Status{}, &CommandError{Command: CmdStatus, Err: err}
	}
	return status, nil
}
