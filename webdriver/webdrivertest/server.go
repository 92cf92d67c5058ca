// Package webdrivertest provides a fake WebDriver remote end for tests.
//
// The server keeps an in-memory page made of elements registered with AddElement and friends.
// Locators match registered elements by their value only, whatever the strategy.
// Scripts are not evaluated: both execute commands return their arguments.
package webdrivertest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	elementKey    = "element-6066-11e4-a52e-4f735466cecf"
	shadowRootKey = "shadow-6066-11e4-a52e-4f735466cecf"
)

// Request is a request received by the server.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

type element struct {
	tag      string
	text     string
	attrs    map[string]string
	css      map[string]string
	role     string
	label    string
	children map[string][]string
	shadow   string
}

type shadowRoot struct {
	children map[string][]string
}

type rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// screen is the size a maximized or fullscreen window takes.
var screen = rect{Width: 1920, Height: 1080}

type session struct {
	url     string
	windows []string
	current string
	rect    rect
	cookies map[string]map[string]any
	active  string
}

type Server struct {
	log *zap.SugaredLogger
	srv *httptest.Server

	requests atomic.Int64

	mut       sync.Mutex
	ready     bool
	title     string
	roots     map[string][]string
	elements  map[string]*element
	shadows   map[string]*shadowRoot
	sessions  map[string]*session
	alert     *string
	overrides map[string]http.HandlerFunc
	last      Request
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l.Named("webdrivertest").Sugar() }
}

// NewServer starts a server. Close it when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		log:       zap.NewNop().Sugar(),
		ready:     true,
		roots:     map[string][]string{},
		elements:  map[string]*element{},
		shadows:   map[string]*shadowRoot{},
		sessions:  map[string]*session{},
		overrides: map[string]http.HandlerFunc{},
	}
	for _, o := range opts {
		o(s)
	}

	router := httprouter.New()
	router.HandleMethodNotAllowed = true
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "unknown command", "unknown command: "+r.Method+" "+r.URL.Path)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "unknown method", "unknown method: "+r.Method+" "+r.URL.Path)
	})

	router.GET("/status", s.status)
	router.POST("/session", s.newSession)
	router.DELETE("/session/:sessionId", s.withSession(s.deleteSession))
	router.GET("/session/:sessionId/timeouts", s.withSession(s.timeouts))
	router.POST("/session/:sessionId/timeouts", s.withSession(s.null))
	router.GET("/session/:sessionId/url", s.withSession(s.currentURL))
	router.POST("/session/:sessionId/url", s.withSession(s.navigate))
	router.POST("/session/:sessionId/back", s.withSession(s.null))
	router.POST("/session/:sessionId/forward", s.withSession(s.null))
	router.POST("/session/:sessionId/refresh", s.withSession(s.null))
	router.GET("/session/:sessionId/title", s.withSession(s.getTitle))
	router.GET("/session/:sessionId/source", s.withSession(s.source))

	router.GET("/session/:sessionId/window", s.withSession(s.window))
	router.POST("/session/:sessionId/window", s.withSession(s.switchWindow))
	router.DELETE("/session/:sessionId/window", s.withSession(s.closeWindow))
	router.GET("/session/:sessionId/window/handles", s.withSession(s.windowHandles))
	router.POST("/session/:sessionId/window/new", s.withSession(s.newWindow))
	router.GET("/session/:sessionId/window/rect", s.withSession(s.windowRect))
	router.POST("/session/:sessionId/window/rect", s.withSession(s.setWindowRect))
	router.POST("/session/:sessionId/window/maximize", s.withSession(s.resizeToScreen))
	router.POST("/session/:sessionId/window/minimize", s.withSession(s.windowRect))
	router.POST("/session/:sessionId/window/fullscreen", s.withSession(s.resizeToScreen))
	router.POST("/session/:sessionId/frame", s.withSession(s.switchFrame))
	router.POST("/session/:sessionId/frame/parent", s.withSession(s.null))

	router.POST("/session/:sessionId/element", s.withSession(s.findElement))
	router.POST("/session/:sessionId/elements", s.withSession(s.findElements))
	router.GET("/session/:sessionId/element/:elementId", s.withSession(s.activeElement))
	router.POST("/session/:sessionId/element/:elementId/element", s.withSession(s.findElement))
	router.POST("/session/:sessionId/element/:elementId/elements", s.withSession(s.findElements))
	router.GET("/session/:sessionId/element/:elementId/shadow", s.withSession(s.shadowOf))
	router.GET("/session/:sessionId/element/:elementId/text", s.withSession(s.elementText))
	router.GET("/session/:sessionId/element/:elementId/name", s.withSession(s.elementTag))
	router.GET("/session/:sessionId/element/:elementId/attribute/:name", s.withSession(s.elementAttribute))
	router.GET("/session/:sessionId/element/:elementId/property/:name", s.withSession(s.elementAttribute))
	router.GET("/session/:sessionId/element/:elementId/selected", s.withSession(s.elementSelected))
	router.GET("/session/:sessionId/element/:elementId/enabled", s.withSession(s.elementEnabled))
	router.GET("/session/:sessionId/element/:elementId/css/:name", s.withSession(s.elementCSS))
	router.GET("/session/:sessionId/element/:elementId/computedrole", s.withSession(s.elementRole))
	router.GET("/session/:sessionId/element/:elementId/computedlabel", s.withSession(s.elementLabel))
	router.GET("/session/:sessionId/element/:elementId/rect", s.withSession(s.elementRect))
	router.GET("/session/:sessionId/element/:elementId/screenshot", s.withSession(s.screenshot))
	router.POST("/session/:sessionId/element/:elementId/click", s.withSession(s.click))
	router.POST("/session/:sessionId/element/:elementId/clear", s.withSession(s.clear))
	router.POST("/session/:sessionId/element/:elementId/value", s.withSession(s.sendKeys))
	router.POST("/session/:sessionId/shadow/:shadowId/element", s.withSession(s.findElement))
	router.POST("/session/:sessionId/shadow/:shadowId/elements", s.withSession(s.findElements))

	router.POST("/session/:sessionId/execute/sync", s.withSession(s.execute))
	router.POST("/session/:sessionId/execute/async", s.withSession(s.execute))

	router.GET("/session/:sessionId/cookie", s.withSession(s.cookies))
	router.POST("/session/:sessionId/cookie", s.withSession(s.addCookie))
	router.DELETE("/session/:sessionId/cookie", s.withSession(s.deleteAllCookies))
	router.GET("/session/:sessionId/cookie/:name", s.withSession(s.cookie))
	router.DELETE("/session/:sessionId/cookie/:name", s.withSession(s.deleteCookie))

	router.POST("/session/:sessionId/actions", s.withSession(s.null))
	router.DELETE("/session/:sessionId/actions", s.withSession(s.null))

	router.POST("/session/:sessionId/alert/dismiss", s.withSession(s.closeAlert))
	router.POST("/session/:sessionId/alert/accept", s.withSession(s.closeAlert))
	router.GET("/session/:sessionId/alert/text", s.withSession(s.alertText))
	router.POST("/session/:sessionId/alert/text", s.withSession(s.alertText))

	router.GET("/session/:sessionId/screenshot", s.withSession(s.screenshot))
	router.POST("/session/:sessionId/print", s.withSession(s.print))

	s.srv = httptest.NewServer(s.record(router))
	return s
}

// URL is the base address of the server.
func (s *Server) URL() string { return s.srv.URL }

func (s *Server) Close() { s.srv.Close() }

// Requests is the number of requests received so far.
func (s *Server) Requests() int { return int(s.requests.Load()) }

// LastRequest is the most recent request received.
func (s *Server) LastRequest() Request {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.last
}

// SetReady sets the readiness reported by /status.
func (s *Server) SetReady(ready bool) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.ready = ready
}

func (s *Server) SetTitle(title string) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.title = title
}

// SetAlert opens a user prompt with text. Dismissing or accepting it closes it.
func (s *Server) SetAlert(text string) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.alert = &text
}

// Override replaces the handling of requests for the exact method and path.
func (s *Server) Override(method, path string, h http.HandlerFunc) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.overrides[method+" "+path] = h
}

// AddElement registers an element found at the top level by selector, and returns its id.
func (s *Server) AddElement(selector, tag, text string) string {
	s.mut.Lock()
	defer s.mut.Unlock()
	id := s.newElement(tag, text)
	s.roots[selector] = append(s.roots[selector], id)
	return id
}

// AddChild registers an element found from parent by selector.
func (s *Server) AddChild(parent, selector, tag, text string) string {
	s.mut.Lock()
	defer s.mut.Unlock()
	id := s.newElement(tag, text)
	p := s.elements[parent]
	p.children[selector] = append(p.children[selector], id)
	return id
}

// SetAttribute sets an attribute of an element. Properties read the same values.
func (s *Server) SetAttribute(id, name, value string) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.elements[id].attrs[name] = value
}

// SetCSS sets the computed value of a CSS property of an element.
func (s *Server) SetCSS(id, property, value string) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.elements[id].css[property] = value
}

// SetAccessibility sets the computed ARIA role and accessible name of an element.
func (s *Server) SetAccessibility(id, role, label string) {
	s.mut.Lock()
	defer s.mut.Unlock()
	e := s.elements[id]
	e.role = role
	e.label = label
}

// AddShadowRoot attaches a shadow root to an element and returns its id.
func (s *Server) AddShadowRoot(host string) string {
	s.mut.Lock()
	defer s.mut.Unlock()
	id := uuid.NewString()
	s.shadows[id] = &shadowRoot{children: map[string][]string{}}
	s.elements[host].shadow = id
	return id
}

// AddShadowChild registers an element found from a shadow root by selector.
func (s *Server) AddShadowChild(root, selector, tag, text string) string {
	s.mut.Lock()
	defer s.mut.Unlock()
	id := s.newElement(tag, text)
	r := s.shadows[root]
	r.children[selector] = append(r.children[selector], id)
	return id
}

// Text returns the current text of an element.
func (s *Server) Text(id string) string {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.elements[id].text
}

func (s *Server) newElement(tag, text string) string {
	id := uuid.NewString()
	s.elements[id] = &element{tag: tag, text: text, attrs: map[string]string{}, css: map[string]string{}, children: map[string][]string{}}
	return id
}

// WriteValue writes a success envelope.
func WriteValue(w http.ResponseWriter, v any) {
	b, err := json.Marshal(map[string]any{"value": v})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(b)
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	b, _ := json.Marshal(map[string]any{"value": map[string]any{
		"error":      code,
		"message":    message,
		"stacktrace": "",
	}})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(b)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		s.log.Debugf("%s %s %s", r.Method, r.URL.Path, body)

		s.mut.Lock()
		s.last = Request{Method: r.Method, Path: r.URL.Path, ContentType: r.Header.Get("Content-Type"), Body: body}
		override := s.overrides[r.Method+" "+r.URL.Path]
		s.mut.Unlock()

		if override != nil {
			override(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session, params httprouter.Params)

// withSession resolves the session of the request and holds the server lock while h runs.
func (s *Server) withSession(h sessionHandler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		s.mut.Lock()
		defer s.mut.Unlock()
		sess, ok := s.sessions[params.ByName("sessionId")]
		if !ok {
			WriteError(w, http.StatusNotFound, "invalid session id", "no active session with id "+params.ByName("sessionId"))
			return
		}
		h(w, r, sess, params)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid argument", err.Error())
		return false
	}
	return true
}

func (s *Server) status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mut.Lock()
	ready := s.ready
	s.mut.Unlock()
	msg := "ready to create a session"
	if !ready {
		msg = "not ready"
	}
	WriteValue(w, map[string]any{
		"ready":   ready,
		"message": msg,
		"build":   map[string]any{"version": "0.0.0-test"},
	})
}

func (s *Server) newSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Capabilities struct {
			AlwaysMatch map[string]any `json:"alwaysMatch"`
		} `json:"capabilities"`
	}
	if !decode(w, r, &req) {
		return
	}
	caps := map[string]any{"browserName": "fake", "browserVersion": "1.0"}
	for k, v := range req.Capabilities.AlwaysMatch {
		caps[k] = v
	}

	s.mut.Lock()
	defer s.mut.Unlock()
	id := uuid.NewString()
	window := uuid.NewString()
	s.sessions[id] = &session{
		url:     "about:blank",
		windows: []string{window},
		current: window,
		rect:    rect{X: 10, Y: 10, Width: 800, Height: 600},
		cookies: map[string]map[string]any{},
	}
	WriteValue(w, map[string]any{"sessionId": id, "capabilities": caps})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	delete(s.sessions, params.ByName("sessionId"))
	WriteValue(w, nil)
}

func (s *Server) null(w http.ResponseWriter, r *http.Request, _ *session, _ httprouter.Params) {
	WriteValue(w, nil)
}

func (s *Server) timeouts(w http.ResponseWriter, r *http.Request, _ *session, _ httprouter.Params) {
	WriteValue(w, map[string]any{"script": 30000, "pageLoad": 300000, "implicit": 0})
}

func (s *Server) currentURL(w http.ResponseWriter, r *http.Request, sess *session, _ httprouter.Params) {
	WriteValue(w, sess.url)
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request, sess *session, _ httprouter.Params) {
	var req struct {
		URL string `json:"url"`
	}
	if !decode(w, r, &req) {
		return
	}
	sess.url = req.URL
	WriteValue(w, nil)
}

func (s *Server) getTitle(w http.ResponseWriter, r *http.Request, _ *session, _ httprouter.Params) {
	WriteValue(w, s.title)
}

func (s *Server) source(w http.ResponseWriter, r *http.Request, _ *session, _ httprouter.Params) {
	WriteValue(w, "<html><head><title>"+s.title+"</title></head><body></body></html>")
}

func (s *Server) window(w http.ResponseWriter, r *http.Request, sess *session, _ httprouter.Params) {
	WriteValue(w, sess.current)
}

func (s *Server) windowHandles(w http.ResponseWriter, r *http.Request, sess *session, _ httprouter.Params) {
	WriteValue(w, sess.windows)
}

func (s *Server) switchWindow(w http.ResponseWriter, r *http.Request, sess *session, _ httprouter.Params) {
	var req struct {
		Handle string `json:"handle"`
	}
	if !decode(w, r, &req) {
		return
	}
	for _, h := range sess.windows {
		if h == req.Handle {
			sess.current = h
			WriteValue(w, nil)
			return
		}
	}
	WriteError(w, http.StatusNotFound, "no such window", "no window with handle "+req.Handle)
}

func (s *Server) closeWindow(w http.ResponseWriter, r *http.Request, sess *session, _ httprouter.Params) {
	var remaining []string
	for _, h := range sess.windows {
		if h != sess.current {
			remaining = append(remaining, h)
		}
	}
	sess.windows = remaining
	sess.current = ""
	if len(remaining) > 0 {
		sess.current = remaining[0]
	}
	if remaining == nil {
		remaining = []string{}
	}
	WriteValue(w, remaining)
}

func (s *Server) newWindow(w http.ResponseWriter, r *http.Request, sess *session, _ httprouter.Params) {
	var req struct {
		Type string `json:"type"`
	}
	if !decode(w, r, &req) {
		return
	}
	h := uuid.NewString()
	sess.windows = append(sess.windows, h)
	WriteValue(w, map[string]any{"handle": h, "type": req.Type})
}

func (s *Server) windowRect(w http.ResponseWriter, r *http.Request, sess *session, _ httprouter.Params) {
	WriteValue(w, sess.rect)
}

func (s *Server) setWindowRect(w http.ResponseWriter, r *http.Request, sess *session, _ httprouter.Params) {
	var req struct {
		X      *int `json:"x"`
		Y      *int `json:"y"`
		Width  *int `json:"width"`
		Height *int `json:"height"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.X != nil {
		sess.rect.X = *req.X
	}
	if req.Y != nil {
		sess.rect.Y = *req.Y
	}
	if req.Width != nil {
		sess.rect.Width = *req.Width
	}
	if req.Height != nil {
		sess.rect.Height = *req.Height
	}
	WriteValue(w, sess.rect)
}

func (s *Server) resizeToScreen(w http.ResponseWriter, r *http.Request, sess *session, _ httprouter.Params) {
	sess.rect = screen
	WriteValue(w, sess.rect)
}

// switchFrame accepts null, a frame index or a reference to a known element.
func (s *Server) switchFrame(w http.ResponseWriter, r *http.Request, _ *session, _ httprouter.Params) {
	var req struct {
		ID any `json:"id"`
	}
	if !decode(w, r, &req) {
		return
	}
	switch id := req.ID.(type) {
	case nil, float64:
	case map[string]any:
		ref, _ := id[elementKey].(string)
		if _, ok := s.elements[ref]; !ok {
			WriteError(w, http.StatusNotFound, "no such frame", "no frame for element "+ref)
			return
		}
	default:
		WriteError(w, http.StatusBadRequest, "invalid argument", "frame id must be null, a number or an element")
		return
	}
	WriteValue(w, nil)
}

// scope returns the children of the element or shadow root named in the path, or the top level.
func (s *Server) scope(w http.ResponseWriter, params httprouter.Params) (map[string][]string, bool) {
	if id := params.ByName("elementId"); id != "" {
		e, ok := s.elements[id]
		if !ok {
			WriteError(w, http.StatusNotFound, "no such element", "no element with id "+id)
			return nil, false
		}
		return e.children, true
	}
	if id := params.ByName("shadowId"); id != "" {
		sr, ok := s.shadows[id]
		if !ok {
			WriteError(w, http.StatusNotFound, "no such shadow root", "no shadow root with id "+id)
			return nil, false
		}
		return sr.children, true
	}
	return s.roots, true
}

type locator struct {
	Using string `json:"using"`
	Value string `json:"value"`
}

func (s *Server) findElement(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	var loc locator
	if !decode(w, r, &loc) {
		return
	}
	children, ok := s.scope(w, params)
	if !ok {
		return
	}
	ids := children[loc.Value]
	if len(ids) == 0 {
		WriteError(w, http.StatusNotFound, "no such element", "Unable to locate element: "+loc.Value)
		return
	}
	WriteValue(w, map[string]any{elementKey: ids[0]})
}

func (s *Server) findElements(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	var loc locator
	if !decode(w, r, &loc) {
		return
	}
	children, ok := s.scope(w, params)
	if !ok {
		return
	}
	refs := []any{}
	for _, id := range children[loc.Value] {
		refs = append(refs, map[string]any{elementKey: id})
	}
	WriteValue(w, refs)
}

// activeElement serves GET /element/active, which shares its route with element ids.
func (s *Server) activeElement(w http.ResponseWriter, r *http.Request, sess *session, params httprouter.Params) {
	if params.ByName("elementId") != "active" {
		WriteError(w, http.StatusNotFound, "unknown command", "unknown command: "+r.Method+" "+r.URL.Path)
		return
	}
	if sess.active == "" {
		WriteError(w, http.StatusNotFound, "no such element", "no focused element")
		return
	}
	WriteValue(w, map[string]any{elementKey: sess.active})
}

func (s *Server) lookup(w http.ResponseWriter, params httprouter.Params) (*element, bool) {
	id := params.ByName("elementId")
	e, ok := s.elements[id]
	if !ok {
		WriteError(w, http.StatusNotFound, "no such element", "no element with id "+id)
	}
	return e, ok
}

func (s *Server) shadowOf(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	e, ok := s.lookup(w, params)
	if !ok {
		return
	}
	if e.shadow == "" {
		WriteError(w, http.StatusNotFound, "no such shadow root", "element has no shadow root")
		return
	}
	WriteValue(w, map[string]any{shadowRootKey: e.shadow})
}

func (s *Server) elementText(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	if e, ok := s.lookup(w, params); ok {
		WriteValue(w, e.text)
	}
}

func (s *Server) elementTag(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	if e, ok := s.lookup(w, params); ok {
		WriteValue(w, e.tag)
	}
}

func (s *Server) elementAttribute(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	e, ok := s.lookup(w, params)
	if !ok {
		return
	}
	v, ok := e.attrs[params.ByName("name")]
	if !ok {
		WriteValue(w, nil)
		return
	}
	WriteValue(w, v)
}

// elementSelected reports the selected or checked attribute.
func (s *Server) elementSelected(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	if e, ok := s.lookup(w, params); ok {
		_, selected := e.attrs["selected"]
		_, checked := e.attrs["checked"]
		WriteValue(w, selected || checked)
	}
}

// elementEnabled reports the absence of the disabled attribute.
func (s *Server) elementEnabled(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	if e, ok := s.lookup(w, params); ok {
		_, disabled := e.attrs["disabled"]
		WriteValue(w, !disabled)
	}
}

func (s *Server) elementCSS(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	if e, ok := s.lookup(w, params); ok {
		WriteValue(w, e.css[params.ByName("name")])
	}
}

func (s *Server) elementRole(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	if e, ok := s.lookup(w, params); ok {
		WriteValue(w, e.role)
	}
}

func (s *Server) elementLabel(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	if e, ok := s.lookup(w, params); ok {
		WriteValue(w, e.label)
	}
}

func (s *Server) elementRect(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	if _, ok := s.lookup(w, params); ok {
		WriteValue(w, rect{Width: 800, Height: 600})
	}
}

func (s *Server) click(w http.ResponseWriter, r *http.Request, sess *session, params httprouter.Params) {
	if _, ok := s.lookup(w, params); ok {
		sess.active = params.ByName("elementId")
		WriteValue(w, nil)
	}
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request, _ *session, params httprouter.Params) {
	if e, ok := s.lookup(w, params); ok {
		e.text = ""
		WriteValue(w, nil)
	}
}

func (s *Server) sendKeys(w http.ResponseWriter, r *http.Request, sess *session, params httprouter.Params) {
	e, ok := s.lookup(w, params)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}
	e.text += req.Text
	sess.active = params.ByName("elementId")
	WriteValue(w, nil)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, _ *session, _ httprouter.Params) {
	var req struct {
		Script string `json:"script"`
		Args   []any  `json:"args"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Args == nil {
		WriteError(w, http.StatusBadRequest, "invalid argument", "args must be an array")
		return
	}
	WriteValue(w, req.Args)
}

func (s *Server) cookies(w http.ResponseWriter, r *http.Request, sess *session, _ httprouter.Params) {
	cookies := []any{}
	for _, c := range sess.cookies {
		cookies = append(cookies, c)
	}
	WriteValue(w, cookies)
}

func (s *Server) cookie(w http.ResponseWriter, r *http.Request, sess *session, params httprouter.Params) {
	c, ok := sess.cookies[params.ByName("name")]
	if !ok {
		WriteError(w, http.StatusNotFound, "no such cookie", "no cookie named "+params.ByName("name"))
		return
	}
	WriteValue(w, c)
}

func (s *Server) addCookie(w http.ResponseWriter, r *http.Request, sess *session, _ httprouter.Params) {
	var req struct {
		Cookie map[string]any `json:"cookie"`
	}
	if !decode(w, r, &req) {
		return
	}
	name, ok := req.Cookie["name"].(string)
	if !ok {
		WriteError(w, http.StatusBadRequest, "invalid argument", "cookie has no name")
		return
	}
	sess.cookies[name] = req.Cookie
	WriteValue(w, nil)
}

func (s *Server) deleteCookie(w http.ResponseWriter, r *http.Request, sess *session, params httprouter.Params) {
	delete(sess.cookies, params.ByName("name"))
	WriteValue(w, nil)
}

func (s *Server) deleteAllCookies(w http.ResponseWriter, r *http.Request, sess *session, _ httprouter.Params) {
	sess.cookies = map[string]map[string]any{}
	WriteValue(w, nil)
}

func (s *Server) closeAlert(w http.ResponseWriter, r *http.Request, _ *session, _ httprouter.Params) {
	if s.alert == nil {
		WriteError(w, http.StatusNotFound, "no such alert", "no user prompt is open")
		return
	}
	s.alert = nil
	WriteValue(w, nil)
}

func (s *Server) alertText(w http.ResponseWriter, r *http.Request, _ *session, _ httprouter.Params) {
	if s.alert == nil {
		WriteError(w, http.StatusNotFound, "no such alert", "no user prompt is open")
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Text string `json:"text"`
		}
		if !decode(w, r, &req) {
			return
		}
		*s.alert = req.Text
		WriteValue(w, nil)
		return
	}
	WriteValue(w, *s.alert)
}

func (s *Server) screenshot(w http.ResponseWriter, r *http.Request, _ *session, _ httprouter.Params) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))); err != nil {
		WriteError(w, http.StatusInternalServerError, "unknown error", err.Error())
		return
	}
	WriteValue(w, base64.StdEncoding.EncodeToString(buf.Bytes()))
}

func (s *Server) print(w http.ResponseWriter, r *http.Request, _ *session, _ httprouter.Params) {
	WriteValue(w, base64.StdEncoding.EncodeToString([]byte("%PDF-1.4\n%%EOF\n")))
}
