package webdrivertest

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Value json.RawMessage `json:"value"`
}

func call(t *testing.T, s *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL()+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	var value any
	require.NoError(t, json.Unmarshal(env.Value, &value))
	m, _ := value.(map[string]any)
	return resp.StatusCode, m
}

func TestUnknownRoutes(t *testing.T) {
	s := NewServer()
	t.Cleanup(s.Close)

	cases := []struct {
		name   string
		method string
		path   string
		status int
		code   string
	}{
		{name: "unknown path", method: http.MethodGet, path: "/nope", status: http.StatusNotFound, code: "unknown command"},
		{name: "wrong method", method: http.MethodPut, path: "/status", status: http.StatusMethodNotAllowed, code: "unknown method"},
		{name: "unknown session", method: http.MethodGet, path: "/session/missing/url", status: http.StatusNotFound, code: "invalid session id"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			status, value := call(t, s, c.method, c.path, "")
			assert.Equal(t, c.status, status)
			assert.Equal(t, c.code, value["error"])
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := NewServer()
	t.Cleanup(s.Close)

	status, value := call(t, s, http.MethodPost, "/session", `{"capabilities":{"alwaysMatch":{"browserName":"chrome"}}}`)
	require.Equal(t, http.StatusOK, status)
	id, _ := value["sessionId"].(string)
	require.NotEmpty(t, id)
	caps, _ := value["capabilities"].(map[string]any)
	assert.Equal(t, "chrome", caps["browserName"])

	elem := s.AddElement("h1", "h1", "Hello")
	status, value = call(t, s, http.MethodPost, "/session/"+id+"/element", `{"using":"css selector","value":"h1"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, elem, value[elementKey])

	status, value = call(t, s, http.MethodPost, "/session/"+id+"/element", `{"using":"css selector","value":"h2"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "no such element", value["error"])

	status, _ = call(t, s, http.MethodDelete, "/session/"+id, "")
	require.Equal(t, http.StatusOK, status)
	status, value = call(t, s, http.MethodGet, "/session/"+id+"/url", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "invalid session id", value["error"])

	assert.Equal(t, 5, s.Requests())
	assert.Equal(t, "/session/"+id+"/url", s.LastRequest().Path)
}

func TestOverride(t *testing.T) {
	s := NewServer()
	t.Cleanup(s.Close)

	s.Override(http.MethodGet, "/status", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusInternalServerError, "unknown error", "boom")
	})
	status, value := call(t, s, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "boom", value["message"])
}
