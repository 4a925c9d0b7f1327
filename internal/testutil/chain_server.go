package testutil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Call is one request received by a ChainServer.
type Call struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header
}

// ChainServer is a fake chain service. Routes are registered per method and
// path; unknown routes answer 404 with a failed envelope.
type ChainServer struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  []Call
}

func NewChainServer(t *testing.T) *ChainServer {
	t.Helper()

	s := &ChainServer{routes: make(map[string]http.HandlerFunc)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func routeKey(method, path string) string {
	return method + " " + path
}

// Handle registers h for method and path, replacing any previous handler.
func (s *ChainServer) Handle(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[routeKey(method, path)] = h
}

// Reply registers a static JSON answer.
func (s *ChainServer) Reply(method, path string, status int, body string) {
	s.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Calls returns the requests received for method and path, in arrival order.
func (s *ChainServer) Calls(method, path string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Call
	for _, c := range s.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// AllCalls returns every request received, in arrival order.
func (s *ChainServer) AllCalls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *ChainServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Body: body, Header: r.Header.Clone()})
	h := s.routes[routeKey(r.Method, r.URL.Path)]
	s.mu.Unlock()

	if h == nil {
		WriteJSON(w, http.StatusNotFound, fmt.Sprintf(`{"success": false, "error": "no route for %s %s"}`, r.Method, r.URL.Path))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	h(w, r)
}

// WriteJSON writes body with a JSON content type.
func WriteJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
