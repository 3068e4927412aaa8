// Package mcptest provides a stub MCP service for tests.
package mcptest

import (
	"net/http"
	"net/http/httptest"
	"sync"
)

// Reply is a canned response for one path.
type Reply struct {
	Status      int
	Body        string
	ContentType string
}

// Server serves canned replies keyed by request path and counts hits.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	replies map[string]Reply
	hits    map[string]int
	methods map[string][]string
}

// NewServer starts a stub service. Unknown paths return 404 with a JSON body.
func NewServer(replies map[string]Reply) *Server {
	s := &Server{
		replies: make(map[string]Reply, len(replies)),
		hits:    make(map[string]int),
		methods: make(map[string][]string),
	}
	for path, r := range replies {
		s.replies[path] = r
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// NewHealthyServer answers the four inventory endpoints with the given list
// bodies. Empty bodies default to an empty value array.
func NewHealthyServer(users, devices, policies string) *Server {
	return NewServer(map[string]Reply{
		"/health":                      JSON(http.StatusOK, `{"status":"ok"}`),
		"/users":                       JSON(http.StatusOK, orEmptyList(users)),
		"/devices":                     JSON(http.StatusOK, orEmptyList(devices)),
		"/conditional-access-policies": JSON(http.StatusOK, orEmptyList(policies)),
	})
}

// JSON builds a reply with an application/json content type.
func JSON(status int, body string) Reply {
	return Reply{Status: status, Body: body, ContentType: "application/json"}
}

// Set replaces the reply for path.
func (s *Server) Set(path string, r Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[path] = r
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Methods returns the verbs received on path in arrival order.
func (s *Server) Methods(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.methods[path]...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.methods[r.URL.Path] = append(s.methods[r.URL.Path], r.Method)
	reply, ok := s.replies[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		reply = JSON(http.StatusNotFound, `{"error":"not found"}`)
	}
	if reply.ContentType != "" {
		w.Header().Set("Content-Type", reply.ContentType)
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(reply.Body))
}

func orEmptyList(body string) string {
	if body == "" {
		return `{"value":[]}`
	}
	return body
}
