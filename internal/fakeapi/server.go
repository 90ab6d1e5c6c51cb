// Package fakeapi emulates the AAMS Django REST API closely enough to exercise
// the client end to end: simplejwt login, refresh and blacklist, bearer
// authentication, DRF style CRUD and a handful of detail actions.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
)

// RecordedRequest is one request seen by the server
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          []byte
}

type forcedResponse struct {
	status    int
	remaining int
}

// Server is a running fake AAMS API
type Server struct {
	*httptest.Server

	// Token lifetimes, change before issuing tokens
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// RotateRefresh returns a new refresh token from /api/token/refresh/ and blacklists the old one
	RotateRefresh bool
	// RefreshDelay holds every refresh response, used to overlap concurrent refreshes
	RefreshDelay time.Duration
	// Now is the server clock
	Now func() time.Time

	FailRefresh atomic.Bool

	refreshCalls   atomic.Int32
	blacklistCalls atomic.Int32
	loginCalls     atomic.Int32

	secret []byte
	router *mux.Router

	mu          sync.Mutex
	passwords   map[string]string // username -> password
	blacklisted map[string]bool   // refresh jti
	revoked     map[string]bool   // access jti
	issued      []string          // access jti, oldest first
	forced      map[string]*forcedResponse
	requests    []RecordedRequest
	store       *store
}

// New starts a fake API server, callers must Close it
func New() *Server {
	s := &Server{
		AccessTTL:   5 * time.Minute,
		RefreshTTL:  24 * time.Hour,
		Now:         time.Now,
		secret:      []byte("fakeapi-signing-secret"),
		passwords:   make(map[string]string),
		blacklisted: make(map[string]bool),
		revoked:     make(map[string]bool),
		forced:      make(map[string]*forcedResponse),
		store:       newStore(),
	}
	s.router = s.routes()
	s.Server = httptest.NewServer(s)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	if status, ok := s.takeForced(r.Method, r.URL.Path); ok {
		writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
		return
	}
	s.router.ServeHTTP(w, r)
}

// AddUser creates a user that can log in and returns its id
func (s *Server) AddUser(username, password string, isStaff, isSuperuser bool) int64 {
	s.mu.Lock()
	s.passwords[username] = password
	s.mu.Unlock()

	return s.store.create("users", map[string]any{
		"username":     username,
		"email":        username + "@example.com",
		"first_name":   strings.ToUpper(username[:1]) + username[1:],
		"last_name":    "Tester",
		"employee_id":  fmt.Sprintf("EMP-%s", username),
		"position":     "Agent",
		"department":   "Operations",
		"phone":        nil,
		"address":      nil,
		"is_active":    true,
		"is_staff":     isStaff,
		"is_superuser": isSuperuser,
		"date_joined":  s.Now().UTC().Format(time.RFC3339),
		"groups":       []any{},
		"user_roles":   []any{},
	})
}

// Seed inserts a record into a collection such as "projects" and returns its id
func (s *Server) Seed(collection string, record map[string]any) int64 {
	return s.store.create(collection, record)
}

// Record returns a copy of a stored record
func (s *Server) Record(collection string, id int64) (map[string]any, bool) {
	return s.store.get(collection, id)
}

// FailNext makes the next n requests to method and path answer with status
func (s *Server) FailNext(method, path string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced[method+" "+path] = &forcedResponse{status: status, remaining: n}
}

// ExpireAccessTokens revokes every access token issued so far, as if they had expired
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, jti := range s.issued {
		s.revoked[jti] = true
	}
}

func (s *Server) RefreshCalls() int   { return int(s.refreshCalls.Load()) }
func (s *Server) BlacklistCalls() int { return int(s.blacklistCalls.Load()) }
func (s *Server) LoginCalls() int     { return int(s.loginCalls.Load()) }

// Requests returns every request received, oldest first
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// RequestsTo returns the recorded requests for one method and path
func (s *Server) RequestsTo(method, path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) record(r *http.Request) {
	var body []byte
	if r.Body != nil {
		body, _ = readBody(r)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, RecordedRequest{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
		Body:          body,
	})
}

func (s *Server) takeForced(method, path string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forced[method+" "+path]
	if !ok || f.remaining <= 0 {
		return 0, false
	}
	f.remaining--
	return f.status, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
