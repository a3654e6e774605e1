// Package testutil provides testing utilities for the Thema client.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// DataFunc answers a data request. The request body is passed decoded.
type DataFunc func(req map[string]string) (status int, body string)

// MockThema is a configurable mock of the customer API. /authenticate is
// handled by default; master data and data endpoints require a bearer token
// it issued.
type MockThema struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	username string
	password string
	tokens   map[string]bool
	issued   int

	requestCount int
	authCount    int
	pathCounts   map[string]int
	requests     map[string][]map[string]string

	LastRequestHeader http.Header
}

// NewMockThema starts a mock accepting the given credentials.
func NewMockThema(username, password string) *MockThema {
	mock := &MockThema{
		handlers:   make(map[string]http.HandlerFunc),
		username:   username,
		password:   password,
		tokens:     make(map[string]bool),
		pathCounts: make(map[string]int),
		requests:   make(map[string][]map[string]string),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		if r.URL.Path == "/authenticate" {
			mock.authenticate(w, r)
			return
		}

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}
		writeJSON(w, http.StatusNotFound, `{"message": "not found"}`)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockThema) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockThema) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockThema) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.authCount = 0
	m.pathCounts = make(map[string]int)
	m.requests = make(map[string][]map[string]string)
	m.LastRequestHeader = nil
}

func (m *MockThema) authenticate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, `{"message": "method not allowed"}`)
		return
	}
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"message": "invalid body"}`)
		return
	}

	m.mu.Lock()
	m.authCount++
	if creds.Username != m.username || creds.Password != m.password {
		m.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, `{"message": "Unauthorized"}`)
		return
	}
	m.issued++
	token := fmt.Sprintf("jwt-%d", m.issued)
	m.tokens[token] = true
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, fmt.Sprintf(`{"jwt": %q}`, token))
}

// authorized reports whether r carries a live token, answering 401 if not.
func (m *MockThema) authorized(w http.ResponseWriter, r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	m.mu.RLock()
	ok := m.tokens[token]
	m.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, `{"message": "Unauthorized"}`)
	}
	return ok
}

// RevokeTokens invalidates every issued token, as the service does when a
// token expires early.
func (m *MockThema) RevokeTokens() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = make(map[string]bool)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockThema) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path, without auth checks.
func (m *MockThema) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetMasterData serves body on a GET master data path.
func (m *MockThema) SetMasterData(path, body string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if !m.authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, body)
	})
}

// SetData serves a POST data path through fn.
func (m *MockThema) SetData(path string, fn DataFunc) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if !m.authorized(w, r) {
			return
		}
		raw, _ := io.ReadAll(r.Body)
		req := make(map[string]string)
		if err := json.Unmarshal(raw, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, `{"message": "invalid body"}`)
			return
		}
		m.mu.Lock()
		m.requests[path] = append(m.requests[path], req)
		m.mu.Unlock()

		status, body := fn(req)
		writeJSON(w, status, body)
	})
}

// RequestCount returns the number of requests made to the server.
func (m *MockThema) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// AuthCount returns the number of login attempts.
func (m *MockThema) AuthCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authCount
}

// PathCount returns the number of requests to path.
func (m *MockThema) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// Requests returns the decoded bodies received on a data path.
func (m *MockThema) Requests(path string) []map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]map[string]string(nil), m.requests[path]...)
}

// DataBody wraps rows in the single-element list the data endpoints return.
func DataBody(rows ...map[string]any) string {
	if rows == nil {
		rows = []map[string]any{}
	}
	data, err := json.Marshal([]map[string]any{{"data": rows}})
	if err != nil {
		panic(err)
	}
	return string(data)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
