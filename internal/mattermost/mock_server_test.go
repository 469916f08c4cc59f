package mattermost

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

// mockAPIServer is a test HTTP server that mocks Mattermost API responses.
type mockAPIServer struct {
	server   *httptest.Server
	handlers map[string]http.HandlerFunc
}

func newMockAPIServer() *mockAPIServer {
	m := &mockAPIServer{
		handlers: make(map[string]http.HandlerFunc),
	}

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := m.handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		http.Error(w, "mock not found: "+r.URL.Path, http.StatusNotFound)
	}))

	return m
}

func (m *mockAPIServer) close() {
	m.server.Close()
}

func (m *mockAPIServer) addHandler(path string, handler http.HandlerFunc) {
	m.handlers[path] = handler
}

// newTestClient builds a client against the mock server with a near-zero
// retry delay so exhausted-budget tests stay fast.
func newTestClient(t *testing.T, m *mockAPIServer) *Client {
	t.Helper()

	client, err := NewClient(Config{
		BaseURL:   m.server.URL,
		Token:     "test-token",
		VerifySSL: true,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	client.http.Transport.(*retryTransport).baseDelay = 0
	return client
}
