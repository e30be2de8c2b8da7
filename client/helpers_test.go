package client

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jpalomar/CitasGo/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestAPI builds an api against a test server with retries and the
// circuit breaker effectively disabled, so error paths return instantly.
func newTestAPI(t *testing.T, baseURL string, token func() string) *api {
	t.Helper()
	if token == nil {
		token = func() string { return "" }
	}
	httpc := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.Config{
			Timeout:         2 * time.Second,
			MaxRetries:      0,
			RetryWaitMin:    time.Millisecond,
			RetryWaitMax:    time.Millisecond,
			MaxConnsPerHost: 10,
		}),
		httpclient.CircuitBreakerConfig{
			Name:         "test-" + t.Name(),
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      time.Second,
			FailureRatio: 1.0,
			MinRequests:  1 << 30, // never trips
		},
		testLogger(),
	)
	return newAPI(baseURL, httpc, token)
}

// mintToken builds an unsigned JWT-shaped token from the given claims.
func mintToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "." + enc.EncodeToString([]byte("sig"))
}

// navRecorder records routes the session navigates to.
type navRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (n *navRecorder) NavigateTo(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *navRecorder) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.routes) == 0 {
		return ""
	}
	return n.routes[len(n.routes)-1]
}
