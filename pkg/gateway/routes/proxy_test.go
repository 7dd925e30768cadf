package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/edumint-ai/platform/pkg/common/config"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "dial timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// flakyTransport consumes the request body like a real transport would, then
// fails the first n attempts with a retriable timeout.
type flakyTransport struct {
	failures int
	calls    int
	bodies   []string
}

func (t *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls++
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}
	t.bodies = append(t.bodies, string(body))

	if t.calls <= t.failures {
		return nil, timeoutError{}
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(`{"ok":true}`)),
		Request:    req,
	}, nil
}

func TestForwardRetriesWithFreshBody(t *testing.T) {
	transport := &flakyTransport{failures: 1}
	p := &Proxy{
		Client: &http.Client{Transport: transport},
		Cfg:    config.Load(),
	}

	payload := `{"tool":"quiz","topic":"fractions"}`
	r := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(payload))
	w := httptest.NewRecorder()

	p.forward(w, r, http.MethodPost, "http://content.internal/api/v1/generate")

	if transport.calls != 2 {
		t.Fatalf("expected a retry after the timeout, got %d attempts", transport.calls)
	}
	if transport.bodies[0] != payload {
		t.Fatalf("first attempt forwarded body %q", transport.bodies[0])
	}
	if transport.bodies[1] != payload {
		t.Fatalf("retried attempt forwarded body %q, want the full payload", transport.bodies[1])
	}
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after successful retry, got %d", w.Code)
	}
}

func TestForwardGivesUpAfterExhaustedRetries(t *testing.T) {
	transport := &flakyTransport{failures: 10}
	p := &Proxy{
		Client: &http.Client{Transport: transport},
		Cfg:    config.Load(),
	}

	r := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	p.forward(w, r, http.MethodPost, "http://content.internal/api/v1/generate")

	if transport.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", transport.calls)
	}
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 when the upstream stays down, got %d", w.Code)
	}
}
