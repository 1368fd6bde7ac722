package normalize

import (
	"errors"
	"net/http"
	"testing"

	"github.com/petal-labs/lumen/core"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"google envelope", 400, `{"error":{"code":400,"message":"Request contains an invalid argument.","status":"INVALID_ARGUMENT"}}`, "Request contains an invalid argument."},
		{"string error", 402, `{"error":"Insufficient credits"}`, "Insufficient credits"},
		{"top-level message", 500, `{"message":"upstream exploded"}`, "upstream exploded"},
		{"fastapi detail list", 422, `{"detail":[{"loc":["body","prompt"],"msg":"field required"}]}`, "field required"},
		{"detail string", 404, `{"detail":"Request not found"}`, "Request not found"},
		{"json without message", 502, `{"ok":false}`, `{"ok":false}`},
		{"error object without message", 400, `{"error":{"code":400}}`, `{"error":{"code":400}}`},
		{"plain text first line", 503, "\n\n  Service Unavailable  \nretry later", "Service Unavailable"},
		{"html", 502, "<html><body>Bad gateway</body></html>", "<html><body>Bad gateway</body></html>"},
		{"empty", 500, "", "HTTP 500"},
		{"whitespace", 504, "   \n\t", "HTTP 504"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.status, []byte(tt.body)); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":{"code":400,"status":"INVALID_ARGUMENT"}}`, "INVALID_ARGUMENT"},
		{`{"error":{"message":"x","code":"rate_limit_exceeded"}}`, "rate_limit_exceeded"},
		{`{"error":{"message":"x","type":"invalid_request_error"}}`, "invalid_request_error"},
		{`not json`, ""},
	}
	for _, tt := range tests {
		if got := Code([]byte(tt.body)); got != tt.want {
			t.Errorf("Code(%s) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestIsInvalidAPIKey(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   bool
	}{
		{400, `{"error":{"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`, true},
		{401, `{"error":{"message":"No auth credentials found","code":401}}`, true},
		{401, `{"detail":"Invalid Key"}`, true},
		{403, `{"detail":"Unauthorized: key is disabled"}`, true},
		{422, `{"detail":"invalid key 'seed' in input"}`, false},
		{400, `{"detail":"Invalid Key"}`, false},
		{400, `{"error":{"message":"prompt blocked"}}`, false},
	}
	for _, tt := range tests {
		if got := IsInvalidAPIKey(tt.status, []byte(tt.body)); got != tt.want {
			t.Errorf("IsInvalidAPIKey(%d, %s) = %v, want %v", tt.status, tt.body, got, tt.want)
		}
	}
}

func TestHTTPError(t *testing.T) {
	header := http.Header{}
	header.Set("X-Request-Id", "req-9")

	err := HTTPError("openrouter", http.StatusTooManyRequests, header, []byte(`{"error":{"message":"Rate limit exceeded","code":"429"}}`))

	var pe *core.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *core.ProviderError, got %T", err)
	}
	if pe.Status != 429 || pe.RequestID != "req-9" || pe.Message != "Rate limit exceeded" {
		t.Errorf("unexpected error fields: %+v", pe)
	}
	if !errors.Is(err, core.ErrHTTP) || !errors.Is(err, core.ErrRateLimited) {
		t.Errorf("expected ErrHTTP and ErrRateLimited in chain")
	}
}

func TestHTTPErrorInvalidKeyIsFixedMessage(t *testing.T) {
	body := []byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`)
	err := HTTPError("gemini", 400, nil, body)

	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	want := core.InvalidAPIKeyError("gemini", 400).Message
	var pe *core.ProviderError
	if !errors.As(err, &pe) || pe.Message != want {
		t.Errorf("Message = %q, want %q", pe.Message, want)
	}
}

func TestHTTPErrorVerbatimKeepsProviderMessage(t *testing.T) {
	body := []byte(`{"error":{"message":"Invalid API key provided: sk-or-...abc","code":401}}`)
	err := HTTPErrorVerbatim("openrouter", http.StatusUnauthorized, nil, body, nil)

	var pe *core.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *core.ProviderError, got %T", err)
	}
	if pe.Message != "Invalid API key provided: sk-or-...abc" {
		t.Errorf("Message = %q, want the provider message", pe.Message)
	}
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized from the status mapping")
	}
}

func TestSentinelForStatusWithOverrides(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		overrides map[int]error
		want      error
	}{
		{"bad request", 400, nil, core.ErrBadRequest},
		{"unprocessable", 422, nil, core.ErrBadRequest},
		{"unauthorized", 401, nil, core.ErrUnauthorized},
		{"forbidden", 403, nil, core.ErrUnauthorized},
		{"not found", 404, nil, core.ErrNotFound},
		{"rate limited", 429, nil, core.ErrRateLimited},
		{"server", 500, nil, core.ErrServer},
		{"teapot", 418, nil, nil},
		{"override", 404, map[int]error{404: core.ErrServer}, core.ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SentinelForStatusWithOverrides(tt.status, tt.overrides); got != tt.want {
				t.Errorf("SentinelForStatusWithOverrides(%d) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
