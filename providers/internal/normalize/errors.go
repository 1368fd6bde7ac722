// Package normalize turns raw provider responses into core errors.
package normalize

import (
	"bufio"
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/petal-labs/lumen/core"
)

// messagePaths are tried in order when a provider returns a JSON error body.
var messagePaths = []string{
	"error.message",
	"error.error.message",
	"error",
	"message",
	"detail.0.msg",
	"detail",
	"errors.0.message",
	"msg",
}

// codePaths locate a machine-readable error code.
var codePaths = []string{
	"error.status",
	"error.code",
	"error.type",
	"code",
	"type",
}

// invalidKeySignatures identify a rejected credential regardless of provider.
var invalidKeySignatures = []string{
	"api key not valid",
	"api_key_invalid",
	"invalid api key",
	"invalid_api_key",
	"incorrect api key",
	"no auth credentials",
}

// authOnlySignatures only count on 401 and 403 responses.
var authOnlySignatures = []string{
	"invalid key",
	"unauthorized: key",
}

// Message extracts a human readable message from an error body: a
// structured JSON message if present, else the first non-blank line of the
// body, else "HTTP {status}".
func Message(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range messagePaths {
			r := gjson.GetBytes(body, path)
			if r.Type == gjson.String && strings.TrimSpace(r.Str) != "" {
				return strings.TrimSpace(r.Str)
			}
		}
	}
	if line := firstLine(body); line != "" {
		return line
	}
	return "HTTP " + strconv.Itoa(status)
}

// Code extracts an error code from a JSON error body, or "".
func Code(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range codePaths {
		r := gjson.GetBytes(body, path)
		if r.Exists() && r.Type != gjson.JSON && r.String() != "" {
			return r.String()
		}
	}
	return ""
}

// IsInvalidAPIKey reports whether an error response matches a rejected credential.
func IsInvalidAPIKey(status int, body []byte) bool {
	lower := bytes.ToLower(body)
	if containsAny(lower, invalidKeySignatures) {
		return true
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return containsAny(lower, authOnlySignatures)
	}
	return false
}

func containsAny(lower []byte, sigs []string) bool {
	for _, sig := range sigs {
		if bytes.Contains(lower, []byte(sig)) {
			return true
		}
	}
	return false
}

// HTTPError builds the error for a non-2xx response.
func HTTPError(provider string, status int, header http.Header, body []byte) error {
	return HTTPErrorWithOverrides(provider, status, header, body, nil)
}

// HTTPErrorWithOverrides is HTTPError with provider-specific status mapping.
func HTTPErrorWithOverrides(provider string, status int, header http.Header, body []byte, overrides map[int]error) error {
	if IsInvalidAPIKey(status, body) {
		return core.InvalidAPIKeyError(provider, status)
	}
	return HTTPErrorVerbatim(provider, status, header, body, overrides)
}

// HTTPErrorVerbatim builds the error for a non-2xx response without the
// invalid-key rewrite: the provider's own message is always kept.
// Status mapping still applies, so a 401 wraps core.ErrUnauthorized.
func HTTPErrorVerbatim(provider string, status int, header http.Header, body []byte, overrides map[int]error) error {
	return core.HTTPError(
		provider,
		status,
		RequestID(header),
		Code(body),
		Message(status, body),
		SentinelForStatusWithOverrides(status, overrides),
	)
}

// RequestID returns the first request id header a provider sets.
func RequestID(header http.Header) string {
	if header == nil {
		return ""
	}
	for _, name := range []string{"X-Request-Id", "X-Fal-Request-Id", "X-Goog-Request-Id", "Cf-Ray"} {
		if v := header.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// SentinelForStatus maps an HTTP status code to a core sentinel error.
func SentinelForStatus(status int) error {
	return SentinelForStatusWithOverrides(status, nil)
}

// SentinelForStatusWithOverrides maps an HTTP status code to a core sentinel error,
// then applies any exact status overrides from the provided map.
func SentinelForStatusWithOverrides(status int, overrides map[int]error) error {
	if override, ok := overrides[status]; ok && override != nil {
		return override
	}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return core.ErrBadRequest
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return core.ErrUnauthorized
	case status == http.StatusNotFound:
		return core.ErrNotFound
	case status == http.StatusTooManyRequests:
		return core.ErrRateLimited
	case status >= 500:
		return core.ErrServer
	default:
		return nil
	}
}

func firstLine(body []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			if len(line) > 300 {
				line = line[:300]
			}
			return line
		}
	}
	return ""
}
