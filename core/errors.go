package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ProviderError represents a failed generation call with full context.
type ProviderError struct {
	Provider  string
	Status    int
	RequestID string
	Code      string
	Message   string
	JobID     string
	Budget    time.Duration
	Locale    string
	Err       error

	key  string
	args []any
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Status == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, " (status=%d", e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, ", code=%s", e.Code)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, ", request_id=%s", e.RequestID)
	}
	b.WriteString(")")
	return b.String()
}

// Unwrap returns the underlying error for error chaining.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Localize re-renders the message in the given locale.
// Messages that did not come from the catalog are left untouched.
func (e *ProviderError) Localize(locale string) {
	if e == nil || locale == "" {
		return
	}
	e.Locale = locale
	if e.key == "" {
		return
	}
	e.Message = Sprintf(locale, e.key, e.args...)
}

// Sentinel errors for classification. Every error returned by the gateway
// wraps exactly one of the first eight.
var (
	ErrValidation  = errors.New("validation error")
	ErrCanceled    = errors.New("canceled")
	ErrTimeout     = errors.New("timeout")
	ErrNetwork     = errors.New("network error")
	ErrHTTP        = errors.New("http error")
	ErrJobFailed   = errors.New("job failed")
	ErrJobNotFound = errors.New("job not found")
	ErrEmptyResult = errors.New("empty result")
)

// Status refinements. These are joined with ErrHTTP.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
	ErrDecode       = errors.New("decode error")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrValidation, "validation"},
	{ErrCanceled, "canceled"},
	{ErrTimeout, "timeout"},
	{ErrNetwork, "network"},
	{ErrHTTP, "http"},
	{ErrJobFailed, "job_failed"},
	{ErrJobNotFound, "job_not_found"},
	{ErrEmptyResult, "empty_result"},
}

// Kind returns the classification sentinel wrapped by err, or nil.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.err
		}
	}
	return nil
}

// KindName returns a short stable label for err's classification,
// suitable for metrics and log fields. It is "ok" for nil and "unknown"
// for unclassified errors.
func KindName(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}

func newError(provider string, sentinel error, key string, args ...any) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Message:  Sprintf("", key, args...),
		Err:      sentinel,
		key:      key,
		args:     args,
	}
}

// ValidationError reports a request rejected before any network activity.
func ValidationError(detail string) *ProviderError {
	return newError("", ErrValidation, msgInvalidRequest, detail)
}

// CanceledError reports a call aborted by the caller.
func CanceledError(provider string) *ProviderError {
	return newError(provider, ErrCanceled, msgCanceled)
}

// TimeoutError reports a call that exhausted its budget.
func TimeoutError(provider string, budget time.Duration) *ProviderError {
	e := newError(provider, ErrTimeout, msgTimeout, formatBudget(budget))
	e.Budget = budget
	return e
}

// NetworkError reports a transport failure without an HTTP response.
func NetworkError(provider string, cause error) *ProviderError {
	detail := "connection failed"
	if cause != nil {
		detail = cause.Error()
	}
	return newError(provider, errors.Join(ErrNetwork, cause), msgNetwork, detail)
}

// HTTPError reports a non-2xx response. sentinel may refine ErrHTTP
// (e.g. ErrRateLimited) and may be nil.
func HTTPError(provider string, status int, requestID, code, message string, sentinel error) *ProviderError {
	err := ErrHTTP
	if sentinel != nil && sentinel != ErrHTTP {
		err = errors.Join(ErrHTTP, sentinel)
	}
	return &ProviderError{
		Provider:  provider,
		Status:    status,
		RequestID: requestID,
		Code:      code,
		Message:   message,
		Err:       err,
	}
}

// InvalidAPIKeyError reports a response recognised as a rejected credential.
func InvalidAPIKeyError(provider string, status int) *ProviderError {
	e := newError(provider, errors.Join(ErrHTTP, ErrUnauthorized), msgInvalidAPIKey)
	e.Status = status
	e.Code = "invalid_api_key"
	return e
}

// DecodeError reports a 2xx response whose body could not be understood.
func DecodeError(provider string, cause error) *ProviderError {
	detail := "unreadable response"
	if cause != nil {
		detail = cause.Error()
	}
	return newError(provider, errors.Join(ErrHTTP, ErrDecode), msgDecode, detail)
}

// JobFailedError reports a queued job whose status indicates failure.
func JobFailedError(provider, jobID, status string) *ProviderError {
	e := newError(provider, ErrJobFailed, msgJobFailed, jobLabel(jobID), status)
	e.JobID = jobID
	e.Code = status
	return e
}

// JobNotFoundError reports that no result was located before the deadline.
func JobNotFoundError(provider, jobID string) *ProviderError {
	e := newError(provider, ErrJobNotFound, msgJobNotFound, jobLabel(jobID))
	e.JobID = jobID
	return e
}

// EmptyResultError reports a successful response that produced no images.
// Any text the provider returned is carried in the message.
func EmptyResultError(provider, text string) *ProviderError {
	text = truncate(strings.TrimSpace(text), 200)
	if text == "" {
		return newError(provider, ErrEmptyResult, msgEmptyResult)
	}
	return newError(provider, ErrEmptyResult, msgEmptyResultText, text)
}

func jobLabel(id string) string {
	if id == "" {
		return "no_request_id"
	}
	return id
}

func formatBudget(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return d.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
