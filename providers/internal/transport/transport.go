// Package transport performs HTTP exchanges bounded by a call's deadline.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/petal-labs/lumen/core"
)

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 64 << 20

// Request is a single HTTP exchange.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client issues requests whose timeout is always the remaining time of
// the shared deadline. It never retries.
type Client struct {
	provider string
	http     *http.Client
	logger   *zap.Logger
	maxBody  int64
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxBodyBytes caps response body size.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// New creates a client. hc may be nil, in which case a client without its
// own timeout is used; the deadline governs every request.
func New(provider string, hc *http.Client, opts ...Option) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	c := &Client{
		provider: provider,
		http:     hc,
		logger:   zap.NewNop(),
		maxBody:  DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the provider name used in errors.
func (c *Client) Provider() string {
	return c.provider
}

// Do performs req under dl. Cancellation is checked before dispatch and
// after completion. Errors are ErrCanceled, ErrTimeout or ErrNetwork; a
// non-2xx status is not an error here.
func (c *Client) Do(ctx context.Context, dl core.Deadline, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.ContextError(c.provider, err, dl)
	}
	remaining := dl.Remaining()
	if remaining <= 0 {
		return nil, core.TimeoutError(c.provider, dl.Budget())
	}

	callCtx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(callCtx, method, req.URL, body)
	if err != nil {
		return nil, core.NetworkError(c.provider, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.classify(ctx, callCtx, dl, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, c.classify(ctx, callCtx, dl, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, core.ContextError(c.provider, err, dl)
	}

	c.logger.Debug("http exchange",
		zap.String("method", method),
		zap.String("host", httpReq.URL.Host),
		zap.String("path", httpReq.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)),
	)

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// PostJSON marshals payload and POSTs it with a JSON content type.
func (c *Client) PostJSON(ctx context.Context, dl core.Deadline, url string, header http.Header, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, core.ValidationError("request body: " + err.Error())
	}
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Type", "application/json")
	if h.Get("Accept") == "" {
		h.Set("Accept", "application/json")
	}
	return c.Do(ctx, dl, Request{Method: http.MethodPost, URL: url, Header: h, Body: body})
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, dl core.Deadline, url string, header http.Header) (*Response, error) {
	return c.Do(ctx, dl, Request{Method: http.MethodGet, URL: url, Header: header})
}

func (c *Client) classify(parent, callCtx context.Context, dl core.Deadline, err error) error {
	if perr := parent.Err(); perr != nil {
		return core.ContextError(c.provider, perr, dl)
	}
	if callCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return core.TimeoutError(c.provider, dl.Budget())
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return core.TimeoutError(c.provider, dl.Budget())
	}
	return core.NetworkError(c.provider, err)
}
