package fal

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/petal-labs/lumen/core"
)

// Family distinguishes FAL's two endpoint styles.
type Family int

const (
	// FamilyAuto picks the family from the endpoint host.
	FamilyAuto Family = iota
	// FamilyQueue submits flat parameters and polls for the result.
	FamilyQueue
	// FamilyDirect wraps parameters in an "input" envelope and answers inline.
	FamilyDirect
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyQueue:
		return "queue"
	case FamilyDirect:
		return "direct"
	default:
		return "auto"
	}
}

// Config holds configuration for the FAL adapter.
type Config struct {
	// APIKey is the FAL key (required).
	APIKey core.Secret

	// BaseURL is the queue base URL. Defaults to https://queue.fal.run
	BaseURL string

	// UploadURL initiates CDN uploads for reference images.
	// Empty disables uploading; references are then sent inline.
	UploadURL string

	// HTTPClient is the HTTP client to use.
	HTTPClient *http.Client

	// Headers contains optional extra headers to include in requests.
	Headers http.Header

	// Family forces the endpoint style instead of inferring it.
	Family Family

	// PollInterval is the pause between polling rounds.
	PollInterval time.Duration

	Logger *zap.Logger
}

// Defaults for the hosted FAL service.
const (
	DefaultBaseURL   = "https://queue.fal.run"
	DefaultUploadURL = "https://rest.alpha.fal.ai/storage/upload/initiate"
)

// Option configures the FAL adapter.
type Option func(*Config)

// WithBaseURL sets the queue base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		if url != "" {
			c.BaseURL = url
		}
	}
}

// WithUploadURL sets the CDN upload initiation URL.
func WithUploadURL(url string) Option {
	return func(c *Config) {
		if url != "" {
			c.UploadURL = url
		}
	}
}

// WithoutUpload sends every reference image inline.
func WithoutUpload() Option {
	return func(c *Config) {
		c.UploadURL = ""
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		if client != nil {
			c.HTTPClient = client
		}
	}
}

// WithHeader adds an extra header to include in requests.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithFamily forces the endpoint style.
func WithFamily(f Family) Option {
	return func(c *Config) {
		c.Family = f
	}
}

// WithPollInterval sets the pause between polling rounds.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.PollInterval = d
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}
