package openrouter

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/petal-labs/lumen/core"
)

// ImageBlockStyle selects how reference images are encoded in a message.
// Upstream models behind the router disagree on the accepted shape.
type ImageBlockStyle string

const (
	// ImageBlockURLObject sends {"type":"image_url","image_url":{"url":"data:..."}}.
	ImageBlockURLObject ImageBlockStyle = "image_url"
	// ImageBlockURLString sends {"type":"image_url","image_url":"data:..."}.
	ImageBlockURLString ImageBlockStyle = "image_url_string"
	// ImageBlockBase64Source sends {"type":"image","source":{"type":"base64",...}}.
	ImageBlockBase64Source ImageBlockStyle = "base64_source"
)

// ParseImageBlockStyle maps a configuration string onto a style.
// Unknown values fall back to ImageBlockURLObject.
func ParseImageBlockStyle(s string) ImageBlockStyle {
	switch ImageBlockStyle(s) {
	case ImageBlockURLString, ImageBlockBase64Source:
		return ImageBlockStyle(s)
	default:
		return ImageBlockURLObject
	}
}

// Config holds configuration for the OpenRouter adapter.
type Config struct {
	// APIKey is the OpenRouter API key (required).
	APIKey core.Secret

	// BaseURL is the API base URL. Defaults to https://openrouter.ai/api/v1
	BaseURL string

	// HTTPClient is the HTTP client to use.
	HTTPClient *http.Client

	// Headers contains optional extra headers to include in requests.
	Headers http.Header

	// BlockStyle selects the reference image encoding.
	BlockStyle ImageBlockStyle

	Logger *zap.Logger
}

// DefaultBaseURL is the default OpenRouter API base URL.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Option configures the OpenRouter adapter.
type Option func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		if url != "" {
			c.BaseURL = url
		}
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

// WithAppAttribution sets the HTTP-Referer and X-Title headers OpenRouter
// uses to attribute traffic to an application.
func WithAppAttribution(referer, title string) Option {
	return func(c *Config) {
		if referer != "" {
			WithHeader("HTTP-Referer", referer)(c)
		}
		if title != "" {
			WithHeader("X-Title", title)(c)
		}
	}
}

// WithImageBlockStyle selects the reference image encoding.
func WithImageBlockStyle(style ImageBlockStyle) Option {
	return func(c *Config) {
		if style != "" {
			c.BlockStyle = style
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
