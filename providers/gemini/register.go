package gemini

import (
	"github.com/petal-labs/lumen/core"
	"github.com/petal-labs/lumen/providers"
)

func init() {
	providers.Register(core.ProviderGemini, func(s providers.Settings) core.Adapter {
		opts := []Option{
			WithBaseURL(s.BaseURL),
			WithHTTPClient(s.HTTPClient),
			WithLogger(s.Logger),
		}
		for k, v := range s.Headers {
			opts = append(opts, WithHeader(k, v))
		}
		return New(s.APIKey, opts...)
	})
}
