package openrouter

import (
	"github.com/petal-labs/lumen/core"
	"github.com/petal-labs/lumen/providers"
)

func init() {
	providers.Register(core.ProviderOpenRouter, func(s providers.Settings) core.Adapter {
		opts := []Option{
			WithBaseURL(s.BaseURL),
			WithHTTPClient(s.HTTPClient),
			WithLogger(s.Logger),
			WithImageBlockStyle(ParseImageBlockStyle(s.ImageBlockStyle)),
		}
		for k, v := range s.Headers {
			opts = append(opts, WithHeader(k, v))
		}
		return New(s.APIKey, opts...)
	})
}
