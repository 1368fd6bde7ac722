package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/petal-labs/lumen/cli/config"
	"github.com/petal-labs/lumen/cli/keystore"
	"github.com/petal-labs/lumen/core"
	"github.com/petal-labs/lumen/providers"
	"github.com/petal-labs/lumen/telemetry/prom"
	"github.com/petal-labs/lumen/telemetry/zaplog"

	// Adapters register themselves with the providers registry.
	_ "github.com/petal-labs/lumen/providers/fal"
	_ "github.com/petal-labs/lumen/providers/gemini"
	_ "github.com/petal-labs/lumen/providers/openrouter"
)

// keySource says where an API key was found.
type keySource string

const (
	keyFromEnv      keySource = "env"
	keyFromKeystore keySource = "keystore"
	keyMissing      keySource = "missing"
)

// resolveKey looks up a provider's API key: environment first, then the
// keystore entry named by the provider's api_key_ref (or its ID).
func (a *App) resolveKey(id core.ProviderID) (string, keySource) {
	if v := strings.TrimSpace(os.Getenv(config.APIKeyEnv(string(id)))); v != "" {
		return v, keyFromEnv
	}

	ks, err := a.keystore()
	if err != nil {
		a.logger.Debug("keystore unavailable", zap.Error(err))
		return "", keyMissing
	}
	v, err := ks.Get(a.cfg.KeyName(string(id)))
	if err != nil {
		var nf *keystore.ErrKeyNotFound
		if !errors.As(err, &nf) {
			a.logger.Warn("keystore read failed", zap.String("provider", string(id)), zap.Error(err))
		}
		return "", keyMissing
	}
	return v, keyFromKeystore
}

func (a *App) keystore() (keystore.Keystore, error) {
	if a.ks != nil {
		return a.ks, nil
	}
	ks, err := a.newKeystore()
	if err != nil {
		return nil, err
	}
	a.ks = ks
	return ks, nil
}

func (a *App) settings(id core.ProviderID, apiKey string) providers.Settings {
	s := providers.Settings{
		APIKey:     apiKey,
		HTTPClient: a.httpClient,
		Logger:     a.logger.With(zap.String("provider", string(id))),
	}
	if pc := a.cfg.GetProvider(string(id)); pc != nil {
		s.BaseURL = pc.BaseURL
		s.UploadURL = pc.UploadURL
		s.PollInterval = pc.PollInterval
		s.ImageBlockStyle = pc.ImageBlockStyle
		s.Headers = pc.Headers
	}
	return s
}

// buildGateway wires an adapter for every provider that has a key.
// With metrics set, a Prometheus hook is attached and its registry returned.
func (a *App) buildGateway(metrics bool) (*core.Gateway, *prometheus.Registry, error) {
	hooks := core.MultiTelemetryHook{zaplog.New(a.logger)}

	var reg *prometheus.Registry
	if metrics {
		reg = prometheus.NewRegistry()
		h, err := prom.New(prom.DefaultNamespace, reg)
		if err != nil {
			return nil, nil, err
		}
		hooks = append(hooks, h)
	}

	opts := []core.GatewayOption{
		core.WithLogger(a.logger),
		core.WithTelemetry(hooks),
	}
	if a.timeout > 0 {
		opts = append(opts, core.WithDefaultTimeout(a.timeout))
	}

	for _, id := range providers.List() {
		key, src := a.resolveKey(id)
		if src == keyMissing {
			continue
		}
		adapter, err := providers.Create(id, a.settings(id, key))
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, core.WithAdapter(adapter))
	}
	return core.NewGateway(opts...), reg, nil
}

// requireKey fails early with a hint when the selected provider has no key.
func (a *App) requireKey(id core.ProviderID) error {
	if !id.IsKnown() {
		return nil
	}
	if _, src := a.resolveKey(id); src == keyMissing {
		return &exitError{
			code: ExitValidation,
			err: fmt.Errorf("no API key for %s: set %s or run 'lumen keys set %s'",
				id, config.APIKeyEnv(string(id)), a.cfg.KeyName(string(id))),
		}
	}
	return nil
}

func (a *App) writeMetrics(path string, reg *prometheus.Registry) {
	if path == "" || reg == nil {
		return
	}
	if err := prom.WriteTextfile(path, reg); err != nil {
		a.logger.Warn("metrics not written", zap.String("path", path), zap.Error(err))
	}
}
