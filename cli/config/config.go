// Package config handles CLI configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/petal-labs/lumen/core"
)

// Config represents the CLI configuration.
// Fields tagged with env can be overridden from the environment.
type Config struct {
	DefaultProvider string                    `yaml:"default_provider" env:"LUMEN_PROVIDER" validate:"omitempty,oneof=gemini openrouter fal"`
	DefaultModel    string                    `yaml:"default_model" env:"LUMEN_MODEL"`
	Timeout         time.Duration             `yaml:"timeout" env:"LUMEN_TIMEOUT" validate:"gte=0"`
	Locale          string                    `yaml:"locale" env:"LUMEN_LOCALE"`
	LogLevel        string                    `yaml:"log_level" env:"LUMEN_LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
	Providers       map[string]ProviderConfig `yaml:"providers" validate:"dive"`
}

// ProviderConfig holds configuration for a specific provider.
type ProviderConfig struct {
	APIKeyRef       string            `yaml:"api_key_ref,omitempty"`
	BaseURL         string            `yaml:"base_url,omitempty" validate:"omitempty,url"`
	Endpoint        string            `yaml:"endpoint,omitempty" validate:"omitempty,url"`
	UploadURL       string            `yaml:"upload_url,omitempty" validate:"omitempty,url"`
	PollInterval    time.Duration     `yaml:"poll_interval,omitempty" validate:"gte=0"`
	ImageBlockStyle string            `yaml:"image_block_style,omitempty" validate:"omitempty,oneof=image_url image_url_string base64_source"`
	Headers         map[string]string `yaml:"headers,omitempty"`
}

// apiKeyEnv maps providers to the environment variable holding their key.
var apiKeyEnv = map[core.ProviderID]string{
	core.ProviderGemini:     "GEMINI_API_KEY",
	core.ProviderOpenRouter: "OPENROUTER_API_KEY",
	core.ProviderFal:        "FAL_KEY",
}

// APIKeyEnv returns the environment variable consulted for a provider's key.
func APIKeyEnv(provider string) string {
	if v, ok := apiKeyEnv[core.ProviderID(provider)]; ok {
		return v
	}
	return strings.ToUpper(provider) + "_API_KEY"
}

// Dir returns the directory holding Lumen's config and keystore.
// - macOS/Linux: ~/.lumen
// - Windows: %USERPROFILE%\.lumen
func Dir() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return "."
	}
	return filepath.Join(homeDir, ".lumen")
}

// DefaultConfigPath returns the default configuration file path for the current platform.
func DefaultConfigPath() string {
	if Dir() == "." {
		return "config.yaml"
	}
	return filepath.Join(Dir(), "config.yaml")
}

// LoadConfig loads configuration from the specified path and applies
// environment overrides. A missing file yields the environment-only config.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Providers: make(map[string]ProviderConfig),
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field values and provider names.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for id := range c.Providers {
		if !core.ProviderID(id).IsKnown() {
			return fmt.Errorf("invalid config: unknown provider %q", id)
		}
	}
	return nil
}

// GetProvider returns the provider config for the given ID.
// Returns nil if the provider is not configured.
func (c *Config) GetProvider(id string) *ProviderConfig {
	if c.Providers == nil {
		return nil
	}
	if pc, ok := c.Providers[id]; ok {
		return &pc
	}
	return nil
}

// KeyName returns the keystore entry holding a provider's API key.
func (c *Config) KeyName(id string) string {
	if pc := c.GetProvider(id); pc != nil && pc.APIKeyRef != "" {
		return pc.APIKeyRef
	}
	return id
}

// Save writes the config as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
