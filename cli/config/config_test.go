package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LUMEN_PROVIDER", "LUMEN_MODEL", "LUMEN_TIMEOUT", "LUMEN_LOCALE", "LUMEN_LOG_LEVEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return path
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("USERPROFILE", `C:\Users\tester`)

	path := DefaultConfigPath()
	if !strings.HasSuffix(path, filepath.Join(".lumen", "config.yaml")) {
		t.Errorf("DefaultConfigPath() = %q, want suffix .lumen/config.yaml", path)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DefaultProvider != "" {
		t.Errorf("DefaultProvider = %q, want empty", cfg.DefaultProvider)
	}
	if cfg.Providers == nil {
		t.Error("Providers map is nil")
	}
}

func TestLoadConfigValid(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
default_provider: fal
default_model: fal-ai/flux/dev
timeout: 90s
locale: es
log_level: debug

providers:
  fal:
    api_key_ref: fal_work
    poll_interval: 2s
    upload_url: https://upload.example.com/initiate
  openrouter:
    image_block_style: base64_source
    headers:
      HTTP-Referer: https://example.com
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DefaultProvider != "fal" {
		t.Errorf("DefaultProvider = %q, want fal", cfg.DefaultProvider)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", cfg.Timeout)
	}
	if cfg.Locale != "es" {
		t.Errorf("Locale = %q, want es", cfg.Locale)
	}

	fal := cfg.Providers["fal"]
	if fal.PollInterval != 2*time.Second {
		t.Errorf("fal.PollInterval = %v, want 2s", fal.PollInterval)
	}
	if got := cfg.KeyName("fal"); got != "fal_work" {
		t.Errorf("KeyName(fal) = %q, want fal_work", got)
	}
	if got := cfg.KeyName("gemini"); got != "gemini" {
		t.Errorf("KeyName(gemini) = %q, want gemini", got)
	}
	if got := cfg.Providers["openrouter"].Headers["HTTP-Referer"]; got != "https://example.com" {
		t.Errorf("openrouter header = %q", got)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "default_provider: fal\ntimeout: 30s\n")
	t.Setenv("LUMEN_PROVIDER", "gemini")
	t.Setenv("LUMEN_TIMEOUT", "2m")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DefaultProvider != "gemini" {
		t.Errorf("DefaultProvider = %q, want gemini", cfg.DefaultProvider)
	}
	if cfg.Timeout != 2*time.Minute {
		t.Errorf("Timeout = %v, want 2m", cfg.Timeout)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml type", "default_provider: [a, b]\n"},
		{"unknown default provider", "default_provider: openai\n"},
		{"unknown provider section", "providers:\n  openai:\n    base_url: https://api.openai.com\n"},
		{"bad block style", "providers:\n  openrouter:\n    image_block_style: inline\n"},
		{"bad base url", "providers:\n  gemini:\n    base_url: not a url\n"},
		{"bad log level", "log_level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("LoadConfig() should return error")
			}
		})
	}
}

func TestLoadConfigEmptyFile(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Providers == nil {
		t.Error("Providers map is nil")
	}
}

func TestConfigGetProviderNilMap(t *testing.T) {
	cfg := &Config{}
	if cfg.GetProvider("fal") != nil {
		t.Error("GetProvider() on nil map should return nil")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{
		DefaultProvider: "openrouter",
		Timeout:         45 * time.Second,
		Providers:       map[string]ProviderConfig{"openrouter": {APIKeyRef: "or"}},
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.DefaultProvider != "openrouter" || loaded.Timeout != 45*time.Second {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.KeyName("openrouter") != "or" {
		t.Errorf("KeyName = %q, want or", loaded.KeyName("openrouter"))
	}
}

func TestAPIKeyEnv(t *testing.T) {
	tests := map[string]string{
		"gemini":     "GEMINI_API_KEY",
		"openrouter": "OPENROUTER_API_KEY",
		"fal":        "FAL_KEY",
		"other":      "OTHER_API_KEY",
	}
	for provider, want := range tests {
		if got := APIKeyEnv(provider); got != want {
			t.Errorf("APIKeyEnv(%q) = %q, want %q", provider, got, want)
		}
	}
}
