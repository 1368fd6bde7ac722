package commands

import (
	"strings"
	"testing"

	"github.com/petal-labs/lumen/cli/config"
)

func TestKeysSetListDelete(t *testing.T) {
	env := newTestEnv(t)
	env.stdin = strings.NewReader("fal-secret\n")

	if err := env.run("keys", "set", "fal"); err != nil {
		t.Fatalf("keys set error = %v", err)
	}
	if env.ks.keys["fal"] != "fal-secret" {
		t.Errorf("stored = %q, want fal-secret", env.ks.keys["fal"])
	}
	if strings.Contains(env.stdout.String(), "fal-secret") {
		t.Error("key value echoed to stdout")
	}

	env.stdout.Reset()
	if err := env.run("keys", "list"); err != nil {
		t.Fatalf("keys list error = %v", err)
	}
	if !strings.Contains(env.stdout.String(), "- fal") {
		t.Errorf("list output = %q", env.stdout.String())
	}

	if err := env.run("keys", "delete", "fal"); err != nil {
		t.Fatalf("keys delete error = %v", err)
	}
	if err := env.run("keys", "delete", "fal"); ExitCode(err) != ExitValidation {
		t.Errorf("second delete error = %v, want validation exit", err)
	}
}

func TestKeysSetRejectsEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.stdin = strings.NewReader("\n")
	if err := env.run("keys", "set", "gemini"); err == nil {
		t.Error("keys set should reject an empty key")
	}
}

func TestKeysListEmpty(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("keys", "list"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.stdout.String(), "No API keys stored.") {
		t.Errorf("output = %q", env.stdout.String())
	}
}

func TestKeystoreKeyUsedForGeneration(t *testing.T) {
	env := newTestEnv(t)
	env.ks.keys["work-fal"] = "fal-test"
	server := env.falServer(t, inlineImageHandler(t, nil))
	env.cfg.Providers["fal"] = config.ProviderConfig{BaseURL: server.URL, APIKeyRef: "work-fal"}

	if err := env.run("generate", "x", "--provider", "fal", "--model", "m", "--out", t.TempDir()); err != nil {
		t.Fatalf("generate error = %v", err)
	}
}
