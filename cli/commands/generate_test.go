package commands

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/petal-labs/lumen/cli/config"
	"github.com/petal-labs/lumen/core"
)

const pngDataURI = "data:image/png;base64,iVBORw0KGgo="

func inlineImageHandler(t *testing.T, gotPrompt *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Key fal-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var body struct {
			Input struct {
				Prompt string `json:"prompt"`
			} `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if gotPrompt != nil {
			*gotPrompt = body.Input.Prompt
		}
		_, _ = io.WriteString(w, `{"images":[{"url":"`+pngDataURI+`"}]}`)
	}
}

func TestGenerateWritesInlineImages(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("FAL_KEY", "fal-test")
	var prompt string
	env.falServer(t, inlineImageHandler(t, &prompt))

	out := t.TempDir()
	err := env.run("generate", "a red bicycle", "--provider", "fal", "--model", "fal-ai/flux/dev", "--out", out)
	if err != nil {
		t.Fatalf("generate error = %v\nstderr: %s", err, env.stderr.String())
	}

	if prompt != "a red bicycle" {
		t.Errorf("prompt sent = %q", prompt)
	}
	want := filepath.Join(out, "lumen-0-0.png")
	if strings.TrimSpace(env.stdout.String()) != want {
		t.Errorf("stdout = %q, want %q", env.stdout.String(), want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "\x89PNG") {
		t.Errorf("saved file is not a PNG: %q", data)
	}
}

func TestGenerateJSONWithURLs(t *testing.T) {
	env := newTestEnv(t)
	env.ks.keys["fal"] = "fal-test"
	env.falServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"images":[{"url":"https://cdn.example/a.png","content_type":"image/png"},{"url":"https://cdn.example/b.png"}]}`)
	})

	err := env.run("generate", "--prompt", "two cats", "--provider", "fal", "--model", "fal-ai/flux/dev", "-n", "2", "--json", "--out", t.TempDir())
	if err != nil {
		t.Fatalf("generate error = %v", err)
	}

	var got generateOutput
	if err := json.Unmarshal(env.stdout.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, env.stdout.String())
	}
	if got.Provider != "fal" || len(got.Images) != 2 {
		t.Fatalf("output = %+v", got)
	}
	if got.Images[1].URL != "https://cdn.example/b.png" || got.Images[1].Index != 1 {
		t.Errorf("second image = %+v", got.Images[1])
	}
}

func TestGeneratePromptFromStdin(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("FAL_KEY", "fal-test")
	env.stdin = strings.NewReader("  from stdin\n")
	var prompt string
	env.falServer(t, inlineImageHandler(t, &prompt))

	if err := env.run("generate", "-", "--provider", "fal", "--model", "fal-ai/flux/dev", "--out", t.TempDir()); err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if prompt != "from stdin" {
		t.Errorf("prompt = %q, want from stdin", prompt)
	}
}

func TestGenerateUsesConfigDefaults(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("FAL_KEY", "fal-test")
	env.cfg.DefaultProvider = "fal"
	env.cfg.DefaultModel = "fal-ai/flux/dev"
	env.falServer(t, inlineImageHandler(t, nil))

	if err := env.run("generate", "a boat", "--out", t.TempDir()); err != nil {
		t.Fatalf("generate error = %v", err)
	}
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		status   int
		body     string
		wantCode int
		wantMsg  string
	}{
		{"missing key", []string{"--provider", "gemini", "--model", "m"}, 0, "", ExitValidation, "GEMINI_API_KEY"},
		{"no provider", []string{"--model", "m"}, 0, "", ExitValidation, "Provider"},
		{"bad size", []string{"--provider", "fal", "--model", "m", "--size", "big"}, 0, "", ExitValidation, "invalid size"},
		{"rejected key", []string{"--provider", "fal", "--model", "m"}, http.StatusUnauthorized, `{"detail":"bad key"}`, ExitProvider, ""},
		{"empty result", []string{"--provider", "fal", "--model", "m"}, http.StatusOK, `{"detail":"nsfw"}`, ExitProvider, "nsfw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			t.Setenv("FAL_KEY", "fal-test")
			env.falServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			args := append([]string{"generate", "a prompt", "--out", t.TempDir()}, tt.args...)
			err := env.run(args...)
			if err == nil {
				t.Fatal("generate should fail")
			}
			if code := ExitCode(err); code != tt.wantCode {
				t.Errorf("ExitCode() = %d, want %d (err: %v)", code, tt.wantCode, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestGenerateRetriesTransientFailure(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("FAL_KEY", "fal-test")
	var calls atomic.Int32
	env.falServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"images":[{"url":"https://cdn.example/ok.png"}]}`)
	})

	err := env.run("generate", "retry me", "--provider", "fal", "--model", "m", "--retries", "1")
	if err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestGenerateStreamMode(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("FAL_KEY", "fal-test")
	env.falServer(t, inlineImageHandler(t, nil))

	out := t.TempDir()
	if err := env.run("generate", "streamed", "--provider", "fal", "--model", "m", "--stream", "--out", out, "--prefix", "s"); err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "s-0-0.png")); err != nil {
		t.Errorf("streamed image not saved: %v", err)
	}
}

func TestGenerateWritesMetrics(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("FAL_KEY", "fal-test")
	env.falServer(t, inlineImageHandler(t, nil))

	path := filepath.Join(t.TempDir(), "lumen.prom")
	if err := env.run("generate", "metrics", "--provider", "fal", "--model", "m", "--out", t.TempDir(), "--metrics-textfile", path); err != nil {
		t.Fatalf("generate error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("metrics file missing: %v", err)
	}
	if !strings.Contains(string(data), `lumen_generate_calls_total{outcome="ok",provider="fal"} 1`) {
		t.Errorf("metrics = %s", data)
	}
}

func TestGenerateReferenceProgress(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("FAL_KEY", "fal-test")
	server := env.falServer(t, inlineImageHandler(t, nil))
	// The upload endpoint answers without upload URLs, so the image goes inline.
	env.cfg.Providers["fal"] = config.ProviderConfig{BaseURL: server.URL, UploadURL: server.URL + "/upload"}

	ref := writePNG(t, 32, 16)
	if err := env.run("generate", "edit", "--provider", "fal", "--model", "m", "--ref", ref, "--out", t.TempDir()); err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if !strings.Contains(env.stderr.String(), "reference 1/1 ref.png (inline)") {
		t.Errorf("stderr = %q, want progress line", env.stderr.String())
	}
}

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.New("plain"), ExitValidation},
		{core.ValidationError("x"), ExitValidation},
		{core.HTTPError("fal", 500, "", "", "boom", core.ErrServer), ExitProvider},
		{core.EmptyResultError("fal", ""), ExitProvider},
		{core.NetworkError("fal", errors.New("refused")), ExitNetwork},
		{core.TimeoutError("fal", 0), ExitNetwork},
		{core.JobFailedError("fal", "j", "FAILED"), ExitJob},
		{core.JobNotFoundError("fal", "j"), ExitJob},
		{core.CanceledError("fal"), ExitCanceled},
		{withExitCode(core.JobFailedError("fal", "j", "FAILED")), ExitJob},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
