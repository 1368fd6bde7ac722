package commands

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/petal-labs/lumen/cli/config"
	"github.com/petal-labs/lumen/cli/keystore"
)

// memKeystore is an in-memory keystore for tests.
type memKeystore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemKeystore() *memKeystore {
	return &memKeystore{keys: make(map[string]string)}
}

func (m *memKeystore) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[name] = value
	return nil
}

func (m *memKeystore) Get(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.keys[name]
	if !ok {
		return "", &keystore.ErrKeyNotFound{Name: name}
	}
	return v, nil
}

func (m *memKeystore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[name]; !ok {
		return &keystore.ErrKeyNotFound{Name: name}
	}
	delete(m.keys, name)
	return nil
}

func (m *memKeystore) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.keys))
	for k := range m.keys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

type testEnv struct {
	cfg    *config.Config
	ks     *memKeystore
	stdin  io.Reader
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENROUTER_API_KEY", "FAL_KEY"} {
		t.Setenv(k, "")
	}
	return &testEnv{
		cfg:    &config.Config{Providers: map[string]config.ProviderConfig{}},
		ks:     newMemKeystore(),
		stdin:  strings.NewReader(""),
		stdout: new(bytes.Buffer),
		stderr: new(bytes.Buffer),
	}
}

// falServer points the fal provider at handler.
func (e *testEnv) falServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	e.cfg.Providers["fal"] = config.ProviderConfig{BaseURL: server.URL}
	return server
}

func (e *testEnv) run(args ...string) error {
	return e.runContext(context.Background(), args...)
}

func (e *testEnv) runContext(ctx context.Context, args ...string) error {
	app := NewApp(
		WithConfigLoader(func(string) (*config.Config, error) { return e.cfg, nil }),
		WithKeystoreFactory(func() (keystore.Keystore, error) { return e.ks, nil }),
		WithIO(e.stdin, e.stdout, e.stderr),
	)
	app.SetArgs(args)
	return app.ExecuteContext(ctx)
}

// writePNG writes a blank w×h PNG named ref.png and returns its path.
func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ref.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return path
}
