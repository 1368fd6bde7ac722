package keystore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestEnvSource(t *testing.T) {
	t.Setenv("LUMEN_TEST_MASTER", "  from-env  ")
	key, err := EnvSource{Var: "LUMEN_TEST_MASTER"}.GetMasterKey()
	if err != nil {
		t.Fatalf("GetMasterKey() error = %v", err)
	}
	if string(key) != "from-env" {
		t.Errorf("GetMasterKey() = %q, want from-env", key)
	}

	t.Setenv("LUMEN_TEST_MASTER", "")
	if _, err := (EnvSource{Var: "LUMEN_TEST_MASTER"}).GetMasterKey(); !errors.Is(err, ErrNoMasterKey) {
		t.Errorf("GetMasterKey() on empty var error = %v, want ErrNoMasterKey", err)
	}
}

func TestFileSourceCreatesAndReuses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumen", "master.key")
	src := FileSource{Path: path}

	first, err := src.GetMasterKey()
	if err != nil {
		t.Fatalf("GetMasterKey() error = %v", err)
	}
	if len(first) != masterKeyLength {
		t.Errorf("len(key) = %d, want %d", len(first), masterKeyLength)
	}

	second, err := src.GetMasterKey()
	if err != nil {
		t.Fatalf("second GetMasterKey() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("master key changed between reads")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
		}
	}
}

func TestFileSourceCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.key")
	if err := os.WriteFile(path, []byte("!!not base64!!"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := (FileSource{Path: path}).GetMasterKey(); err == nil {
		t.Error("GetMasterKey() should fail on corrupt file")
	}
}

func TestChainSource(t *testing.T) {
	chain := ChainSource{StaticSource(nil), StaticSource("second")}
	key, err := chain.GetMasterKey()
	if err != nil {
		t.Fatalf("GetMasterKey() error = %v", err)
	}
	if string(key) != "second" {
		t.Errorf("GetMasterKey() = %q, want second", key)
	}

	if _, err := (ChainSource{}).GetMasterKey(); !errors.Is(err, ErrNoMasterKey) {
		t.Errorf("empty chain error = %v, want ErrNoMasterKey", err)
	}
}
