package keystore

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MasterKeyEnv is the environment variable consulted by EnvSource by default.
const MasterKeyEnv = "LUMEN_MASTER_KEY"

const masterKeyLength = 32

// ErrNoMasterKey is returned by a source that has nothing to offer.
var ErrNoMasterKey = errors.New("no master key available")

// MasterKeySource supplies the secret the keystore encryption key is derived from.
type MasterKeySource interface {
	GetMasterKey() ([]byte, error)
}

// StaticSource returns a fixed key. Intended for tests.
type StaticSource []byte

// GetMasterKey returns the key.
func (s StaticSource) GetMasterKey() ([]byte, error) {
	if len(s) == 0 {
		return nil, ErrNoMasterKey
	}
	return []byte(s), nil
}

// EnvSource reads the master key from an environment variable.
type EnvSource struct {
	Var string
}

// GetMasterKey returns the variable's value, or ErrNoMasterKey when unset.
func (s EnvSource) GetMasterKey() ([]byte, error) {
	name := s.Var
	if name == "" {
		name = MasterKeyEnv
	}
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil, ErrNoMasterKey
	}
	return []byte(v), nil
}

// FileSource reads a base64 master key from a file, generating a random
// one with owner-only permissions if the file does not exist.
type FileSource struct {
	Path string
}

// GetMasterKey loads or creates the key file.
func (s FileSource) GetMasterKey() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err == nil {
		key, derr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if derr != nil || len(key) == 0 {
			return nil, fmt.Errorf("master key file %s is corrupt", s.Path)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	key := make([]byte, masterKeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(key) + "\n"
	if err := os.WriteFile(s.Path, []byte(encoded), 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

// ChainSource tries each source in order and returns the first key found.
type ChainSource []MasterKeySource

// GetMasterKey walks the chain. Errors other than ErrNoMasterKey stop it.
func (c ChainSource) GetMasterKey() ([]byte, error) {
	for _, s := range c {
		key, err := s.GetMasterKey()
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ErrNoMasterKey) {
			return nil, err
		}
	}
	return nil, ErrNoMasterKey
}
