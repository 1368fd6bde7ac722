// Package keystore provides encrypted storage for provider API keys.
package keystore

import (
	"path/filepath"

	"github.com/petal-labs/lumen/cli/config"
)

// Keystore defines the interface for secure key storage.
type Keystore interface {
	// Set stores a key-value pair.
	Set(name, value string) error
	// Get retrieves a value by name. Returns *ErrKeyNotFound if absent.
	Get(name string) (string, error)
	// Delete removes a key by name.
	Delete(name string) error
	// List returns all stored key names, sorted.
	List() ([]string, error)
}

// ErrKeyNotFound is returned when a requested key does not exist.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Name
}

// DefaultKeystorePath returns the default keystore file path (~/.lumen/keys.enc).
func DefaultKeystorePath() string {
	return filepath.Join(config.Dir(), "keys.enc")
}

// DefaultMasterKeyPath returns the default master key file path (~/.lumen/master.key).
func DefaultMasterKeyPath() string {
	return filepath.Join(config.Dir(), "master.key")
}

// NewKeystore opens the default keystore. The master key comes from
// LUMEN_MASTER_KEY when set, otherwise from the master key file, which is
// created on first use.
func NewKeystore() (Keystore, error) {
	source := ChainSource{
		EnvSource{Var: MasterKeyEnv},
		FileSource{Path: DefaultMasterKeyPath()},
	}
	return NewFileKeystore(DefaultKeystorePath(), source)
}
