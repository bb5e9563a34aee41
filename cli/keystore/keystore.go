// Package keystore provides encrypted storage for API keys.
package keystore

import (
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
)

// Keystore stores named secrets.
type Keystore interface {
	// Set stores a key-value pair.
	Set(name, value string) error
	// Get retrieves a value by name. Returns *ErrKeyNotFound if absent.
	Get(name string) (string, error)
	// Delete removes a key by name.
	Delete(name string) error
	// List returns all stored key names in sorted order.
	List() ([]string, error)
}

// ErrKeyNotFound is returned when a requested key does not exist.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Name
}

// IsNotFound reports whether err is an *ErrKeyNotFound.
func IsNotFound(err error) bool {
	var nf *ErrKeyNotFound
	return errors.As(err, &nf)
}

// PassphraseEnvVar overrides the machine-derived master key.
const PassphraseEnvVar = "AIDE_KEYSTORE_PASSPHRASE"

// MasterKeySource supplies the secret the file key is derived from.
type MasterKeySource interface {
	MasterKey() ([]byte, error)
}

// StaticMasterKey is a fixed master key.
type StaticMasterKey []byte

// MasterKey implements MasterKeySource.
func (s StaticMasterKey) MasterKey() ([]byte, error) {
	if len(s) == 0 {
		return nil, errors.New("keystore: empty master key")
	}
	return s, nil
}

// DefaultMasterKey uses PassphraseEnvVar when set and otherwise machine
// identity (hostname and user), which only protects against casual reads.
type DefaultMasterKey struct{}

// MasterKey implements MasterKeySource.
func (DefaultMasterKey) MasterKey() ([]byte, error) {
	if p := os.Getenv(PassphraseEnvVar); p != "" {
		return []byte(p), nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	sum := sha256.Sum256([]byte(hostname + ":" + username + ":aide-keystore"))
	return sum[:], nil
}

// DefaultKeystorePath returns ~/.aide/keys.enc.
func DefaultKeystorePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "keys.enc"
	}
	return filepath.Join(home, ".aide", "keys.enc")
}

// NewKeystore opens the keystore at the default path.
func NewKeystore() (Keystore, error) {
	return NewFileKeystore(DefaultKeystorePath(), DefaultMasterKey{})
}
