package infra

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

const (
	archiveKeyFile = ".archive.key"
	archiveKeySize = 32 // 256-bit SQLCipher raw key
)

// FileKeyProvider implements domain.KeyProvider with a base64 key stored next
// to the archive, readable by the owner only.
type FileKeyProvider struct {
	keyPath string
}

// NewFileKeyProvider creates a FileKeyProvider for the archive directory.
func NewFileKeyProvider(archiveDir string) *FileKeyProvider {
	return &FileKeyProvider{keyPath: filepath.Join(archiveDir, archiveKeyFile)}
}

// Path returns the key file location.
func (p *FileKeyProvider) Path() string { return p.keyPath }

// GetKey reads and validates the archive key. Surrounding whitespace left by
// editors is ignored.
func (p *FileKeyProvider) GetKey() ([]byte, error) {
	encoded, err := os.ReadFile(p.keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive key: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(encoded)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode archive key %s: %w", p.keyPath, err)
	}
	if err := checkKeySize(key); err != nil {
		return nil, err
	}
	return key, nil
}

// StoreKey writes key with 0600 permissions, creating the archive directory
// with 0700 if needed.
func (p *FileKeyProvider) StoreKey(key []byte) error {
	if err := checkKeySize(key); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.keyPath), 0700); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(p.keyPath, []byte(encoded+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write archive key: %w", err)
	}
	return nil
}

// KeyExists checks if the key file exists.
func (p *FileKeyProvider) KeyExists() bool {
	_, err := os.Stat(p.keyPath)
	return err == nil
}

func checkKeySize(key []byte) error {
	if len(key) != archiveKeySize {
		return fmt.Errorf("invalid key size: got %d, want %d", len(key), archiveKeySize)
	}
	return nil
}

// GenerateKey creates a new random archive key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, archiveKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}
	return key, nil
}

// EnsureKey returns the stored key, generating and storing one on first use.
func EnsureKey(provider domain.KeyProvider) ([]byte, error) {
	if provider.KeyExists() {
		return provider.GetKey()
	}
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := provider.StoreKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

// rawKeyPragma formats key as a SQLCipher raw key literal, which skips the
// passphrase derivation step.
func rawKeyPragma(key []byte) string {
	return "x'" + hex.EncodeToString(key) + "'"
}

// Ensure FileKeyProvider implements domain.KeyProvider.
var _ domain.KeyProvider = (*FileKeyProvider)(nil)
