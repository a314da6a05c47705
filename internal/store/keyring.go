package store

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name entries are filed under in the OS keyring.
const KeyringService = "minigpt"

// KeyringStore keeps values in the operating system keyring
// (Secret Service, macOS Keychain, Windows Credential Manager).
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a KeyringStore for service
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Get(key string) (string, error) {
	v, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return v, nil
}

func (s *KeyringStore) Set(key, value string) error {
	if err := keyring.Set(s.service, key, value); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

func (s *KeyringStore) Delete(key string) error {
	if err := keyring.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}
