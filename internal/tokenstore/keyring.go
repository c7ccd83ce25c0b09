package tokenstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const service = "blogdeck"

// KeyringStore keeps the token in the OS keychain/credential manager
type KeyringStore struct{}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (k *KeyringStore) Get() (string, bool, error) {
	token, err := keyring.Get(service, Key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load token: %w", err)
	}
	return token, token != "", nil
}

func (k *KeyringStore) Set(token string) error {
	if err := keyring.Set(service, Key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (k *KeyringStore) Clear() error {
	if err := keyring.Delete(service, Key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
