package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "shopfront-cli"
)

// getKeyringKey returns a unique key for storing a session per backend
func getKeyringKey(backendURL string) string {
	return fmt.Sprintf("session-%s", backendURL)
}

// KeyringStore persists credentials in the OS keychain/credential manager.
// The whole record is one secret, which makes save and clear atomic.
type KeyringStore struct {
	backendURL string
}

// NewKeyringStore creates a store scoped to one backend
func NewKeyringStore(backendURL string) *KeyringStore {
	return &KeyringStore{backendURL: backendURL}
}

func (k *KeyringStore) Save(creds *Credentials) error {
	data, err := json.Marshal(creds.record())
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := keyring.Set(service, getKeyringKey(k.backendURL), string(data)); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func (k *KeyringStore) Load() (*Credentials, error) {
	secret, err := keyring.Get(service, getKeyringKey(k.backendURL))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	var rec map[string]string
	if err := json.Unmarshal([]byte(secret), &rec); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return credentialsFromRecord(rec)
}

func (k *KeyringStore) Clear() error {
	if err := keyring.Delete(service, getKeyringKey(k.backendURL)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}
