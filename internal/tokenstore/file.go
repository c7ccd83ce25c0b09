package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const credentialsFileName = "credentials.yaml"

type credentials struct {
	AuthToken string `yaml:"auth_token,omitempty"`
}

// FileStore keeps the token in <dataDir>/credentials.yaml, readable by the owner only
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(dataDir string) *FileStore {
	return &FileStore{path: filepath.Join(dataDir, credentialsFileName)}
}

// Path returns the credentials file location
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get() (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return "", false, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	return creds.AuthToken, creds.AuthToken != "", nil
}

func (f *FileStore) Set(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := yaml.Marshal(credentials{AuthToken: token})
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}
