package userconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const configFileName = "cli.json"

// UserConfig holds CLI preferences stored in <data dir>/cli.json
type UserConfig struct {
	LastEmail    string `json:"last_email,omitempty"`
	FeedSort     string `json:"feed_sort,omitempty"`
	FeedPageSize int    `json:"feed_page_size,omitempty"`
}

// Path returns the preferences file inside dataDir
func Path(dataDir string) string {
	return filepath.Join(dataDir, configFileName)
}

// Load reads the preferences; a missing file is an empty config
func Load(dataDir string) (*UserConfig, error) {
	data, err := os.ReadFile(Path(dataDir))
	if errors.Is(err, os.ErrNotExist) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the preferences
func Save(dataDir string, cfg *UserConfig) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(Path(dataDir), data, 0o600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// Update loads the preferences, applies fn and saves them
func Update(dataDir string, fn func(*UserConfig)) error {
	cfg, err := Load(dataDir)
	if err != nil {
		return err
	}
	fn(cfg)
	return Save(dataDir, cfg)
}
