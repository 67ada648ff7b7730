package userconfig

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	configDirName  = "shopfront"
	configFileName = "config.json"
	cartFileName   = "cart.json"

	// EnvConfigDir relocates the user config directory, mainly for tests
	EnvConfigDir = "SHOPFRONT_CONFIG_DIR"
)

// UserConfig represents the user's local configuration stored in ~/.config/shopfront/config.json
type UserConfig struct {
	SelectedBackendURL string `json:"selected_backend_url"`
	TokenStore         string `json:"token_store,omitempty"`
}

// Dir returns the user config directory
func Dir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", configDirName), nil
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	return pathInDir(configFileName)
}

// SessionPath returns the path of the file-backed session store for a backend
func SessionPath(backendURL string) (string, error) {
	name := backendURL
	if u, err := url.Parse(backendURL); err == nil && u.Host != "" {
		name = u.Host
	}
	name = strings.NewReplacer(":", "_", "/", "_").Replace(name)
	return pathInDir(fmt.Sprintf("session-%s.json", name))
}

// CartPath returns the path of the persisted cart
func CartPath() (string, error) {
	return pathInDir(cartFileName)
}

func pathInDir(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return empty config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// SetSelectedBackend updates the selected backend URL and saves the config
func SetSelectedBackend(backendURL string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.SelectedBackendURL = backendURL
	return Save(cfg)
}

// GetSelectedBackend returns the selected backend URL, or empty string if not set
func GetSelectedBackend() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	return cfg.SelectedBackendURL, nil
}
