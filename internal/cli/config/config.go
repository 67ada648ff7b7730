package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const ConfigFileName = "shopfront.json"

// Environment overrides
const (
	EnvBackendURL  = "SHOPFRONT_BACKEND_URL"
	EnvTokenStore  = "SHOPFRONT_TOKEN_STORE"
	EnvHTTPTimeout = "SHOPFRONT_HTTP_TIMEOUT"
	EnvLogLevel    = "SHOPFRONT_LOG_LEVEL"
	EnvEmail       = "SHOPFRONT_EMAIL"
	EnvPassword    = "SHOPFRONT_PASSWORD"
)

// Token store kinds
const (
	TokenStoreKeyring = "keyring"
	TokenStoreFile    = "file"
)

const defaultHTTPTimeout = 30 * time.Second

// Backend represents a shopfront backend the CLI can talk to
type Backend struct {
	URL   string `json:"url"`
	Alias string `json:"alias"`
}

// Config represents the project configuration file
type Config struct {
	Backends []Backend `json:"backends"`
}

// Runtime holds settings taken from the environment
type Runtime struct {
	BackendURL  string
	TokenStore  string
	HTTPTimeout time.Duration
	LogLevel    string
}

// LoadRuntime reads environment overrides, loading .env files first
func LoadRuntime() (*Runtime, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	rt := &Runtime{
		BackendURL:  strings.TrimRight(os.Getenv(EnvBackendURL), "/"),
		TokenStore:  strings.ToLower(os.Getenv(EnvTokenStore)),
		HTTPTimeout: defaultHTTPTimeout,
		LogLevel:    os.Getenv(EnvLogLevel),
	}

	if rt.LogLevel == "" {
		rt.LogLevel = "warn"
	}

	switch rt.TokenStore {
	case "":
	case TokenStoreKeyring, TokenStoreFile:
	default:
		return nil, fmt.Errorf("invalid %s '%s', must be one of: keyring, file", EnvTokenStore, rt.TokenStore)
	}

	if raw := os.Getenv(EnvHTTPTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHTTPTimeout, err)
		}
		rt.HTTPTimeout = d
	}

	if rt.BackendURL != "" {
		if err := ValidateBackendURL(rt.BackendURL); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvBackendURL, err)
		}
	}

	return rt, nil
}

// ValidateBackendURL checks that rawURL is an absolute http(s) URL
func ValidateBackendURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is empty")
	}
	return nil
}

// FindConfigFile searches for shopfront.json in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find shopfront.json or reach root
	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for i := range cfg.Backends {
		cfg.Backends[i].URL = strings.TrimRight(cfg.Backends[i].URL, "/")
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetBackendByAlias returns a backend by its alias
func (c *Config) GetBackendByAlias(alias string) (*Backend, error) {
	for i := range c.Backends {
		if c.Backends[i].Alias == alias {
			return &c.Backends[i], nil
		}
	}
	return nil, fmt.Errorf("backend with alias '%s' not found", alias)
}

// GetBackendByURLOrAlias finds a backend by URL or alias
func (c *Config) GetBackendByURLOrAlias(urlOrAlias string) (*Backend, error) {
	target := strings.TrimRight(urlOrAlias, "/")
	for i := range c.Backends {
		if c.Backends[i].URL == target {
			return &c.Backends[i], nil
		}
	}
	return c.GetBackendByAlias(urlOrAlias)
}

// GetDefaultBackend returns the first backend in the list
func (c *Config) GetDefaultBackend() (*Backend, error) {
	if len(c.Backends) == 0 {
		return nil, fmt.Errorf("no backends configured in %s", ConfigFileName)
	}
	return &c.Backends[0], nil
}
