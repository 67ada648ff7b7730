package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidateBackendURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "http", url: "http://localhost:8080", wantErr: false},
		{name: "https with path", url: "https://shop.example.com/api", wantErr: false},
		{name: "missing scheme", url: "shop.example.com", wantErr: true},
		{name: "ftp scheme", url: "ftp://shop.example.com", wantErr: true},
		{name: "empty host", url: "http://", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBackendURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBackendURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad_TrimsTrailingSlash(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := &Config{
		Backends: []Backend{
			{URL: "https://shop.example.com/", Alias: "production"},
			{URL: "http://localhost:8080", Alias: "local"},
		},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if len(loaded.Backends) != 2 {
		t.Fatalf("expected 2 backends, got %d", len(loaded.Backends))
	}
	if loaded.Backends[0].URL != "https://shop.example.com" {
		t.Errorf("expected trailing slash to be trimmed, got '%s'", loaded.Backends[0].URL)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON, got nil")
	}
}

func TestFindConfigFile_WalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}
	if err := Save(filepath.Join(root, ConfigFileName), &Config{}); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	t.Chdir(nested)

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("FindConfigFile failed: %v", err)
	}

	// Compare resolved paths; TempDir may sit behind a symlink
	want, _ := filepath.EvalSymlinks(filepath.Join(root, ConfigFileName))
	got, _ := filepath.EvalSymlinks(found)
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestGetBackendByURLOrAlias(t *testing.T) {
	cfg := &Config{
		Backends: []Backend{
			{URL: "https://shop.example.com", Alias: "production"},
			{URL: "http://localhost:8080", Alias: "local"},
		},
	}

	tests := []struct {
		name      string
		lookup    string
		wantAlias string
		wantErr   bool
	}{
		{name: "by url", lookup: "http://localhost:8080", wantAlias: "local"},
		{name: "by url with trailing slash", lookup: "https://shop.example.com/", wantAlias: "production"},
		{name: "by alias", lookup: "production", wantAlias: "production"},
		{name: "unknown", lookup: "staging", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := cfg.GetBackendByURLOrAlias(tt.lookup)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got backend %+v", tt.lookup, backend)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if backend.Alias != tt.wantAlias {
				t.Errorf("expected alias %s, got %s", tt.wantAlias, backend.Alias)
			}
		})
	}
}

func TestGetDefaultBackend_Empty(t *testing.T) {
	cfg := &Config{}
	if _, err := cfg.GetDefaultBackend(); err == nil {
		t.Error("expected error for empty config, got nil")
	}
}

func TestLoadRuntime(t *testing.T) {
	t.Chdir(t.TempDir()) // keep stray .env files out of the test

	t.Run("defaults", func(t *testing.T) {
		t.Setenv(EnvBackendURL, "")
		t.Setenv(EnvTokenStore, "")
		t.Setenv(EnvHTTPTimeout, "")
		t.Setenv(EnvLogLevel, "")

		rt, err := LoadRuntime()
		if err != nil {
			t.Fatalf("LoadRuntime failed: %v", err)
		}
		if rt.HTTPTimeout != 30*time.Second {
			t.Errorf("expected default timeout 30s, got %s", rt.HTTPTimeout)
		}
		if rt.LogLevel != "warn" {
			t.Errorf("expected default log level warn, got %s", rt.LogLevel)
		}
		if rt.BackendURL != "" || rt.TokenStore != "" {
			t.Errorf("expected empty overrides, got %+v", rt)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv(EnvBackendURL, "http://localhost:8080/")
		t.Setenv(EnvTokenStore, "FILE")
		t.Setenv(EnvHTTPTimeout, "5s")
		t.Setenv(EnvLogLevel, "debug")

		rt, err := LoadRuntime()
		if err != nil {
			t.Fatalf("LoadRuntime failed: %v", err)
		}
		if rt.BackendURL != "http://localhost:8080" {
			t.Errorf("expected trimmed backend URL, got %s", rt.BackendURL)
		}
		if rt.TokenStore != TokenStoreFile {
			t.Errorf("expected token store file, got %s", rt.TokenStore)
		}
		if rt.HTTPTimeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %s", rt.HTTPTimeout)
		}
	})

	t.Run("invalid token store", func(t *testing.T) {
		t.Setenv(EnvBackendURL, "")
		t.Setenv(EnvTokenStore, "vault")
		t.Setenv(EnvHTTPTimeout, "")

		if _, err := LoadRuntime(); err == nil {
			t.Error("expected error for unknown token store, got nil")
		}
	})

	t.Run("invalid timeout", func(t *testing.T) {
		t.Setenv(EnvBackendURL, "")
		t.Setenv(EnvTokenStore, "")
		t.Setenv(EnvHTTPTimeout, "soon")

		if _, err := LoadRuntime(); err == nil {
			t.Error("expected error for invalid timeout, got nil")
		}
	})

	t.Run("invalid backend url", func(t *testing.T) {
		t.Setenv(EnvBackendURL, "localhost:8080")
		t.Setenv(EnvTokenStore, "")
		t.Setenv(EnvHTTPTimeout, "")

		if _, err := LoadRuntime(); err == nil {
			t.Error("expected error for backend URL without scheme, got nil")
		}
	})
}
