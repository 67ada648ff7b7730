package backendselect

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopfront-dev/shopfront/internal/cli/config"
	"github.com/shopfront-dev/shopfront/internal/cli/userconfig"
)

// setupProject writes shopfront.json with the given backends into a temp dir
// and isolates the user config
func setupProject(t *testing.T, backends []config.Backend) {
	t.Helper()

	dir := t.TempDir()
	if backends != nil {
		data, err := json.Marshal(config.Config{Backends: backends})
		if err != nil {
			t.Fatalf("failed to marshal config: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), data, 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
	}

	t.Chdir(dir)
	t.Setenv(userconfig.EnvConfigDir, t.TempDir())
}

func TestResolveBackend_EnvURLWins(t *testing.T) {
	setupProject(t, nil)

	backend, err := ResolveBackend("http://localhost:9000", "ignored")
	if err != nil {
		t.Fatalf("ResolveBackend failed: %v", err)
	}
	if backend.URL != "http://localhost:9000" || backend.Alias != "env" {
		t.Errorf("unexpected backend %+v", backend)
	}
}

func TestResolveBackend_Alias(t *testing.T) {
	setupProject(t, []config.Backend{
		{URL: "https://shop.example.com", Alias: "production"},
		{URL: "http://localhost:8080", Alias: "dev"},
	})

	backend, err := ResolveBackend("", "dev")
	if err != nil {
		t.Fatalf("ResolveBackend failed: %v", err)
	}
	if backend.URL != "http://localhost:8080" {
		t.Errorf("expected dev backend, got %+v", backend)
	}

	if _, err := ResolveBackend("", "staging"); err == nil {
		t.Error("expected error for unknown alias")
	}
}

func TestResolveBackend_SingleBackendIsSelected(t *testing.T) {
	setupProject(t, []config.Backend{{URL: "https://shop.example.com", Alias: "production"}})

	backend, err := ResolveBackend("", "")
	if err != nil {
		t.Fatalf("ResolveBackend failed: %v", err)
	}
	if backend.Alias != "production" {
		t.Errorf("expected production backend, got %+v", backend)
	}

	selected, err := userconfig.GetSelectedBackend()
	if err != nil {
		t.Fatalf("failed to read user config: %v", err)
	}
	if selected != "https://shop.example.com" {
		t.Errorf("expected the backend to be remembered, got '%s'", selected)
	}
}

func TestResolveBackend_UsesSelectedBackend(t *testing.T) {
	setupProject(t, []config.Backend{
		{URL: "https://shop.example.com", Alias: "production"},
		{URL: "http://localhost:8080", Alias: "dev"},
	})

	if err := userconfig.SetSelectedBackend("http://localhost:8080"); err != nil {
		t.Fatalf("failed to select backend: %v", err)
	}

	backend, err := ResolveBackend("", "")
	if err != nil {
		t.Fatalf("ResolveBackend failed: %v", err)
	}
	if backend.Alias != "dev" {
		t.Errorf("expected dev backend, got %+v", backend)
	}
}

func TestResolveBackend_StaleSelectionIsCleared(t *testing.T) {
	setupProject(t, []config.Backend{{URL: "https://shop.example.com", Alias: "production"}})

	if err := userconfig.SetSelectedBackend("http://gone.example.com"); err != nil {
		t.Fatalf("failed to select backend: %v", err)
	}

	backend, err := ResolveBackend("", "")
	if err != nil {
		t.Fatalf("ResolveBackend failed: %v", err)
	}
	if backend.Alias != "production" {
		t.Errorf("expected fallback to the only backend, got %+v", backend)
	}
}

func TestResolveBackend_NoProjectConfig(t *testing.T) {
	setupProject(t, nil)

	_, err := ResolveBackend("", "")
	if err == nil {
		t.Fatal("expected error without shopfront.json")
	}
	if !strings.Contains(err.Error(), config.EnvBackendURL) {
		t.Errorf("expected error to mention %s, got %v", config.EnvBackendURL, err)
	}
}

func TestPromptBackendSelection_NoBackends(t *testing.T) {
	_, err := PromptBackendSelection(&config.Config{})
	if err == nil || !strings.Contains(err.Error(), "no backends configured") {
		t.Errorf("expected 'no backends configured' error, got %v", err)
	}
}
